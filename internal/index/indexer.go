// Package index implements parallel file indexing with progress reporting.
package index

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/spetr/codechunk/builtin/chunking/simple"
	"github.com/spetr/codechunk/internal/config"
	"github.com/spetr/codechunk/pkg/provider"
	"github.com/spetr/codechunk/pkg/types"
)

// Indexer handles parallel file indexing.
type Indexer struct {
	config     *config.Config
	store      provider.VectorStore
	embedding  provider.EmbeddingProvider
	chunker    provider.ChunkingStrategy
	projectDir string
	configHash string

	// Progress tracking
	progressMu sync.Mutex
	progress   types.IndexProgress
	onProgress func(types.IndexProgress)
}

// Config contains indexer configuration.
type Config struct {
	ProjectDir string
	Config     *config.Config
	Store      provider.VectorStore
	Embedding  provider.EmbeddingProvider
	Chunker    provider.ChunkingStrategy
	OnProgress func(types.IndexProgress)
}

// New creates a new indexer.
func New(cfg Config) *Indexer {
	return &Indexer{
		config:     cfg.Config,
		store:      cfg.Store,
		embedding:  cfg.Embedding,
		chunker:    cfg.Chunker,
		projectDir: cfg.ProjectDir,
		configHash: cfg.Config.Hash(),
		onProgress: cfg.OnProgress,
	}
}

// Index indexes the project directory. Unchanged files are skipped via
// the cached content hashes, so an interrupted run can be resumed by
// running again.
func (idx *Indexer) Index(ctx context.Context, force bool) error {
	startTime := time.Now()

	// Phase 1: Scan files
	idx.updateProgress("scanning", 0, 0, 0, 0, "")

	files, err := idx.scanFiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan files: %w", err)
	}

	slog.Info("scanned files", "total", len(files))
	idx.updateProgress("scanning", len(files), 0, 0, 0, "")

	if err := idx.pruneDeletedFiles(files); err != nil {
		slog.Warn("failed to prune deleted files", "error", err)
	}

	// Filter for changed files if not forcing
	var filesToProcess []*types.SourceFile
	if force {
		filesToProcess = files
	} else {
		filesToProcess, err = idx.filterChangedFiles(files)
		if err != nil {
			return fmt.Errorf("failed to filter files: %w", err)
		}
	}

	slog.Info("files to process", "count", len(filesToProcess), "total", len(files))

	if len(filesToProcess) == 0 {
		slog.Info("no files need indexing")
		return nil
	}

	// Phase 2: Parallel chunking
	idx.updateProgress("chunking", len(filesToProcess), 0, 0, 0, "")

	allChunks, err := idx.chunkFilesParallel(ctx, filesToProcess)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	slog.Info("chunking complete", "files", len(filesToProcess), "chunks", len(allChunks))

	if len(allChunks) == 0 {
		slog.Info("no chunks to process")
		// Still mark files as processed
		for _, file := range filesToProcess {
			if err := idx.store.SetFileHash(file.Path, file.Hash, idx.configHash); err != nil {
				slog.Warn("failed to cache file hash", "file", file.Path, "error", err)
			}
		}
		return nil
	}

	// Phase 3: Generate embeddings in batches
	idx.updateProgress("embedding", len(filesToProcess), len(filesToProcess), len(allChunks), 0, "")

	chunksWithEmbeddings, err := idx.embedChunks(ctx, allChunks)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("embedding failed: %w", err)
	}

	// Phase 4: Store all data
	idx.updateProgress("storing", len(filesToProcess), len(filesToProcess), len(allChunks), len(allChunks), "")

	if err := idx.store.StoreChunks(chunksWithEmbeddings); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}

	// Mark all files as processed
	for _, file := range filesToProcess {
		if err := idx.store.SetFileHash(file.Path, file.Hash, idx.configHash); err != nil {
			slog.Warn("failed to cache file hash", "file", file.Path, "error", err)
		}
	}

	meta := &types.IndexMetadata{
		SchemaVersion:       1,
		LastUpdated:         time.Now(),
		ConfigHash:          idx.configHash,
		EmbeddingProvider:   idx.embedding.Name(),
		EmbeddingModel:      idx.config.Embedding.Model,
		EmbeddingDimensions: idx.embedding.Dimensions(),
		ChunkingStrategy:    idx.chunker.Name(),
	}

	if err := idx.store.SetMetadata(meta); err != nil {
		return fmt.Errorf("failed to store metadata: %w", err)
	}

	slog.Info("indexing complete",
		"files", len(filesToProcess),
		"chunks", len(allChunks),
		"duration", time.Since(startTime).Round(time.Millisecond),
	)

	return nil
}

// IndexFile chunks, embeds and stores a single file, replacing its
// previous chunks. Used by the watcher for incremental updates.
func (idx *Indexer) IndexFile(ctx context.Context, path string) error {
	file, err := idx.readFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	cachedHash, err := idx.store.GetFileHash(file.Path)
	if err == nil && cachedHash == file.Hash {
		return nil
	}

	if err := idx.store.DeleteChunksByFile(file.Path); err != nil {
		slog.Warn("failed to delete old chunks", "file", file.Path, "error", err)
	}

	chunks, err := idx.chunker.Chunk(file)
	if err != nil {
		return fmt.Errorf("chunking failed for %s: %w", path, err)
	}

	withEmbeddings, err := idx.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}

	if err := idx.store.StoreChunks(withEmbeddings); err != nil {
		return fmt.Errorf("failed to store chunks for %s: %w", path, err)
	}

	return idx.store.SetFileHash(file.Path, file.Hash, idx.configHash)
}

// RemoveFile drops a file's chunks and cached hash from the index.
func (idx *Indexer) RemoveFile(path string) error {
	if err := idx.store.DeleteChunksByFile(path); err != nil {
		return err
	}
	return idx.store.DeleteFileCache(path)
}

// pruneDeletedFiles removes index entries for files no longer present
// in the scan.
func (idx *Indexer) pruneDeletedFiles(files []*types.SourceFile) error {
	cached, err := idx.store.GetAllFileHashes()
	if err != nil {
		return err
	}

	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f.Path] = true
	}

	for path := range cached {
		if !present[path] {
			slog.Debug("pruning deleted file", "path", path)
			if err := idx.RemoveFile(path); err != nil {
				slog.Warn("failed to prune file", "path", path, "error", err)
			}
		}
	}

	return nil
}

// scanFiles scans the project for files to index.
func (idx *Indexer) scanFiles(ctx context.Context) ([]*types.SourceFile, error) {
	// Try to use git ls-files first
	if idx.config.Index.UseGitIgnore {
		gitFiles, err := idx.scanWithGit(ctx)
		if err == nil && len(gitFiles) > 0 {
			return gitFiles, nil
		}
		slog.Debug("git scan failed, falling back to filesystem", "error", err)
	}

	var files []*types.SourceFile
	err := filepath.WalkDir(idx.projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		relPath, _ := filepath.Rel(idx.projectDir, path)

		if d.IsDir() {
			for _, pattern := range idx.config.Index.Exclude {
				if matchGlob(pattern, relPath+"/") {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !idx.shouldIndex(relPath) {
			return nil
		}

		file, err := idx.readFile(path)
		if err != nil {
			slog.Warn("failed to read file", "path", path, "error", err)
			return nil
		}

		files = append(files, file)

		if len(files) >= idx.config.Limits.MaxFiles {
			return fmt.Errorf("max files limit reached: %d", idx.config.Limits.MaxFiles)
		}

		return nil
	})

	return files, err
}

// scanWithGit uses git ls-files to get tracked files.
func (idx *Indexer) scanWithGit(ctx context.Context) ([]*types.SourceFile, error) {
	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = idx.projectDir

	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	var files []*types.SourceFile
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !idx.shouldIndex(line) {
			continue
		}

		fullPath := filepath.Join(idx.projectDir, line)
		file, err := idx.readFile(fullPath)
		if err != nil {
			slog.Warn("failed to read file", "path", line, "error", err)
			continue
		}

		files = append(files, file)

		if len(files) >= idx.config.Limits.MaxFiles {
			break
		}
	}

	return files, nil
}

// shouldIndex applies the include/exclude patterns to a relative path.
func (idx *Indexer) shouldIndex(relPath string) bool {
	included := false
	for _, pattern := range idx.config.Index.Include {
		if matchGlob(pattern, relPath) {
			included = true
			break
		}
	}
	if !included {
		return false
	}

	for _, pattern := range idx.config.Index.Exclude {
		if matchGlob(pattern, relPath) {
			return false
		}
	}
	return true
}

// ShouldIndex reports whether an absolute path is eligible for indexing.
func (idx *Indexer) ShouldIndex(path string) bool {
	relPath, err := filepath.Rel(idx.projectDir, path)
	if err != nil {
		return false
	}
	return idx.shouldIndex(relPath)
}

// readFile reads a file and creates a SourceFile.
func (idx *Indexer) readFile(path string) (*types.SourceFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	maxSize := parseSize(idx.config.Limits.MaxFileSize)
	if info.Size() > maxSize {
		return nil, fmt.Errorf("file too large: %d > %d", info.Size(), maxSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	file := &types.SourceFile{
		Path:     path,
		Content:  content,
		Language: simple.DetectLanguage(path),
	}
	file.Hash = file.ComputeHash()

	return file, nil
}

// filterChangedFiles filters out files that haven't changed. Cached
// hashes are only valid for the config they were indexed under: when
// the chunking or embedding settings differ from the stored metadata,
// every file is treated as changed.
func (idx *Indexer) filterChangedFiles(files []*types.SourceFile) ([]*types.SourceFile, error) {
	meta, err := idx.store.GetMetadata()
	if err != nil {
		return nil, err
	}
	if meta != nil && meta.ConfigHash != idx.configHash {
		slog.Info("config changed, reindexing all files")
		for _, file := range files {
			if err := idx.store.DeleteChunksByFile(file.Path); err != nil {
				slog.Warn("failed to delete old chunks", "file", file.Path, "error", err)
			}
		}
		return files, nil
	}

	var changed []*types.SourceFile

	for _, file := range files {
		cachedHash, err := idx.store.GetFileHash(file.Path)
		if err != nil {
			slog.Warn("failed to get cached hash", "file", file.Path, "error", err)
			changed = append(changed, file)
			continue
		}

		if cachedHash != file.Hash {
			// File has changed, delete old chunks first
			if err := idx.store.DeleteChunksByFile(file.Path); err != nil {
				slog.Warn("failed to delete old chunks", "file", file.Path, "error", err)
			}
			changed = append(changed, file)
		}
	}

	return changed, nil
}

// chunkFilesParallel chunks files in parallel.
func (idx *Indexer) chunkFilesParallel(ctx context.Context, files []*types.SourceFile) ([]*types.Chunk, error) {
	workers := idx.config.Limits.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	type result struct {
		chunks []*types.Chunk
		err    error
	}

	fileCh := make(chan *types.SourceFile, len(files))
	resultCh := make(chan result, len(files))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range fileCh {
				if ctx.Err() != nil {
					resultCh <- result{err: ctx.Err()}
					return
				}

				idx.updateProgress("chunking", 0, 0, 0, 0, file.Path)

				chunks, err := idx.chunker.Chunk(file)
				if err != nil {
					// Log warning but continue with empty chunks
					slog.Warn("chunking failed", "file", file.Path, "error", err)
					chunks = nil
				}

				resultCh <- result{chunks: chunks}
			}
		}()
	}

	for _, file := range files {
		fileCh <- file
	}
	close(fileCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var allChunks []*types.Chunk
	for res := range resultCh {
		if res.err != nil {
			return nil, res.err
		}
		allChunks = append(allChunks, res.chunks...)
	}

	return allChunks, nil
}

// embedChunks generates embeddings for chunks in batches.
func (idx *Indexer) embedChunks(ctx context.Context, chunks []*types.Chunk) ([]*types.ChunkWithEmbedding, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	batchSize := idx.embedding.MaxBatchSize()
	results := make([]*types.ChunkWithEmbedding, len(chunks))

	for i := 0; i < len(chunks); i += batchSize {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batch := chunks[i:end]
		texts := make([]string, len(batch))
		for j, chunk := range batch {
			texts[j] = chunk.Content
		}

		embeddings, err := idx.embedding.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding failed for batch %d: %w", i/batchSize, err)
		}

		for j, chunk := range batch {
			results[i+j] = &types.ChunkWithEmbedding{
				Chunk:     chunk,
				Embedding: embeddings[j],
			}
		}

		idx.updateProgress("embedding", 0, 0, len(chunks), i+len(batch), "")
	}

	return results, nil
}

// updateProgress updates the progress state.
func (idx *Indexer) updateProgress(phase string, totalFiles, processedFiles, totalChunks, processedChunks int, currentFile string) {
	idx.progressMu.Lock()
	defer idx.progressMu.Unlock()

	if phase != "" {
		idx.progress.Phase = phase
	}
	if totalFiles > 0 {
		idx.progress.TotalFiles = totalFiles
	}
	if processedFiles > 0 {
		idx.progress.ProcessedFiles = processedFiles
	}
	if totalChunks > 0 {
		idx.progress.TotalChunks = totalChunks
	}
	if processedChunks > 0 {
		idx.progress.ProcessedChunks = processedChunks
	}
	if currentFile != "" {
		idx.progress.CurrentFile = currentFile
	}

	if idx.onProgress != nil {
		idx.onProgress(idx.progress)
	}
}

// matchGlob matches a path against a glob pattern.
func matchGlob(pattern, path string) bool {
	// Handle ** for recursive matching
	if strings.Contains(pattern, "**") {
		parts := strings.Split(pattern, "**")

		// Patterns like "**/dir/**" match the directory anywhere in the path
		if len(parts) == 3 && parts[0] == "" && parts[2] == "" {
			middle := strings.Trim(parts[1], "/")
			return strings.Contains(path, middle+"/") || strings.Contains(path, "/"+middle)
		}

		if len(parts) == 2 {
			prefix := strings.TrimSuffix(parts[0], "/")
			suffix := strings.TrimPrefix(parts[1], "/")

			if prefix != "" && !strings.HasPrefix(path, prefix) {
				return false
			}

			if suffix == "" {
				return true
			}

			// If suffix contains *, use filepath.Match on the basename or remaining path
			if strings.Contains(suffix, "*") {
				base := filepath.Base(path)
				matched, _ := filepath.Match(suffix, base)
				if matched {
					return true
				}
				remaining := path
				if prefix != "" {
					remaining = strings.TrimPrefix(path, prefix)
					remaining = strings.TrimPrefix(remaining, "/")
				}
				matched, _ = filepath.Match(suffix, remaining)
				return matched
			}

			return strings.HasSuffix(path, suffix) || strings.Contains(path, suffix)
		}
	}

	matched, _ := filepath.Match(pattern, path)
	if matched {
		return true
	}

	base := filepath.Base(path)
	matched, _ = filepath.Match(pattern, base)
	return matched
}

// parseSize parses a size string like "1MB" to bytes.
func parseSize(s string) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSuffix(s, "B")
	}

	var value int64
	_, _ = fmt.Sscanf(s, "%d", &value)

	return value * multiplier
}
