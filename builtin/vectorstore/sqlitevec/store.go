// Package sqlitevec implements VectorStore using sqlite-vec for vector search
// and FTS5 for BM25 full-text search.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spetr/codechunk/pkg/provider"
	"github.com/spetr/codechunk/pkg/types"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// Ensure sqlite-vec Auto() is called exactly once before any db connection
	vecAutoOnce sync.Once
)

// SchemaVersion is incremented when schema changes require reindexing.
const SchemaVersion = 1

// Store implements the VectorStore interface using sqlite-vec.
type Store struct {
	db         *sql.DB
	path       string
	dimensions int
	enableFTS  bool
}

// New creates a new sqlite-vec store.
func New() *Store {
	return &Store{
		enableFTS: true,
	}
}

// Name returns the store name.
func (s *Store) Name() string {
	return "sqlitevec"
}

// Init initializes the store at the given path.
func (s *Store) Init(path string) error {
	s.path = path

	// Register sqlite-vec extension before opening any database connection.
	// This must be called once before sql.Open() to ensure vec_* functions are available.
	vecAutoOnce.Do(func() {
		sqlite_vec.Auto()
	})

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// WAL mode for concurrent reads, busy_timeout to wait for locks instead of failing immediately
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	// Enable sqlite-vec extension
	if _, err := db.Exec("SELECT vec_version()"); err != nil {
		return fmt.Errorf("sqlite-vec extension not available: %w", err)
	}

	if err := s.createSchema(); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	s.loadVectorDimensions()

	// Check FTS health and auto-repair if corrupted
	if err := s.CheckFTSHealth(); err != nil {
		slog.Warn("FTS index unhealthy, rebuilding", "error", err)
		if rebuildErr := s.RebuildFTS(); rebuildErr != nil {
			slog.Error("failed to rebuild FTS index", "error", rebuildErr)
			// Continue anyway - search will work without FTS
		} else {
			slog.Info("FTS index rebuilt successfully")
		}
	}

	return nil
}

// createSchema creates all necessary tables.
func (s *Store) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			file_path TEXT NOT NULL,
			language TEXT NOT NULL,
			content TEXT NOT NULL,
			chunk_type TEXT NOT NULL,
			name TEXT,
			start_byte INTEGER NOT NULL,
			end_byte INTEGER NOT NULL,
			start_line INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			oversized INTEGER NOT NULL DEFAULT 0,
			hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	// Index on file_path for deletion
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_chunks_file_path ON chunks(file_path)`)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS file_cache (
			file_path TEXT PRIMARY KEY,
			file_hash TEXT NOT NULL,
			config_hash TEXT NOT NULL,
			indexed_at DATETIME
		)
	`)
	if err != nil {
		return err
	}

	// FTS5 for BM25 search
	if s.enableFTS {
		_, err = s.db.Exec(`
			CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
				id,
				content,
				name,
				content='chunks',
				content_rowid='rowid',
				tokenize='porter unicode61'
			)
		`)
		if err != nil {
			return err
		}

		// Triggers to keep FTS in sync
		_, err = s.db.Exec(`
			CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
				INSERT INTO chunks_fts(rowid, id, content, name)
				VALUES (new.rowid, new.id, new.content, new.name);
			END
		`)
		if err != nil {
			return err
		}

		_, err = s.db.Exec(`
			CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, id, content, name)
				VALUES('delete', old.rowid, old.id, old.content, old.name);
			END
		`)
		if err != nil {
			return err
		}

		_, err = s.db.Exec(`
			CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, id, content, name)
				VALUES('delete', old.rowid, old.id, old.content, old.name);
				INSERT INTO chunks_fts(rowid, id, content, name)
				VALUES (new.rowid, new.id, new.content, new.name);
			END
		`)
		if err != nil {
			return err
		}
	}

	return nil
}

// loadVectorDimensions recovers the vec0 table's dimension from an
// existing database. Without this, reopening an index would treat the
// first StoreChunks as a dimension change and drop every stored
// embedding.
func (s *Store) loadVectorDimensions() {
	var ddl string
	err := s.db.QueryRow(`
		SELECT sql FROM sqlite_master
		WHERE type='table' AND name='chunk_embeddings'
	`).Scan(&ddl)
	if err != nil {
		return
	}

	if i := strings.Index(ddl, "float["); i >= 0 {
		var dims int
		if _, err := fmt.Sscanf(ddl[i:], "float[%d]", &dims); err == nil {
			s.dimensions = dims
		}
	}
}

// createVectorTable creates the vec0 table for the given dimensions.
func (s *Store) createVectorTable(dimensions int) error {
	if s.dimensions == dimensions {
		return nil // Already created
	}

	// Existing embeddings are unusable when dimensions change.
	if s.dimensions != 0 {
		_, _ = s.db.Exec("DROP TABLE IF EXISTS chunk_embeddings")
	}
	s.dimensions = dimensions

	_, err := s.db.Exec(fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS chunk_embeddings USING vec0(
			chunk_id TEXT PRIMARY KEY,
			embedding float[%d]
		)
	`, dimensions))
	if err != nil {
		return fmt.Errorf("failed to create vector table: %w", err)
	}

	return nil
}

// Close releases resources and closes connections.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StoreChunks stores chunks with their embeddings.
func (s *Store) StoreChunks(chunks []*types.ChunkWithEmbedding) error {
	if len(chunks) == 0 {
		return nil
	}

	// Ensure vector table is created with correct dimensions
	if len(chunks[0].Embedding) > 0 {
		if err := s.createVectorTable(len(chunks[0].Embedding)); err != nil {
			return err
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	chunkStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO chunks
		(id, file_path, language, content, chunk_type, name, start_byte, end_byte, start_line, end_line, oversized, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer chunkStmt.Close()

	embeddingStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO chunk_embeddings (chunk_id, embedding)
		VALUES (?, ?)
	`)
	if err != nil {
		return err
	}
	defer embeddingStmt.Close()

	for _, cwe := range chunks {
		c := cwe.Chunk

		_, err := chunkStmt.Exec(
			c.ID, c.FilePath, c.Language, c.Content,
			string(c.ChunkType), c.Name,
			c.StartByte, c.EndByte, c.StartLine, c.EndLine,
			c.Oversized, c.Hash,
		)
		if err != nil {
			return fmt.Errorf("failed to store chunk %s: %w", c.ID, err)
		}

		if len(cwe.Embedding) > 0 {
			embBytes := floatsToBytes(cwe.Embedding)
			_, err := embeddingStmt.Exec(c.ID, embBytes)
			if err != nil {
				return fmt.Errorf("failed to store embedding for %s: %w", c.ID, err)
			}
		}
	}

	return tx.Commit()
}

const chunkColumns = `id, file_path, language, content, chunk_type, name,
	start_byte, end_byte, start_line, end_line, oversized, hash`

func scanChunk(row interface{ Scan(...any) error }) (*types.Chunk, error) {
	var chunk types.Chunk
	var chunkType string
	var name sql.NullString

	err := row.Scan(
		&chunk.ID, &chunk.FilePath, &chunk.Language, &chunk.Content,
		&chunkType, &name,
		&chunk.StartByte, &chunk.EndByte, &chunk.StartLine, &chunk.EndLine,
		&chunk.Oversized, &chunk.Hash,
	)
	if err != nil {
		return nil, err
	}

	chunk.ChunkType = types.ChunkType(chunkType)
	chunk.Name = name.String
	return &chunk, nil
}

// GetChunk retrieves a chunk by ID. Returns nil when missing.
func (s *Store) GetChunk(id string) (*types.Chunk, error) {
	row := s.db.QueryRow(`SELECT `+chunkColumns+` FROM chunks WHERE id = ?`, id)

	chunk, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// DeleteChunksByFile removes all chunks for a file.
func (s *Store) DeleteChunksByFile(filePath string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Get chunk IDs first
	rows, err := tx.Query("SELECT id FROM chunks WHERE file_path = ?", filePath)
	if err != nil {
		return err
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()

	// Delete embeddings
	for _, id := range ids {
		_, err := tx.Exec("DELETE FROM chunk_embeddings WHERE chunk_id = ?", id)
		if err != nil {
			return err
		}
	}

	// Delete chunks (FTS will be updated by trigger)
	_, err = tx.Exec("DELETE FROM chunks WHERE file_path = ?", filePath)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Search performs hybrid search (BM25 + vector).
func (s *Store) Search(ctx context.Context, req *types.SearchRequest) ([]*types.SearchResult, error) {
	switch req.Mode {
	case types.SearchModeVector:
		return s.vectorSearch(ctx, req)
	case types.SearchModeBM25:
		return s.bm25Search(ctx, req)
	case types.SearchModeHybrid:
		return s.hybridSearch(ctx, req)
	default:
		return s.hybridSearch(ctx, req) // Default to hybrid
	}
}

// filterClauses renders req.Filters as SQL conditions on the chunks table.
func filterClauses(req *types.SearchRequest, args *[]any) []string {
	var clauses []string
	if req.Filters == nil {
		return clauses
	}
	if len(req.Filters.Languages) > 0 {
		placeholders := make([]string, len(req.Filters.Languages))
		for i, lang := range req.Filters.Languages {
			placeholders[i] = "?"
			*args = append(*args, lang)
		}
		clauses = append(clauses, "c.language IN ("+strings.Join(placeholders, ",")+")")
	}
	if len(req.Filters.ChunkTypes) > 0 {
		placeholders := make([]string, len(req.Filters.ChunkTypes))
		for i, ct := range req.Filters.ChunkTypes {
			placeholders[i] = "?"
			*args = append(*args, string(ct))
		}
		clauses = append(clauses, "c.chunk_type IN ("+strings.Join(placeholders, ",")+")")
	}
	return clauses
}

// vectorSearch performs pure vector similarity search.
func (s *Store) vectorSearch(ctx context.Context, req *types.SearchRequest) ([]*types.SearchResult, error) {
	if len(req.QueryVec) == 0 {
		return nil, errors.New("query vector is required for vector search")
	}

	embBytes := floatsToBytes(req.QueryVec)

	query := `
		SELECT
			ce.chunk_id,
			vec_distance_cosine(ce.embedding, ?) as distance,
			c.file_path, c.language, c.content, c.chunk_type, c.name,
			c.start_byte, c.end_byte, c.start_line, c.end_line, c.oversized, c.hash
		FROM chunk_embeddings ce
		JOIN chunks c ON ce.chunk_id = c.id
	`

	args := []any{embBytes}
	if clauses := filterClauses(req, &args); len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY distance ASC LIMIT ?"
	args = append(args, req.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	var results []*types.SearchResult
	for rows.Next() {
		var (
			distance  float64
			chunk     types.Chunk
			chunkType string
			name      sql.NullString
		)

		err := rows.Scan(
			&chunk.ID, &distance,
			&chunk.FilePath, &chunk.Language, &chunk.Content, &chunkType, &name,
			&chunk.StartByte, &chunk.EndByte, &chunk.StartLine, &chunk.EndLine,
			&chunk.Oversized, &chunk.Hash,
		)
		if err != nil {
			return nil, err
		}

		chunk.ChunkType = types.ChunkType(chunkType)
		chunk.Name = name.String

		// cosine distance -> similarity
		score := float32(1.0 - distance)

		results = append(results, &types.SearchResult{
			Chunk:       &chunk,
			Score:       score,
			VectorScore: score,
		})
	}

	return results, rows.Err()
}

// bm25Search performs BM25 full-text search.
func (s *Store) bm25Search(ctx context.Context, req *types.SearchRequest) ([]*types.SearchResult, error) {
	if req.Query == "" {
		return nil, errors.New("query text is required for BM25 search")
	}

	query := `
		SELECT
			c.id, bm25(chunks_fts) as bm25_score,
			c.file_path, c.language, c.content, c.chunk_type, c.name,
			c.start_byte, c.end_byte, c.start_line, c.end_line, c.oversized, c.hash
		FROM chunks_fts fts
		JOIN chunks c ON fts.id = c.id
		WHERE chunks_fts MATCH ?
	`

	args := []any{escapeFTSQuery(req.Query)}
	for _, clause := range filterClauses(req, &args) {
		query += " AND " + clause
	}

	query += " ORDER BY bm25_score LIMIT ?"
	args = append(args, req.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("BM25 search failed: %w", err)
	}
	defer rows.Close()

	var results []*types.SearchResult
	for rows.Next() {
		var (
			bm25Score float64
			chunk     types.Chunk
			chunkType string
			name      sql.NullString
		)

		err := rows.Scan(
			&chunk.ID, &bm25Score,
			&chunk.FilePath, &chunk.Language, &chunk.Content, &chunkType, &name,
			&chunk.StartByte, &chunk.EndByte, &chunk.StartLine, &chunk.EndLine,
			&chunk.Oversized, &chunk.Hash,
		)
		if err != nil {
			return nil, err
		}

		chunk.ChunkType = types.ChunkType(chunkType)
		chunk.Name = name.String

		// BM25 scores are negative (lower is better), normalize to 0-1
		score := float32(1.0 / (1.0 + math.Abs(bm25Score)))

		results = append(results, &types.SearchResult{
			Chunk:     &chunk,
			Score:     score,
			BM25Score: score,
		})
	}

	return results, rows.Err()
}

// hybridSearch combines vector and BM25 search with weighted scoring.
func (s *Store) hybridSearch(ctx context.Context, req *types.SearchRequest) ([]*types.SearchResult, error) {
	// Get more candidates than requested so the merge has overlap to work with.
	candidateLimit := req.Limit * 3

	vectorResults := make(map[string]*types.SearchResult)
	bm25Results := make(map[string]*types.SearchResult)

	if len(req.QueryVec) > 0 {
		vecReq := *req
		vecReq.Mode = types.SearchModeVector
		vecReq.Limit = candidateLimit

		results, err := s.vectorSearch(ctx, &vecReq)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			vectorResults[r.Chunk.ID] = r
		}
	}

	if req.Query != "" {
		bm25Req := *req
		bm25Req.Mode = types.SearchModeBM25
		bm25Req.Limit = candidateLimit

		results, err := s.bm25Search(ctx, &bm25Req)
		if err != nil {
			// BM25 might fail if no FTS index, continue with vector only
			if len(vectorResults) == 0 {
				return nil, err
			}
		}
		for _, r := range results {
			bm25Results[r.Chunk.ID] = r
		}
	}

	vectorWeight := req.VectorWeight
	bm25Weight := req.BM25Weight
	if vectorWeight == 0 && bm25Weight == 0 {
		vectorWeight = 0.7
		bm25Weight = 0.3
	}

	combined := make(map[string]*types.SearchResult)

	for id, vr := range vectorResults {
		result := &types.SearchResult{
			Chunk:       vr.Chunk,
			VectorScore: vr.VectorScore,
		}
		if br, ok := bm25Results[id]; ok {
			result.BM25Score = br.BM25Score
		}
		result.Score = result.VectorScore*vectorWeight + result.BM25Score*bm25Weight
		combined[id] = result
	}

	for id, br := range bm25Results {
		if _, exists := combined[id]; !exists {
			result := &types.SearchResult{
				Chunk:     br.Chunk,
				BM25Score: br.BM25Score,
			}
			result.Score = result.BM25Score * bm25Weight
			combined[id] = result
		}
	}

	results := make([]*types.SearchResult, 0, len(combined))
	for _, r := range combined {
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	if len(results) > req.Limit {
		results = results[:req.Limit]
	}

	return results, nil
}

// GetMetadata returns index metadata, or nil when the index is empty.
func (s *Store) GetMetadata() (*types.IndexMetadata, error) {
	row := s.db.QueryRow("SELECT value FROM metadata WHERE key = 'index_metadata'")

	var jsonData string
	err := row.Scan(&jsonData)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var meta types.IndexMetadata
	if err := json.Unmarshal([]byte(jsonData), &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// SetMetadata stores index metadata.
func (s *Store) SetMetadata(meta *types.IndexMetadata) error {
	jsonData, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO metadata (key, value) VALUES ('index_metadata', ?)
	`, string(jsonData))
	return err
}

// GetStats returns store statistics.
func (s *Store) GetStats() (*types.StoreStats, error) {
	stats := &types.StoreStats{}

	row := s.db.QueryRow("SELECT COUNT(*) FROM chunks")
	if err := row.Scan(&stats.TotalChunks); err != nil {
		return nil, err
	}

	row = s.db.QueryRow("SELECT COUNT(DISTINCT file_path) FROM chunks")
	if err := row.Scan(&stats.TotalFiles); err != nil {
		return nil, err
	}

	if info, err := os.Stat(s.path); err == nil {
		stats.DBSizeBytes = info.Size()
	}

	meta, err := s.GetMetadata()
	if err == nil && meta != nil {
		stats.LastIndexed = meta.LastUpdated
	}

	return stats, nil
}

// GetFileHash returns the cached hash for a file.
func (s *Store) GetFileHash(filePath string) (string, error) {
	row := s.db.QueryRow("SELECT file_hash FROM file_cache WHERE file_path = ?", filePath)

	var hash string
	err := row.Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

// SetFileHash stores the hash for a file.
func (s *Store) SetFileHash(filePath, hash, configHash string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO file_cache (file_path, file_hash, config_hash, indexed_at)
		VALUES (?, ?, ?, ?)
	`, filePath, hash, configHash, time.Now())
	return err
}

// GetAllFileHashes returns all cached file hashes.
func (s *Store) GetAllFileHashes() (map[string]string, error) {
	rows, err := s.db.Query("SELECT file_path, file_hash FROM file_cache")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		hashes[path] = hash
	}

	return hashes, rows.Err()
}

// DeleteFileCache removes file from cache.
func (s *Store) DeleteFileCache(filePath string) error {
	_, err := s.db.Exec("DELETE FROM file_cache WHERE file_path = ?", filePath)
	return err
}

// Clear removes all indexed data but keeps the schema.
func (s *Store) Clear() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM chunks",
		"DELETE FROM file_cache",
		"DELETE FROM metadata",
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("DELETE FROM chunk_embeddings"); err != nil {
		// Vector table may not exist before the first StoreChunks.
		if !strings.Contains(err.Error(), "no such table") {
			return err
		}
	}

	return tx.Commit()
}

// Helper functions

// floatsToBytes converts float32 slice to bytes for sqlite-vec.
func floatsToBytes(floats []float32) []byte {
	bytes := make([]byte, len(floats)*4)
	for i, f := range floats {
		bits := math.Float32bits(f)
		bytes[i*4] = byte(bits)
		bytes[i*4+1] = byte(bits >> 8)
		bytes[i*4+2] = byte(bits >> 16)
		bytes[i*4+3] = byte(bits >> 24)
	}
	return bytes
}

// escapeFTSQuery escapes special characters in FTS5 query.
func escapeFTSQuery(query string) string {
	special := []string{"*", "\"", "(", ")", ":", "-", "^", "~"}
	result := query
	for _, s := range special {
		result = strings.ReplaceAll(result, s, "\""+s+"\"")
	}
	return result
}

// CheckFTSHealth verifies that the FTS index is in sync with the chunks table.
// Returns nil if healthy, error describing the issue otherwise.
func (s *Store) CheckFTSHealth() error {
	if !s.enableFTS {
		return nil
	}

	var exists int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='chunks_fts'
	`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check FTS table existence: %w", err)
	}
	if exists == 0 {
		return nil // FTS not created yet, will be created on first use
	}

	// A query exercising the FTS JOIN fails if there are orphaned FTS entries.
	_, err = s.db.Exec(`
		SELECT c.id FROM chunks_fts fts
		JOIN chunks c ON fts.rowid = c.rowid
		LIMIT 1
	`)
	if err != nil {
		return fmt.Errorf("FTS index corrupted: %w", err)
	}

	return nil
}

// RebuildFTS rebuilds the FTS index from the chunks table.
// This fixes corruption issues where FTS has references to deleted rows.
func (s *Store) RebuildFTS() error {
	if !s.enableFTS {
		return nil
	}

	_, err := s.db.Exec(`INSERT INTO chunks_fts(chunks_fts) VALUES('rebuild')`)
	if err != nil {
		return fmt.Errorf("failed to rebuild FTS index: %w", err)
	}

	return nil
}

// Ensure Store implements VectorStore interface
var _ provider.VectorStore = (*Store)(nil)
