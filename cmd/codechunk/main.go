// codechunk splits source code into structure-aware chunks and serves
// semantic search over the result.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/spetr/codechunk/builtin"
	"github.com/spetr/codechunk/builtin/chunking/simple"
	"github.com/spetr/codechunk/internal/config"
	"github.com/spetr/codechunk/internal/index"
	"github.com/spetr/codechunk/internal/mcp"
	"github.com/spetr/codechunk/internal/search"
	"github.com/spetr/codechunk/pkg/provider"
	"github.com/spetr/codechunk/pkg/types"
)

var (
	version   = "0.1.0"
	logLevel  string
	logFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "codechunk",
	Short: "Structure-aware code chunking and semantic search",
	Long: `codechunk splits source files into chunks along their syntax tree
and indexes them for semantic search (vector embeddings + BM25).

It supports:
- Multiple embedding providers (Ollama, OpenAI)
- Tree-sitter based chunking with a line-based fallback
- Hybrid search over a local sqlite-vec index
- An MCP server exposing chunking and search as tools`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("codechunk %s\n", version)
		fmt.Printf("Go version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

var chunkCmd = &cobra.Command{
	Use:   "chunk <file>",
	Short: "Chunk a single file and print the result",
	Long:  `Split a source file into structure-aware chunks and print them without touching the index.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		runChunk(args[0], jsonOutput)
	},
}

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a codebase",
	Long:  `Index a codebase for semantic search. If no path is provided, indexes the current directory.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")
		runIndex(path, force)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the indexed codebase",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		mode, _ := cmd.Flags().GetString("mode")
		runSearch(args[0], limit, mode)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		runStatus(verbose)
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the index",
	Run: func(cmd *cobra.Command, args []string) {
		runClear()
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch for file changes and re-index automatically",
	Long:  `Watch for file changes and automatically re-index modified files. If no path is provided, watches the current directory.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		debounce, _ := cmd.Flags().GetInt("debounce")
		runWatch(path, debounce)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration",
	Run: func(cmd *cobra.Command, args []string) {
		runConfigInit()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		runConfigShow()
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Run: func(cmd *cobra.Command, args []string) {
		runConfigValidate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	chunkCmd.Flags().Bool("json", false, "Output chunks as JSON")
	indexCmd.Flags().Bool("force", false, "Force reindex all files")
	searchCmd.Flags().Int("limit", 10, "Maximum results")
	searchCmd.Flags().String("mode", "hybrid", "Search mode: vector, bm25, hybrid")
	statusCmd.Flags().Bool("verbose", false, "Show configuration details")
	watchCmd.Flags().Int("debounce", 500, "Debounce time in milliseconds")

	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd)

	rootCmd.AddCommand(
		versionCmd,
		chunkCmd,
		indexCmd,
		searchCmd,
		statusCmd,
		clearCmd,
		watchCmd,
		serveCmd,
		configCmd,
	)
}

func setupLogging() {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// createProviders creates all providers from the registry based on config.
func createProviders(cfg *config.Config) (provider.VectorStore, provider.EmbeddingProvider, provider.ChunkingStrategy, error) {
	store, err := provider.DefaultRegistry.CreateVectorStore(cfg.VectorStore.Provider)
	if err != nil {
		return nil, nil, nil, err
	}

	embedding, err := provider.DefaultRegistry.CreateEmbedding(cfg.Embedding.Provider, provider.EmbeddingConfig{
		Model:     cfg.Embedding.Model,
		Endpoint:  cfg.Embedding.Endpoint,
		APIKey:    cfg.Embedding.APIKey,
		BatchSize: cfg.Embedding.BatchSize,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	chunker, err := provider.DefaultRegistry.CreateChunking(cfg.Chunking.Strategy, provider.ChunkingConfig{
		Strategy:     cfg.Chunking.Strategy,
		MaxChunkSize: cfg.Chunking.MaxChunkSize,
		Measure:      cfg.Chunking.Measure,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	return store, embedding, chunker, nil
}

func runChunk(path string, jsonOutput bool) {
	absPath, _ := filepath.Abs(path)
	cwd, _ := os.Getwd()

	cfg, _, err := config.Load(cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	_, _, chunker, err := createProviders(cfg)
	if err != nil {
		slog.Error("failed to create providers", "error", err)
		os.Exit(1)
	}
	defer chunker.Close()

	content, err := os.ReadFile(absPath)
	if err != nil {
		slog.Error("failed to read file", "path", absPath, "error", err)
		os.Exit(1)
	}

	file := &types.SourceFile{
		Path:     absPath,
		Content:  content,
		Language: simple.DetectLanguage(absPath),
	}
	file.Hash = file.ComputeHash()

	chunks, err := chunker.Chunk(file)
	if err != nil {
		slog.Error("chunking failed", "error", err)
		os.Exit(1)
	}

	if jsonOutput {
		output, _ := json.MarshalIndent(chunks, "", "  ")
		fmt.Println(string(output))
		return
	}

	fmt.Printf("%s (%s): %d chunks\n", absPath, file.Language, len(chunks))
	for i, c := range chunks {
		marker := ""
		if c.Oversized {
			marker = " [oversized]"
		}
		fmt.Printf("\n=== Chunk %d: %s %s lines %d-%d bytes %d-%d%s ===\n",
			i+1, c.ChunkType, c.Name, c.StartLine, c.EndLine, c.StartByte, c.EndByte, marker)
		fmt.Println(c.Content)
	}
}

func runIndex(path string, force bool) {
	absPath, _ := filepath.Abs(path)
	slog.Info("indexing", "path", absPath, "force", force)

	cfg, warnings, err := config.Load(absPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	for _, w := range warnings {
		slog.Warn(w)
	}

	slog.Info("loaded config",
		"embedding", cfg.Embedding.Provider+"/"+cfg.Embedding.Model,
		"chunking", cfg.Chunking.Strategy,
	)

	store, embedding, chunker, err := createProviders(cfg)
	if err != nil {
		slog.Error("failed to create providers", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	interrupted := false
	go func() {
		sig := <-sigChan
		slog.Info("received interrupt signal, stopping indexing...", "signal", sig)
		interrupted = true
		cancel()
	}()

	defer func() {
		signal.Stop(sigChan)
		store.Close()
		embedding.Close()
		chunker.Close()
		if interrupted {
			fmt.Println("\nIndexing interrupted. Progress saved - run again to resume.")
		}
	}()

	dbPath := config.IndexDBPath(absPath)
	if err := store.Init(dbPath); err != nil {
		slog.Error("failed to init store", "error", err)
		os.Exit(1)
	}

	indexer := index.New(index.Config{
		ProjectDir: absPath,
		Config:     cfg,
		Store:      store,
		Embedding:  embedding,
		Chunker:    chunker,
		OnProgress: func(p types.IndexProgress) {
			if p.Phase != "" {
				fmt.Printf("\r[%s] Files: %d/%d, Chunks: %d/%d",
					p.Phase, p.ProcessedFiles, p.TotalFiles,
					p.ProcessedChunks, p.TotalChunks)
			}
		},
	})

	if err := indexer.Index(ctx, force); err != nil {
		if ctx.Err() != nil {
			slog.Info("indexing stopped by user")
		} else {
			slog.Error("indexing failed", "error", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("\nIndexing complete!")

	stats, _ := store.GetStats()
	if stats != nil {
		fmt.Printf("Files: %d, Chunks: %d\n", stats.TotalFiles, stats.TotalChunks)
	}
}

func runSearch(query string, limit int, mode string) {
	cwd, _ := os.Getwd()
	slog.Debug("searching", "query", query, "limit", limit, "mode", mode)

	cfg, _, err := config.Load(cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	store, embedding, chunker, err := createProviders(cfg)
	if err != nil {
		slog.Error("failed to create providers", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	defer embedding.Close()
	defer chunker.Close()

	dbPath := config.IndexDBPath(cwd)
	if err := store.Init(dbPath); err != nil {
		slog.Error("failed to init store", "error", err)
		os.Exit(1)
	}

	engine := search.New(search.Config{
		Store:     store,
		Embedding: embedding,
	})

	searchMode := types.SearchModeHybrid
	switch mode {
	case "vector":
		searchMode = types.SearchModeVector
	case "bm25":
		searchMode = types.SearchModeBM25
	}

	results, err := engine.Search(context.Background(), &types.SearchRequest{
		Query:        query,
		Limit:        limit,
		Mode:         searchMode,
		VectorWeight: cfg.Search.VectorWeight,
		BM25Weight:   cfg.Search.BM25Weight,
	})
	if err != nil {
		slog.Error("search failed", "error", err)
		os.Exit(1)
	}

	if len(results) == 0 {
		fmt.Println("No results found")
		return
	}

	for i, r := range results {
		fmt.Printf("\n=== Result %d (score: %.3f) ===\n", i+1, r.Score)
		fmt.Printf("File: %s:%d-%d\n", r.Chunk.FilePath, r.Chunk.StartLine, r.Chunk.EndLine)
		if r.Chunk.Name != "" {
			fmt.Printf("Name: %s (%s)\n", r.Chunk.Name, r.Chunk.ChunkType)
		}
		fmt.Printf("\n%s\n", r.Chunk.Content)
	}
}

func runStatus(verbose bool) {
	cwd, _ := os.Getwd()

	cfg, _, err := config.Load(cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	store, err := provider.DefaultRegistry.CreateVectorStore(cfg.VectorStore.Provider)
	if err != nil {
		slog.Error("failed to create store", "error", err)
		os.Exit(1)
	}

	dbPath := config.IndexDBPath(cwd)
	if err := store.Init(dbPath); err != nil {
		fmt.Println("No index found. Run 'codechunk index' to create one.")
		return
	}
	defer store.Close()

	stats, err := store.GetStats()
	if err != nil {
		slog.Error("failed to get stats", "error", err)
		os.Exit(1)
	}

	meta, _ := store.GetMetadata()

	fmt.Println("=== Index Status ===")
	fmt.Printf("Indexed files: %d\n", stats.TotalFiles)
	fmt.Printf("Total chunks:  %d\n", stats.TotalChunks)
	fmt.Printf("Database size: %s\n", formatBytes(stats.DBSizeBytes))

	if !stats.LastIndexed.IsZero() {
		fmt.Printf("Last indexed:  %s\n", stats.LastIndexed.Format("2006-01-02 15:04:05"))
	}

	if verbose && meta != nil {
		fmt.Println("\n=== Index Configuration ===")
		fmt.Printf("Embedding:  %s/%s\n", meta.EmbeddingProvider, meta.EmbeddingModel)
		fmt.Printf("Dimensions: %d\n", meta.EmbeddingDimensions)
		fmt.Printf("Chunking:   %s\n", meta.ChunkingStrategy)
	}

	if verbose {
		fmt.Println("\n=== Current Config ===")
		fmt.Printf("Embedding:  %s/%s\n", cfg.Embedding.Provider, cfg.Embedding.Model)
		fmt.Printf("Chunking:   %s (%d %s)\n", cfg.Chunking.Strategy, cfg.Chunking.MaxChunkSize, cfg.Chunking.Measure)
	}
}

func runClear() {
	cwd, _ := os.Getwd()

	cfg, _, err := config.Load(cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	store, err := provider.DefaultRegistry.CreateVectorStore(cfg.VectorStore.Provider)
	if err != nil {
		slog.Error("failed to create store", "error", err)
		os.Exit(1)
	}

	dbPath := config.IndexDBPath(cwd)
	if err := store.Init(dbPath); err != nil {
		fmt.Println("No index found.")
		return
	}
	defer store.Close()

	if err := store.Clear(); err != nil {
		slog.Error("failed to clear index", "error", err)
		os.Exit(1)
	}

	fmt.Println("Index cleared")
}

func runWatch(path string, debounceMs int) {
	absPath, _ := filepath.Abs(path)
	slog.Info("watching for changes", "path", absPath, "debounce_ms", debounceMs)

	cfg, warnings, err := config.Load(absPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	for _, w := range warnings {
		slog.Warn(w)
	}

	store, embedding, chunker, err := createProviders(cfg)
	if err != nil {
		slog.Error("failed to create providers", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	defer func() {
		signal.Stop(sigChan)
		store.Close()
		embedding.Close()
		chunker.Close()
	}()

	dbPath := config.IndexDBPath(absPath)
	if err := store.Init(dbPath); err != nil {
		slog.Error("failed to init store", "error", err)
		os.Exit(1)
	}

	indexer := index.New(index.Config{
		ProjectDir: absPath,
		Config:     cfg,
		Store:      store,
		Embedding:  embedding,
		Chunker:    chunker,
	})

	watcher, err := index.NewWatcher(index.WatcherConfig{
		Indexer:      indexer,
		DebounceTime: time.Duration(debounceMs) * time.Millisecond,
	})
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}
	defer watcher.Close()

	fmt.Printf("Watching %s for changes (press Ctrl+C to stop)\n", absPath)

	if err := watcher.Watch(ctx); err != nil {
		if ctx.Err() != nil {
			slog.Info("watcher stopped")
		} else {
			slog.Error("watcher error", "error", err)
			os.Exit(1)
		}
	}
}

func runServe() {
	cwd, _ := os.Getwd()
	slog.Info("starting MCP server")

	cfg, warnings, err := config.Load(cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	for _, w := range warnings {
		slog.Warn(w)
	}

	store, embedding, chunker, err := createProviders(cfg)
	if err != nil {
		slog.Error("failed to create providers", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		slog.Info("closing providers...")
		if err := store.Close(); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
		if err := embedding.Close(); err != nil {
			slog.Warn("failed to close embedding", "error", err)
		}
		if err := chunker.Close(); err != nil {
			slog.Warn("failed to close chunker", "error", err)
		}
		slog.Info("shutdown complete")
		os.Exit(0)
	}()

	defer func() {
		signal.Stop(sigChan)
		store.Close()
		embedding.Close()
		chunker.Close()
	}()

	dbPath := config.IndexDBPath(cwd)
	if err := store.Init(dbPath); err != nil {
		slog.Error("failed to init store", "error", err)
		os.Exit(1)
	}

	server, err := mcp.New(mcp.Config{
		ProjectDir: cwd,
		Config:     cfg,
		Store:      store,
		Embedding:  embedding,
		Chunker:    chunker,
	})
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	slog.Info("MCP server running (press Ctrl+C to stop)")
	if err := server.ServeStdio(); err != nil {
		if ctx.Err() != nil {
			slog.Info("server stopped")
		} else {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

func runConfigInit() {
	cwd, _ := os.Getwd()
	cfg := config.DefaultConfig()

	if err := config.Save(cwd, cfg); err != nil {
		slog.Error("failed to save config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Created config at %s\n", config.ConfigPath(cwd))
}

func runConfigShow() {
	cwd, _ := os.Getwd()

	cfg, warnings, err := config.Load(cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	for _, w := range warnings {
		slog.Warn(w)
	}

	output, _ := json.MarshalIndent(cfg, "", "  ")
	fmt.Println(string(output))
}

func runConfigValidate() {
	cwd, _ := os.Getwd()

	cfg, warnings, err := config.Load(cwd)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	for _, w := range warnings {
		fmt.Printf("Warning: %s\n", w)
	}

	errs := config.Validate(cfg)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Printf("Error: %v\n", e)
		}
		os.Exit(1)
	}

	fmt.Println("Configuration is valid")
}

// formatBytes formats bytes to human readable string.
func formatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
