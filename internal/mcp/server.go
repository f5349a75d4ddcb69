// Package mcp implements the MCP server for code chunking and search.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spetr/codechunk/builtin/chunking/simple"
	"github.com/spetr/codechunk/internal/config"
	"github.com/spetr/codechunk/internal/index"
	"github.com/spetr/codechunk/internal/search"
	"github.com/spetr/codechunk/pkg/provider"
	"github.com/spetr/codechunk/pkg/types"
)

// Server implements the MCP server.
type Server struct {
	mcpServer  *server.MCPServer
	projectDir string
	config     *config.Config
	store      provider.VectorStore
	embedding  provider.EmbeddingProvider
	chunker    provider.ChunkingStrategy
	search     *search.Engine
}

// Config contains server configuration.
type Config struct {
	ProjectDir string
	Config     *config.Config
	Store      provider.VectorStore
	Embedding  provider.EmbeddingProvider
	Chunker    provider.ChunkingStrategy
}

// New creates a new MCP server.
func New(cfg Config) (*Server, error) {
	s := &Server{
		projectDir: cfg.ProjectDir,
		config:     cfg.Config,
		store:      cfg.Store,
		embedding:  cfg.Embedding,
		chunker:    cfg.Chunker,
	}

	s.search = search.New(search.Config{
		Store:     cfg.Store,
		Embedding: cfg.Embedding,
	})

	mcpServer := server.NewMCPServer(
		"codechunk",
		"0.1.0",
		server.WithLogging(),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s, nil
}

// registerTools registers all MCP tools.
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	// chunk_file - Chunk a single file without indexing
	mcpServer.AddTool(mcp.NewTool("chunk_file",
		mcp.WithDescription("Split a source file into structure-aware chunks without indexing it"),
		mcp.WithString("file", mcp.Required(), mcp.Description("File path (relative to project root or absolute)")),
	), s.handleChunkFile)

	// index_codebase - Index the current project
	mcpServer.AddTool(mcp.NewTool("index_codebase",
		mcp.WithDescription("Index the codebase for semantic search"),
		mcp.WithBoolean("force", mcp.Description("Force reindex all files")),
	), s.handleIndexCodebase)

	// search_code - Semantic code search
	mcpServer.AddTool(mcp.NewTool("search_code",
		mcp.WithDescription("Search code using semantic similarity"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 10)")),
		mcp.WithString("mode", mcp.Description("Search mode: vector, bm25, hybrid (default)")),
		mcp.WithBoolean("include_context", mcp.Description("Include surrounding lines")),
		mcp.WithArray("languages", mcp.Description("Filter by languages")),
	), s.handleSearchCode)

	// get_chunk - Get a specific chunk with context
	mcpServer.AddTool(mcp.NewTool("get_chunk",
		mcp.WithDescription("Get a specific code chunk by ID with context"),
		mcp.WithString("chunk_id", mcp.Required(), mcp.Description("Chunk ID")),
		mcp.WithNumber("context_lines", mcp.Description("Lines of context (default 5)")),
	), s.handleGetChunk)

	// get_status - Get index status
	mcpServer.AddTool(mcp.NewTool("get_status",
		mcp.WithDescription("Get index status and statistics"),
	), s.handleGetStatus)

	// clear_index - Clear the index
	mcpServer.AddTool(mcp.NewTool("clear_index",
		mcp.WithDescription("Clear the search index"),
	), s.handleClearIndex)
}

// Tool handlers

func (s *Server) handleChunkFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("file", "")
	if path == "" {
		return mcp.NewToolResultError("file is required"), nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.projectDir, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read file: %v", err)), nil
	}

	file := &types.SourceFile{
		Path:     path,
		Content:  content,
		Language: simple.DetectLanguage(path),
	}
	file.Hash = file.ComputeHash()

	chunks, err := s.chunker.Chunk(file)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("chunking failed: %v", err)), nil
	}

	formatted := make([]map[string]any, 0, len(chunks))
	for _, c := range chunks {
		formatted = append(formatted, map[string]any{
			"id":         c.ID,
			"type":       c.ChunkType,
			"name":       c.Name,
			"start_byte": c.StartByte,
			"end_byte":   c.EndByte,
			"start_line": c.StartLine,
			"end_line":   c.EndLine,
			"oversized":  c.Oversized,
			"content":    c.Content,
		})
	}

	result := map[string]any{
		"file":     path,
		"language": file.Language,
		"chunks":   formatted,
	}

	jsonResult, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonResult)), nil
}

func (s *Server) handleIndexCodebase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	force := req.GetBool("force", false)

	slog.Info("starting indexing", "force", force)

	indexer := index.New(index.Config{
		ProjectDir: s.projectDir,
		Config:     s.config,
		Store:      s.store,
		Embedding:  s.embedding,
		Chunker:    s.chunker,
		OnProgress: func(p types.IndexProgress) {
			slog.Debug("progress", "phase", p.Phase, "files", p.ProcessedFiles, "chunks", p.ProcessedChunks)
		},
	})

	if err := indexer.Index(ctx, force); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	stats, err := s.store.GetStats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	result := map[string]any{
		"success": true,
		"files":   stats.TotalFiles,
		"chunks":  stats.TotalChunks,
		"db_size": formatBytes(stats.DBSizeBytes),
	}

	jsonResult, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonResult)), nil
}

func (s *Server) handleSearchCode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	limit := req.GetInt("limit", 10)
	modeStr := req.GetString("mode", "hybrid")
	includeContext := req.GetBool("include_context", false)
	languages := req.GetStringSlice("languages", nil)

	mode := types.SearchModeHybrid
	switch modeStr {
	case "vector":
		mode = types.SearchModeVector
	case "bm25":
		mode = types.SearchModeBM25
	}

	searchReq := &types.SearchRequest{
		Query:          query,
		Limit:          limit,
		Mode:           mode,
		VectorWeight:   s.config.Search.VectorWeight,
		BM25Weight:     s.config.Search.BM25Weight,
		IncludeContext: includeContext,
		ContextLines:   5,
	}

	if len(languages) > 0 {
		searchReq.Filters = &types.SearchFilters{
			Languages: languages,
		}
	}

	results, err := s.search.Search(ctx, searchReq)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	var formatted []map[string]any
	for _, r := range results {
		entry := map[string]any{
			"id":         r.Chunk.ID,
			"file":       r.Chunk.FilePath,
			"start_line": r.Chunk.StartLine,
			"end_line":   r.Chunk.EndLine,
			"language":   r.Chunk.Language,
			"type":       r.Chunk.ChunkType,
			"name":       r.Chunk.Name,
			"score":      r.Score,
			"content":    r.Chunk.Content,
		}

		if includeContext {
			if r.ContextBefore != "" {
				entry["context_before"] = r.ContextBefore
			}
			if r.ContextAfter != "" {
				entry["context_after"] = r.ContextAfter
			}
		}

		formatted = append(formatted, entry)
	}

	jsonResult, _ := json.MarshalIndent(formatted, "", "  ")
	return mcp.NewToolResultText(string(jsonResult)), nil
}

func (s *Server) handleGetChunk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chunkID := req.GetString("chunk_id", "")
	if chunkID == "" {
		return mcp.NewToolResultError("chunk_id is required"), nil
	}

	contextLines := req.GetInt("context_lines", 5)

	chunk, err := s.store.GetChunk(chunkID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get chunk: %v", err)), nil
	}

	if chunk == nil {
		return mcp.NewToolResultError("chunk not found"), nil
	}

	contextBefore, contextAfter := getChunkContext(chunk.FilePath, chunk.StartLine, chunk.EndLine, contextLines)

	result := map[string]any{
		"id":             chunk.ID,
		"file":           chunk.FilePath,
		"start_byte":     chunk.StartByte,
		"end_byte":       chunk.EndByte,
		"start_line":     chunk.StartLine,
		"end_line":       chunk.EndLine,
		"language":       chunk.Language,
		"type":           chunk.ChunkType,
		"name":           chunk.Name,
		"oversized":      chunk.Oversized,
		"content":        chunk.Content,
		"context_before": contextBefore,
		"context_after":  contextAfter,
	}

	jsonResult, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonResult)), nil
}

func (s *Server) handleGetStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.store.GetStats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	meta, _ := s.store.GetMetadata()

	result := map[string]any{
		"indexed_files": stats.TotalFiles,
		"total_chunks":  stats.TotalChunks,
		"db_size":       formatBytes(stats.DBSizeBytes),
	}
	if !stats.LastIndexed.IsZero() {
		result["last_indexed"] = stats.LastIndexed.Format("2006-01-02 15:04:05")
	}

	if meta != nil {
		result["embedding_provider"] = meta.EmbeddingProvider
		result["embedding_model"] = meta.EmbeddingModel
		result["chunking_strategy"] = meta.ChunkingStrategy
	}

	jsonResult, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonResult)), nil
}

func (s *Server) handleClearIndex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.store.Clear(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to clear index: %v", err)), nil
	}
	return mcp.NewToolResultText(`{"success": true, "message": "Index cleared"}`), nil
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
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

// getChunkContext reads context lines before and after the chunk from the source file.
func getChunkContext(filePath string, startLine, endLine, contextLines int) (before, after string) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", ""
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return "", ""
	}

	beforeStart := startLine - 1 - contextLines
	if beforeStart < 0 {
		beforeStart = 0
	}
	beforeEnd := startLine - 1
	if beforeEnd > len(lines) {
		beforeEnd = len(lines)
	}
	if beforeStart < beforeEnd {
		before = strings.Join(lines[beforeStart:beforeEnd], "\n")
	}

	afterStart := endLine
	if afterStart < 0 {
		afterStart = 0
	}
	afterEnd := endLine + contextLines
	if afterEnd > len(lines) {
		afterEnd = len(lines)
	}
	if afterStart < afterEnd {
		after = strings.Join(lines[afterStart:afterEnd], "\n")
	}

	return before, after
}
