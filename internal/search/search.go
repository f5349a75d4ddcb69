// Package search implements vector, BM25 and hybrid search over the store.
package search

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spetr/codechunk/pkg/provider"
	"github.com/spetr/codechunk/pkg/types"
)

// Engine handles search operations.
type Engine struct {
	store     provider.VectorStore
	embedding provider.EmbeddingProvider
}

// Config contains search engine configuration.
type Config struct {
	Store     provider.VectorStore
	Embedding provider.EmbeddingProvider
}

// New creates a new search engine.
func New(cfg Config) *Engine {
	return &Engine{
		store:     cfg.Store,
		embedding: cfg.Embedding,
	}
}

// Search performs a search with the given request.
func (e *Engine) Search(ctx context.Context, req *types.SearchRequest) ([]*types.SearchResult, error) {
	// Set defaults
	if req.Limit == 0 {
		req.Limit = 10
	}
	if req.Mode == "" {
		req.Mode = types.SearchModeHybrid
	}
	if req.VectorWeight == 0 && req.BM25Weight == 0 {
		req.VectorWeight = 0.7
		req.BM25Weight = 0.3
	}

	// Generate query embedding for vector search
	if req.Mode == types.SearchModeVector || req.Mode == types.SearchModeHybrid {
		if len(req.QueryVec) == 0 && req.Query != "" {
			embeddings, err := e.embedding.Embed(ctx, []string{req.Query})
			if err != nil {
				return nil, fmt.Errorf("failed to embed query: %w", err)
			}
			req.QueryVec = embeddings[0]
		}
	}

	results, err := e.store.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	if len(results) > req.Limit {
		results = results[:req.Limit]
	}

	if req.IncludeContext {
		for _, result := range results {
			e.addContext(result, req.ContextLines)
		}
	}

	return results, nil
}

// addContext adds surrounding lines to a search result.
func (e *Engine) addContext(result *types.SearchResult, contextLines int) {
	if contextLines == 0 {
		contextLines = 5
	}

	file, err := os.Open(result.Chunk.FilePath)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var allLines []string
	for scanner.Scan() {
		allLines = append(allLines, scanner.Text())
	}

	startLine := result.Chunk.StartLine
	endLine := result.Chunk.EndLine

	contextStart := startLine - contextLines - 1
	if contextStart < 0 {
		contextStart = 0
	}
	if contextStart < startLine-1 && startLine-1 <= len(allLines) {
		result.ContextBefore = strings.Join(allLines[contextStart:startLine-1], "\n")
	}

	contextEnd := endLine + contextLines
	if contextEnd > len(allLines) {
		contextEnd = len(allLines)
	}
	if endLine < contextEnd {
		result.ContextAfter = strings.Join(allLines[endLine:contextEnd], "\n")
	}
}
