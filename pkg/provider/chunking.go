// Package provider defines interfaces for pluggable components.
package provider

import (
	"github.com/spetr/codechunk/pkg/types"
)

// ChunkingStrategy splits source files into chunks.
type ChunkingStrategy interface {
	// Name returns the strategy name (e.g., "treesitter", "simple").
	Name() string

	// Chunk splits a source file into chunks.
	Chunk(file *types.SourceFile) ([]*types.Chunk, error)

	// SupportedLanguages returns languages this strategy supports.
	// Empty slice means all languages (for simple chunking).
	SupportedLanguages() []string

	// SupportsLanguage checks if a language is supported.
	SupportsLanguage(lang string) bool

	// Close releases any resources.
	Close() error
}

// ChunkingConfig contains configuration for chunking strategies.
type ChunkingConfig struct {
	Strategy     string // "treesitter", "simple"
	MaxChunkSize int    // Max tokens per chunk
	Measure      string // "tokens", "bytes"
}
