// Package builtin registers all built-in providers with the default registry.
package builtin

import (
	simpleChunker "github.com/spetr/codechunk/builtin/chunking/simple"
	tsChunker "github.com/spetr/codechunk/builtin/chunking/treesitter"
	ollamaEmbed "github.com/spetr/codechunk/builtin/embedding/ollama"
	openaiEmbed "github.com/spetr/codechunk/builtin/embedding/openai"
	"github.com/spetr/codechunk/builtin/vectorstore/sqlitevec"
	"github.com/spetr/codechunk/pkg/provider"
)

func init() {
	// Register embedding providers
	provider.RegisterEmbedding("ollama", func(cfg provider.EmbeddingConfig) (provider.EmbeddingProvider, error) {
		return ollamaEmbed.New(ollamaEmbed.Config{
			Endpoint:  cfg.Endpoint,
			Model:     cfg.Model,
			BatchSize: cfg.BatchSize,
		}), nil
	})

	provider.RegisterEmbedding("openai", func(cfg provider.EmbeddingConfig) (provider.EmbeddingProvider, error) {
		return openaiEmbed.New(openaiEmbed.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BatchSize: cfg.BatchSize,
		}), nil
	})

	// Register chunking strategies
	provider.RegisterChunking("treesitter", func(cfg provider.ChunkingConfig) (provider.ChunkingStrategy, error) {
		return tsChunker.New(tsChunker.Config{
			MaxChunkSize: cfg.MaxChunkSize,
			Measure:      cfg.Measure,
		}), nil
	})

	provider.RegisterChunking("simple", func(cfg provider.ChunkingConfig) (provider.ChunkingStrategy, error) {
		return simpleChunker.New(simpleChunker.Config{
			MaxChunkSize: cfg.MaxChunkSize,
		}), nil
	})

	// Register vector stores
	provider.RegisterVectorStore("sqlitevec", func() (provider.VectorStore, error) {
		return sqlitevec.New(), nil
	})
}
