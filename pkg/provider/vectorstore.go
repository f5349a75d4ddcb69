package provider

import (
	"context"

	"github.com/spetr/codechunk/pkg/types"
)

// VectorStore stores chunks with their embeddings and serves search.
type VectorStore interface {
	// Name returns the store name.
	Name() string

	// Init opens or creates the store at the given path.
	Init(path string) error

	// StoreChunks stores chunks with their embeddings.
	StoreChunks(chunks []*types.ChunkWithEmbedding) error

	// GetChunk retrieves a chunk by ID. Returns nil when missing.
	GetChunk(id string) (*types.Chunk, error)

	// DeleteChunksByFile removes all chunks for a file.
	DeleteChunksByFile(filePath string) error

	// Search performs vector, BM25 or hybrid search.
	Search(ctx context.Context, req *types.SearchRequest) ([]*types.SearchResult, error)

	// GetFileHash returns the cached content hash for a file.
	GetFileHash(filePath string) (string, error)

	// SetFileHash caches the content hash for a file.
	SetFileHash(filePath, hash, configHash string) error

	// GetAllFileHashes returns every cached file hash, keyed by path.
	GetAllFileHashes() (map[string]string, error)

	// DeleteFileCache drops the cached hash for a file.
	DeleteFileCache(filePath string) error

	// GetMetadata returns index metadata, or nil when the index is empty.
	GetMetadata() (*types.IndexMetadata, error)

	// SetMetadata stores index metadata.
	SetMetadata(meta *types.IndexMetadata) error

	// GetStats returns store statistics.
	GetStats() (*types.StoreStats, error)

	// Clear removes all indexed data.
	Clear() error

	// Close releases resources.
	Close() error
}
