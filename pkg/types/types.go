// Package types contains shared data types used across codechunk.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// SourceFile represents a source code file to be chunked.
type SourceFile struct {
	Path     string // Absolute path to the file
	Content  []byte // File content
	Language string // Detected language (go, python, javascript, etc.)
	Hash     string // SHA256 hash for incremental indexing
}

// ComputeHash calculates SHA256 hash of the file content.
func (f *SourceFile) ComputeHash() string {
	h := sha256.Sum256(f.Content)
	return hex.EncodeToString(h[:])
}

// ChunkType represents the type of code chunk.
type ChunkType string

const (
	ChunkTypeFunction ChunkType = "function"
	ChunkTypeClass    ChunkType = "class"
	ChunkTypeMethod   ChunkType = "method"
	ChunkTypeBlock    ChunkType = "block"
	ChunkTypeFile     ChunkType = "file"
)

// Chunk represents one output window of the chunker.
type Chunk struct {
	ID        string    // Unique ID: {filepath}:{startline}:{hash[:8]}
	FilePath  string    // Path to source file
	Language  string    // Programming language
	Content   string    // Chunk content, sliced from the source byte span
	ChunkType ChunkType // Type of chunk
	Name      string    // Name of function/class/method, if identifiable
	StartByte uint32    // Byte span start in the source file
	EndByte   uint32    // Byte span end (exclusive)
	StartLine int       // Starting line number (1-based)
	EndLine   int       // Ending line number (1-based)
	Oversized bool      // True when a single indivisible unit exceeded the budget
	Hash      string    // SHA256 of content
}

// GenerateID creates a unique ID for the chunk.
func (c *Chunk) GenerateID() string {
	h := sha256.Sum256([]byte(c.Content))
	hashPrefix := hex.EncodeToString(h[:4])
	return c.FilePath + ":" + strconv.Itoa(c.StartLine) + ":" + hashPrefix
}

// ChunkWithEmbedding is a Chunk with its vector embedding.
type ChunkWithEmbedding struct {
	Chunk     *Chunk
	Embedding []float32
}

// SearchMode represents the type of search to perform.
type SearchMode string

const (
	SearchModeVector SearchMode = "vector"
	SearchModeBM25   SearchMode = "bm25"
	SearchModeHybrid SearchMode = "hybrid"
)

// SearchFilters contains filters for search queries.
type SearchFilters struct {
	Languages  []string    // Filter by language
	ChunkTypes []ChunkType // Filter by chunk type
}

// SearchRequest represents a search query.
type SearchRequest struct {
	Query        string     // Text query (for BM25)
	QueryVec     []float32  // Query embedding (for vector search)
	Mode         SearchMode // vector, bm25, hybrid
	Limit        int        // Max results to return
	VectorWeight float32    // Hybrid merge weight for vector scores
	BM25Weight   float32    // Hybrid merge weight for BM25 scores
	Filters      *SearchFilters

	IncludeContext bool // Attach surrounding source lines to results
	ContextLines   int  // Lines of context before and after (default 5)
}

// SearchResult is a chunk with its relevance score. VectorScore and
// BM25Score carry the per-method scores feeding the hybrid merge.
type SearchResult struct {
	Chunk       *Chunk
	Score       float32
	VectorScore float32
	BM25Score   float32

	ContextBefore string // Lines preceding the chunk, when requested
	ContextAfter  string // Lines following the chunk, when requested
}

// IndexMetadata describes the state of a built index.
type IndexMetadata struct {
	SchemaVersion       int
	ConfigHash          string
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingDimensions int
	ChunkingStrategy    string
	LastUpdated         time.Time
}

// IndexProgress reports the state of a running indexing pass.
type IndexProgress struct {
	Phase           string // scanning, chunking, embedding, storing
	TotalFiles      int
	ProcessedFiles  int
	TotalChunks     int
	ProcessedChunks int
	CurrentFile     string
}

// StoreStats contains statistics about a store.
type StoreStats struct {
	TotalChunks int
	TotalFiles  int
	DBSizeBytes int64
	LastIndexed time.Time
}
