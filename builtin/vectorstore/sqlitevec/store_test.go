package sqlitevec

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spetr/codechunk/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	if err := s.Init(filepath.Join(t.TempDir(), "index.db")); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testChunk(id, path, content string) *types.ChunkWithEmbedding {
	return &types.ChunkWithEmbedding{
		Chunk: &types.Chunk{
			ID:        id,
			FilePath:  path,
			Language:  "go",
			Content:   content,
			ChunkType: types.ChunkTypeFunction,
			Name:      "fn",
			StartByte: 0,
			EndByte:   uint32(len(content)),
			StartLine: 1,
			EndLine:   3,
			Hash:      "deadbeef",
		},
		Embedding: []float32{0.1, 0.2, 0.3, 0.4},
	}
}

func TestStoreAndGetChunk(t *testing.T) {
	s := newTestStore(t)

	chunk := testChunk("a.go:1:aaaa", "a.go", "func parseConfig() {}")
	chunk.Chunk.Oversized = true
	if err := s.StoreChunks([]*types.ChunkWithEmbedding{chunk}); err != nil {
		t.Fatalf("StoreChunks: %v", err)
	}

	got, err := s.GetChunk("a.go:1:aaaa")
	if err != nil {
		t.Fatalf("GetChunk: %v", err)
	}
	if got == nil {
		t.Fatal("chunk not found")
	}
	if got.Content != chunk.Chunk.Content {
		t.Errorf("content = %q, want %q", got.Content, chunk.Chunk.Content)
	}
	if got.EndByte != chunk.Chunk.EndByte {
		t.Errorf("end byte = %d, want %d", got.EndByte, chunk.Chunk.EndByte)
	}
	if !got.Oversized {
		t.Error("oversized flag lost")
	}

	missing, err := s.GetChunk("nope")
	if err != nil {
		t.Fatalf("GetChunk missing: %v", err)
	}
	if missing != nil {
		t.Errorf("got %+v for missing id, want nil", missing)
	}
}

func TestDeleteChunksByFile(t *testing.T) {
	s := newTestStore(t)

	chunks := []*types.ChunkWithEmbedding{
		testChunk("a.go:1:aaaa", "a.go", "func a() {}"),
		testChunk("a.go:5:bbbb", "a.go", "func b() {}"),
		testChunk("c.go:1:cccc", "c.go", "func c() {}"),
	}
	if err := s.StoreChunks(chunks); err != nil {
		t.Fatalf("StoreChunks: %v", err)
	}

	if err := s.DeleteChunksByFile("a.go"); err != nil {
		t.Fatalf("DeleteChunksByFile: %v", err)
	}

	for _, id := range []string{"a.go:1:aaaa", "a.go:5:bbbb"} {
		if got, _ := s.GetChunk(id); got != nil {
			t.Errorf("chunk %s survived deletion", id)
		}
	}
	if got, _ := s.GetChunk("c.go:1:cccc"); got == nil {
		t.Error("unrelated chunk deleted")
	}
}

func TestBM25Search(t *testing.T) {
	s := newTestStore(t)

	chunks := []*types.ChunkWithEmbedding{
		testChunk("a.go:1:aaaa", "a.go", "func parseConfiguration(path string) error { return nil }"),
		testChunk("b.go:1:bbbb", "b.go", "func renderTemplate(w io.Writer) error { return nil }"),
	}
	if err := s.StoreChunks(chunks); err != nil {
		t.Fatalf("StoreChunks: %v", err)
	}

	results, err := s.Search(context.Background(), &types.SearchRequest{
		Query: "configuration",
		Mode:  types.SearchModeBM25,
		Limit: 10,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Chunk.ID != "a.go:1:aaaa" {
		t.Errorf("top result = %s", results[0].Chunk.ID)
	}
	if results[0].Score <= 0 {
		t.Errorf("score = %f, want > 0", results[0].Score)
	}
}

func TestVectorSearchOrdering(t *testing.T) {
	s := newTestStore(t)

	near := testChunk("a.go:1:aaaa", "a.go", "func a() {}")
	near.Embedding = []float32{1, 0, 0, 0}
	far := testChunk("b.go:1:bbbb", "b.go", "func b() {}")
	far.Embedding = []float32{0, 1, 0, 0}

	if err := s.StoreChunks([]*types.ChunkWithEmbedding{near, far}); err != nil {
		t.Fatalf("StoreChunks: %v", err)
	}

	results, err := s.Search(context.Background(), &types.SearchRequest{
		QueryVec: []float32{1, 0, 0, 0},
		Mode:     types.SearchModeVector,
		Limit:    2,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Chunk.ID != "a.go:1:aaaa" {
		t.Errorf("nearest chunk = %s, want a.go:1:aaaa", results[0].Chunk.ID)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores not descending: %f <= %f", results[0].Score, results[1].Score)
	}
}

func TestReopenPreservesEmbeddings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	s := New()
	if err := s.Init(path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	a := testChunk("a.go:1:aaaa", "a.go", "func a() {}")
	a.Embedding = []float32{1, 0, 0, 0}
	if err := s.StoreChunks([]*types.ChunkWithEmbedding{a}); err != nil {
		t.Fatalf("StoreChunks: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// An incremental run reopens the store and writes only the changed
	// files; embeddings of unchanged files must survive.
	reopened := New()
	if err := reopened.Init(path); err != nil {
		t.Fatalf("Init reopened: %v", err)
	}
	t.Cleanup(func() { reopened.Close() })

	b := testChunk("b.go:1:bbbb", "b.go", "func b() {}")
	b.Embedding = []float32{0, 1, 0, 0}
	if err := reopened.StoreChunks([]*types.ChunkWithEmbedding{b}); err != nil {
		t.Fatalf("StoreChunks reopened: %v", err)
	}

	results, err := reopened.Search(context.Background(), &types.SearchRequest{
		QueryVec: []float32{1, 0, 0, 0},
		Mode:     types.SearchModeVector,
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Chunk.ID != "a.go:1:aaaa" {
		t.Errorf("nearest chunk = %s, want a.go:1:aaaa", results[0].Chunk.ID)
	}
}

func TestSearchLanguageFilter(t *testing.T) {
	s := newTestStore(t)

	goChunk := testChunk("a.go:1:aaaa", "a.go", "parse the config file")
	pyChunk := testChunk("b.py:1:bbbb", "b.py", "parse the config file")
	pyChunk.Chunk.Language = "python"

	if err := s.StoreChunks([]*types.ChunkWithEmbedding{goChunk, pyChunk}); err != nil {
		t.Fatalf("StoreChunks: %v", err)
	}

	results, err := s.Search(context.Background(), &types.SearchRequest{
		Query:   "config",
		Mode:    types.SearchModeBM25,
		Limit:   10,
		Filters: &types.SearchFilters{Languages: []string{"python"}},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.Language != "python" {
		t.Errorf("filter leaked: %d results", len(results))
	}
}

func TestFileHashRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetFileHash("a.go", "hash1", "cfg1"); err != nil {
		t.Fatalf("SetFileHash: %v", err)
	}
	hash, err := s.GetFileHash("a.go")
	if err != nil {
		t.Fatalf("GetFileHash: %v", err)
	}
	if hash != "hash1" {
		t.Errorf("hash = %q, want hash1", hash)
	}

	all, err := s.GetAllFileHashes()
	if err != nil {
		t.Fatalf("GetAllFileHashes: %v", err)
	}
	if all["a.go"] != "hash1" {
		t.Errorf("all hashes = %v", all)
	}

	if err := s.DeleteFileCache("a.go"); err != nil {
		t.Fatalf("DeleteFileCache: %v", err)
	}
	if hash, _ := s.GetFileHash("a.go"); hash != "" {
		t.Errorf("hash after delete = %q, want empty", hash)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	s := newTestStore(t)

	meta, err := s.GetMetadata()
	if err != nil {
		t.Fatalf("GetMetadata on empty: %v", err)
	}
	if meta != nil {
		t.Errorf("metadata on empty store = %+v, want nil", meta)
	}

	want := &types.IndexMetadata{
		SchemaVersion:       SchemaVersion,
		EmbeddingProvider:   "openai",
		EmbeddingModel:      "text-embedding-3-small",
		EmbeddingDimensions: 1536,
		ChunkingStrategy:    "treesitter",
	}
	if err := s.SetMetadata(want); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}

	got, err := s.GetMetadata()
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if got == nil || got.EmbeddingModel != want.EmbeddingModel || got.EmbeddingDimensions != want.EmbeddingDimensions {
		t.Errorf("metadata = %+v, want %+v", got, want)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)

	if err := s.StoreChunks([]*types.ChunkWithEmbedding{testChunk("a.go:1:aaaa", "a.go", "func a() {}")}); err != nil {
		t.Fatalf("StoreChunks: %v", err)
	}
	if err := s.SetFileHash("a.go", "h", "c"); err != nil {
		t.Fatalf("SetFileHash: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	stats, err := s.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalChunks != 0 || stats.TotalFiles != 0 {
		t.Errorf("stats after clear = %+v", stats)
	}
	if hash, _ := s.GetFileHash("a.go"); hash != "" {
		t.Errorf("file hash survived clear: %q", hash)
	}
}
