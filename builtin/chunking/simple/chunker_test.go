package simple

import (
	"strings"
	"testing"

	"github.com/spetr/codechunk/pkg/types"
)

func TestChunkCoversFile(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		b.WriteString("func handler" + strings.Repeat("x", i) + "() {\n")
		b.WriteString(strings.Repeat("\tdoWork()\n", 10))
		b.WriteString("}\n\n")
	}
	src := b.String()

	file := &types.SourceFile{Path: "main.go", Content: []byte(src), Language: "go"}
	chunks, err := New(Config{MaxChunkSize: 50, MinChunkSize: 40}).Chunk(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}

	if chunks[0].StartByte != 0 {
		t.Errorf("first chunk starts at %d, want 0", chunks[0].StartByte)
	}
	if last := chunks[len(chunks)-1]; int(last.EndByte) != len(src) {
		t.Errorf("last chunk ends at %d, want %d", last.EndByte, len(src))
	}
	var rebuilt strings.Builder
	for i, c := range chunks {
		if i > 0 && chunks[i].StartByte != chunks[i-1].EndByte {
			t.Errorf("chunks %d and %d do not meet", i-1, i)
		}
		rebuilt.WriteString(c.Content)
	}
	if rebuilt.String() != src {
		t.Error("concatenated chunks do not reproduce the source")
	}
}

func TestChunkSplitsOnDefinitionLines(t *testing.T) {
	src := "def first():\n" + strings.Repeat("    a()\n", 20) +
		"def second():\n" + strings.Repeat("    b()\n", 20)

	file := &types.SourceFile{Path: "m.py", Content: []byte(src), Language: "python"}
	chunks, err := New(Config{MaxChunkSize: 500, MinChunkSize: 20}).Chunk(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if !strings.HasPrefix(chunks[1].Content, "def second():") {
		t.Errorf("second chunk starts with %q", chunks[1].Content[:20])
	}
}

func TestChunkSmallFileIsSingleFileChunk(t *testing.T) {
	file := &types.SourceFile{Path: "tiny.txt", Content: []byte("hello\n"), Language: "text"}
	chunks, err := New(Config{}).Chunk(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].ChunkType != types.ChunkTypeFile {
		t.Errorf("chunk type = %q, want %q", chunks[0].ChunkType, types.ChunkTypeFile)
	}
}

func TestChunkEmptyFile(t *testing.T) {
	file := &types.SourceFile{Path: "empty.txt", Content: nil, Language: "text"}
	chunks, err := New(Config{}).Chunk(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("got %d chunks for empty file, want 0", len(chunks))
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"app.py", "python"},
		{"component.tsx", "tsx"},
		{"lib.rs", "rust"},
		{"Dockerfile", "dockerfile"},
		{"notes.unknown", "text"},
		{"README.md", "markdown"},
	}
	for _, tt := range tests {
		if got := DetectLanguage(tt.path); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
