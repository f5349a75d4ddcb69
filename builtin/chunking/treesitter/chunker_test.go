package treesitter

import (
	"strings"
	"testing"

	"github.com/spetr/codechunk/pkg/types"
)

const goSource = `package sample

import "fmt"

// Greet prints a greeting.
func Greet(name string) {
	fmt.Println("hello", name)
}

type Counter struct {
	n int
}

func (c *Counter) Add(delta int) {
	c.n += delta
}

func (c *Counter) Value() int {
	return c.n
}
`

const pythonSource = `import os


@staticmethod
def helper(path):
    return os.path.basename(path)


class Widget:
    def __init__(self, name):
        self.name = name

    def render(self):
        return f"<{self.name}>"
`

func chunkSource(t *testing.T, lang, src string, cfg Config) []*types.Chunk {
	t.Helper()
	file := &types.SourceFile{
		Path:     "test." + lang,
		Content:  []byte(src),
		Language: lang,
	}
	chunks, err := New(cfg).Chunk(file)
	if err != nil {
		t.Fatal(err)
	}
	return chunks
}

// assertCoverage checks that chunk spans tile the file exactly.
func assertCoverage(t *testing.T, chunks []*types.Chunk, size int) {
	t.Helper()
	if len(chunks) == 0 {
		t.Fatal("no chunks")
	}
	if chunks[0].StartByte != 0 {
		t.Errorf("first chunk starts at %d, want 0", chunks[0].StartByte)
	}
	if last := chunks[len(chunks)-1]; int(last.EndByte) != size {
		t.Errorf("last chunk ends at %d, want %d", last.EndByte, size)
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartByte != chunks[i-1].EndByte {
			t.Errorf("chunks %d and %d do not meet: %d != %d",
				i-1, i, chunks[i-1].EndByte, chunks[i].StartByte)
		}
	}
}

func TestChunkGoCoverage(t *testing.T) {
	chunks := chunkSource(t, "go", goSource, Config{MaxChunkSize: 40, Measure: "bytes"})
	assertCoverage(t, chunks, len(goSource))

	var rebuilt strings.Builder
	for _, c := range chunks {
		rebuilt.WriteString(c.Content)
	}
	if rebuilt.String() != goSource {
		t.Error("concatenated chunks do not reproduce the source")
	}
}

func TestChunkGoFitsInOneChunk(t *testing.T) {
	chunks := chunkSource(t, "go", goSource, Config{MaxChunkSize: 100000, Measure: "bytes"})
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].ChunkType != types.ChunkTypeFile {
		t.Errorf("chunk type = %q, want %q", chunks[0].ChunkType, types.ChunkTypeFile)
	}
	if chunks[0].Content != goSource {
		t.Error("single chunk content differs from source")
	}
}

func TestChunkGoFunctionNames(t *testing.T) {
	// Budget sized so each top-level declaration lands in its own chunk.
	chunks := chunkSource(t, "go", goSource, Config{MaxChunkSize: 60, Measure: "bytes"})

	names := make(map[string]bool)
	for _, c := range chunks {
		if c.Name != "" {
			names[c.Name] = true
		}
	}
	for _, want := range []string{"Greet", "Add", "Value"} {
		if !names[want] {
			t.Errorf("no chunk named %q (got %v)", want, names)
		}
	}
}

func TestChunkPythonDecoratorStaysWithDefinition(t *testing.T) {
	chunks := chunkSource(t, "python", pythonSource, Config{MaxChunkSize: 80, Measure: "bytes"})
	assertCoverage(t, chunks, len(pythonSource))

	found := false
	for _, c := range chunks {
		if strings.Contains(c.Content, "@staticmethod") {
			found = true
			if !strings.Contains(c.Content, "def helper") {
				t.Error("decorator separated from its definition")
			}
		}
	}
	if !found {
		t.Fatal("decorator not present in any chunk")
	}
}

func TestChunkOversizedFlagOnIndivisibleNode(t *testing.T) {
	// A string literal has no children, so a tiny budget forces an
	// oversized chunk rather than an error.
	src := `x = "` + strings.Repeat("a", 200) + `"` + "\n"
	chunks := chunkSource(t, "python", src, Config{MaxChunkSize: 20, Measure: "bytes"})

	oversized := false
	for _, c := range chunks {
		if c.Oversized {
			oversized = true
		}
	}
	if !oversized {
		t.Error("no chunk flagged oversized")
	}
}

func TestChunkDeterminism(t *testing.T) {
	cfg := Config{MaxChunkSize: 40, Measure: "bytes"}
	first := chunkSource(t, "go", goSource, cfg)
	second := chunkSource(t, "go", goSource, cfg)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Content != second[i].Content {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestChunkTokenMeasure(t *testing.T) {
	// Default measure approximates tokens as ceil(bytes/4), so a token
	// budget produces more chunks than the equivalent byte budget would.
	chunks := chunkSource(t, "go", goSource, Config{MaxChunkSize: 10})
	assertCoverage(t, chunks, len(goSource))
	if len(chunks) < 3 {
		t.Errorf("got %d chunks, want several under a 10-token budget", len(chunks))
	}
}

func TestChunkUnsupportedLanguage(t *testing.T) {
	file := &types.SourceFile{Path: "x.cob", Content: []byte("DISPLAY 'HI'."), Language: "cobol"}
	if _, err := New(Config{}).Chunk(file); err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestChunkEmptyFile(t *testing.T) {
	file := &types.SourceFile{Path: "empty.go", Content: nil, Language: "go"}
	chunks, err := New(Config{}).Chunk(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("got %d chunks for empty file, want 0", len(chunks))
	}
}

func TestSupportsLanguage(t *testing.T) {
	c := New(Config{})
	for _, lang := range c.SupportedLanguages() {
		if !c.SupportsLanguage(lang) {
			t.Errorf("SupportsLanguage(%q) = false", lang)
		}
	}
	if c.SupportsLanguage("cobol") {
		t.Error("SupportsLanguage(cobol) = true")
	}
}
