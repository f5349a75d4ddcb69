package treesitter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	tsc "github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/lua"
	tsmarkdown "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	tstype "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/spetr/codechunk/pkg/provider"
	"github.com/spetr/codechunk/pkg/types"
)

// Config contains configuration for the Tree-sitter chunker.
type Config struct {
	MaxChunkSize int    // Maximum chunk size in tokens
	Measure      string // "tokens" (default) or "bytes"
}

// Chunker implements structure-aware chunking using Tree-sitter.
type Chunker struct {
	config Config
}

// New creates a new Tree-sitter chunker.
func New(cfg Config) *Chunker {
	if cfg.MaxChunkSize == 0 {
		cfg.MaxChunkSize = DefaultMaxChunkSize
	}
	return &Chunker{config: cfg}
}

// Name returns the strategy name.
func (c *Chunker) Name() string {
	return "treesitter"
}

// getLanguage returns the grammar for the given language.
func getLanguage(lang string) (*sitter.Language, bool) {
	switch lang {
	case "go":
		return golang.GetLanguage(), true
	case "python":
		return python.GetLanguage(), true
	case "javascript", "jsx":
		return javascript.GetLanguage(), true
	case "typescript":
		return tstype.GetLanguage(), true
	case "tsx":
		return tsx.GetLanguage(), true
	case "rust":
		return rust.GetLanguage(), true
	case "java":
		return java.GetLanguage(), true
	case "c", "h":
		return tsc.GetLanguage(), true
	case "cpp":
		return cpp.GetLanguage(), true
	case "ruby":
		return ruby.GetLanguage(), true
	case "php":
		return php.GetLanguage(), true
	case "csharp":
		return csharp.GetLanguage(), true
	case "kotlin":
		return kotlin.GetLanguage(), true
	case "bash":
		return bash.GetLanguage(), true
	case "lua":
		return lua.GetLanguage(), true
	case "markdown":
		return tsmarkdown.GetLanguage(), true
	default:
		return nil, false
	}
}

// budgetAndMeasure resolves the configured window budget and measure.
// MaxChunkSize is interpreted in the configured unit.
func (c *Chunker) budgetAndMeasure() (int, MeasureFunc) {
	if c.config.Measure == "bytes" {
		return c.config.MaxChunkSize, MeasureBytes
	}
	return c.config.MaxChunkSize, MeasureTokens
}

// Chunk splits a file into windows along its syntax tree.
func (c *Chunker) Chunk(file *types.SourceFile) ([]*types.Chunk, error) {
	language, ok := getLanguage(file.Language)
	if !ok {
		return nil, fmt.Errorf("language %s not supported by Tree-sitter", file.Language)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(language)
	defer parser.Close()

	tree, err := parser.ParseCtx(context.Background(), nil, file.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrParseError, err)
	}
	defer tree.Close()

	budget, measure := c.budgetAndMeasure()
	rule := RuleForLanguage(file.Language)

	splitter := &Splitter{
		Budget:  budget,
		Measure: measure,
		Group:   rule.Apply,
		Source:  file.Content,
	}

	root := WrapNode(tree.RootNode())
	windows, err := splitter.Split(root)
	if err != nil {
		return nil, err
	}

	// Sibling node spans do not tile the file: the whitespace between
	// declarations belongs to no node. Stretch each window's end to the
	// next window's start (and the edges to the root span) so the chunk
	// sequence covers the input with no gaps and no overlaps.
	chunks := make([]*types.Chunk, 0, len(windows))
	for i, w := range windows {
		start := w.StartByte()
		end := w.EndByte()
		if i == 0 && root.StartByte() < start {
			start = root.StartByte()
		}
		if i+1 < len(windows) {
			end = windows[i+1].StartByte()
		} else if root.EndByte() > end {
			end = root.EndByte()
		}
		chunks = append(chunks, c.materialize(file, w, start, end))
	}

	// Whole-file fallback for content the grammar produced no tree for.
	if len(chunks) == 0 && len(file.Content) > 0 {
		chunks = append(chunks, wholeFileChunk(file))
	}

	return chunks, nil
}

// materialize converts a window into a Chunk covering [start, end).
// Content is always the slice of the source buffer, never a
// reconstruction from the items.
func (c *Chunker) materialize(file *types.SourceFile, w Window, start, end uint32) *types.Chunk {
	content := string(file.Content[start:end])
	chunkType, name := classifyWindow(w, file.Content, file.Language)

	hash := sha256.Sum256([]byte(content))

	chunk := &types.Chunk{
		FilePath:  file.Path,
		Language:  file.Language,
		Content:   content,
		ChunkType: chunkType,
		Name:      name,
		StartByte: start,
		EndByte:   end,
		StartLine: int(w.StartPoint().Row) + 1,
		EndLine:   int(w.EndPoint().Row) + 1,
		Oversized: w.Oversized,
		Hash:      hex.EncodeToString(hash[:]),
	}
	chunk.ID = fmt.Sprintf("%s:%d:%s", file.Path, chunk.StartLine, chunk.Hash[:8])

	if start == 0 && int(end) >= len(file.Content) {
		chunk.ChunkType = types.ChunkTypeFile
	}

	return chunk
}

func wholeFileChunk(file *types.SourceFile) *types.Chunk {
	content := string(file.Content)
	lines := 1
	for _, b := range file.Content {
		if b == '\n' {
			lines++
		}
	}

	hash := sha256.Sum256(file.Content)
	chunk := &types.Chunk{
		FilePath:  file.Path,
		Language:  file.Language,
		Content:   content,
		ChunkType: types.ChunkTypeFile,
		StartByte: 0,
		EndByte:   uint32(len(file.Content)),
		StartLine: 1,
		EndLine:   lines,
		Hash:      hex.EncodeToString(hash[:]),
	}
	chunk.ID = fmt.Sprintf("%s:1:%s", file.Path, chunk.Hash[:8])
	return chunk
}

// SupportedLanguages returns languages supported by this chunker.
func (c *Chunker) SupportedLanguages() []string {
	return []string{
		"go", "python", "javascript", "jsx", "typescript", "tsx",
		"rust", "java", "c", "h", "cpp", "ruby", "php", "csharp",
		"kotlin", "bash", "lua", "markdown",
	}
}

// SupportsLanguage checks if a language is supported.
func (c *Chunker) SupportsLanguage(lang string) bool {
	_, ok := getLanguage(lang)
	return ok
}

// Close releases resources.
func (c *Chunker) Close() error {
	return nil
}

// Ensure Chunker implements ChunkingStrategy interface
var _ provider.ChunkingStrategy = (*Chunker)(nil)
