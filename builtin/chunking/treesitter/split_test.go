package treesitter

import (
	"errors"
	"reflect"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/spetr/codechunk/pkg/types"
)

// fakeNode is a synthetic Chunkable for exercising the splitter without
// a parser.
type fakeNode struct {
	start, end uint32
	kind       string
	children   []Chunkable
}

func (f *fakeNode) StartByte() uint32 { return f.start }
func (f *fakeNode) EndByte() uint32   { return f.end }
func (f *fakeNode) StartPoint() sitter.Point {
	return sitter.Point{Row: 0, Column: f.start}
}
func (f *fakeNode) EndPoint() sitter.Point {
	return sitter.Point{Row: 0, Column: f.end}
}
func (f *fakeNode) Kind() string          { return f.kind }
func (f *fakeNode) Children() []Chunkable { return f.children }

func leaf(kind string, start, end uint32) *fakeNode {
	return &fakeNode{start: start, end: end, kind: kind}
}

func branch(kind string, children ...Chunkable) *fakeNode {
	return &fakeNode{
		start:    children[0].StartByte(),
		end:      children[len(children)-1].EndByte(),
		kind:     kind,
		children: children,
	}
}

func newSplitter(budget int, size uint32, group GroupFunc) *Splitter {
	return &Splitter{
		Budget:  budget,
		Measure: MeasureBytes,
		Group:   group,
		Source:  make([]byte, size),
	}
}

func spans(windows []Window) [][2]uint32 {
	out := make([][2]uint32, len(windows))
	for i, w := range windows {
		out[i] = [2]uint32{w.StartByte(), w.EndByte()}
	}
	return out
}

func TestSplitPacksSiblingsGreedily(t *testing.T) {
	// Three 10-byte leaves, budget 25: the first two share a window.
	root := branch("module",
		leaf("function", 0, 10),
		leaf("function", 10, 20),
		leaf("function", 20, 30),
	)

	s := newSplitter(25, 30, nil)
	windows, err := s.Split(root)
	if err != nil {
		t.Fatal(err)
	}

	want := [][2]uint32{{0, 20}, {20, 30}}
	if got := spans(windows); !reflect.DeepEqual(got, want) {
		t.Errorf("spans = %v, want %v", got, want)
	}
	if len(windows[0].Items) != 2 || len(windows[1].Items) != 1 {
		t.Errorf("item counts = %d, %d, want 2, 1", len(windows[0].Items), len(windows[1].Items))
	}
}

func TestSplitNodeWithinBudget(t *testing.T) {
	root := branch("module", leaf("function", 0, 10), leaf("function", 10, 20))

	s := newSplitter(100, 20, nil)
	windows, err := s.Split(root)
	if err != nil {
		t.Fatal(err)
	}

	if len(windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(windows))
	}
	if windows[0].StartByte() != 0 || windows[0].EndByte() != 20 {
		t.Errorf("span = [%d,%d), want [0,20)", windows[0].StartByte(), windows[0].EndByte())
	}
}

func TestSplitGroupFitsBudgetStaysWhole(t *testing.T) {
	// A decorator fused with its definition must never be divided across
	// windows while the group fits the budget.
	rule := Rule{
		Attach:  kinds("decorator"),
		Primary: kinds("function_definition"),
	}
	root := branch("module",
		leaf("decorator", 0, 5),
		leaf("function_definition", 5, 55),
		leaf("comment_block", 60, 70),
	)
	root.end = 70

	s := newSplitter(65, 70, rule.Apply)
	windows, err := s.Split(root)
	if err != nil {
		t.Fatal(err)
	}

	want := [][2]uint32{{0, 55}, {60, 70}}
	if got := spans(windows); !reflect.DeepEqual(got, want) {
		t.Errorf("spans = %v, want %v", got, want)
	}
	if kind := windows[0].Items[0].Kind(); kind != "function_definition" {
		t.Errorf("group kind = %q, want function_definition", kind)
	}
}

func TestSplitOversizedGroupRecursesIntoMembers(t *testing.T) {
	// Group of 55 bytes, budget 30: the decorator gets its own window
	// and the definition is emitted alone, flagged oversized.
	rule := Rule{
		Attach:  kinds("decorator"),
		Primary: kinds("function_definition"),
	}
	root := branch("module",
		leaf("decorator", 0, 5),
		leaf("function_definition", 5, 55),
	)

	s := newSplitter(30, 55, rule.Apply)
	windows, err := s.Split(root)
	if err != nil {
		t.Fatal(err)
	}

	want := [][2]uint32{{0, 5}, {5, 55}}
	if got := spans(windows); !reflect.DeepEqual(got, want) {
		t.Fatalf("spans = %v, want %v", got, want)
	}
	if windows[0].Oversized {
		t.Error("decorator window flagged oversized")
	}
	if !windows[1].Oversized {
		t.Error("definition window not flagged oversized")
	}
}

func TestSplitOversizedLeaf(t *testing.T) {
	root := leaf("string_literal", 0, 50)

	s := newSplitter(10, 50, nil)
	windows, err := s.Split(root)
	if err != nil {
		t.Fatal(err)
	}

	if len(windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(windows))
	}
	if !windows[0].Oversized {
		t.Error("oversized leaf not flagged")
	}
}

func TestSplitEmptyRoot(t *testing.T) {
	root := leaf("module", 0, 0)

	s := newSplitter(10, 0, nil)
	windows, err := s.Split(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(windows) != 0 {
		t.Errorf("got %d windows for empty root, want 0", len(windows))
	}
}

func TestSplitCoverage(t *testing.T) {
	// Windows must tile the root span in source order: no gaps, no
	// overlaps, regardless of how deep recursion goes.
	root := branch("module",
		branch("class",
			leaf("method", 0, 15),
			leaf("method", 15, 40),
		),
		leaf("function", 40, 60),
		branch("class",
			leaf("method", 60, 75),
			leaf("method", 75, 100),
		),
	)

	s := newSplitter(30, 100, nil)
	windows, err := s.Split(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(windows) == 0 {
		t.Fatal("no windows")
	}

	if windows[0].StartByte() != root.StartByte() {
		t.Errorf("first window starts at %d, want %d", windows[0].StartByte(), root.StartByte())
	}
	if last := windows[len(windows)-1]; last.EndByte() != root.EndByte() {
		t.Errorf("last window ends at %d, want %d", last.EndByte(), root.EndByte())
	}
	for i := 1; i < len(windows); i++ {
		if windows[i].StartByte() != windows[i-1].EndByte() {
			t.Errorf("gap or overlap between windows %d and %d: %d != %d",
				i-1, i, windows[i-1].EndByte(), windows[i].StartByte())
		}
	}
	for i, w := range windows {
		if size := int(w.EndByte() - w.StartByte()); size > 30 && !w.Oversized {
			t.Errorf("window %d measures %d over budget without flag", i, size)
		}
	}
}

func TestSplitDeterminism(t *testing.T) {
	build := func() Chunkable {
		return branch("module",
			branch("class",
				leaf("method", 0, 25),
				leaf("method", 25, 60),
			),
			leaf("function", 60, 80),
			leaf("function", 80, 95),
		)
	}

	s := newSplitter(40, 95, nil)
	first, err := s.Split(build())
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Split(build())
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(spans(first), spans(second)) {
		t.Errorf("runs differ: %v vs %v", spans(first), spans(second))
	}
}

func TestSplitRejectsRuleDroppingNodes(t *testing.T) {
	dropFirst := func(children []Chunkable) []Chunkable {
		return children[1:]
	}
	root := branch("module",
		leaf("function", 0, 30),
		leaf("function", 30, 60),
	)

	s := newSplitter(40, 60, dropFirst)
	_, err := s.Split(root)
	if !errors.Is(err, types.ErrBadGroupRule) {
		t.Errorf("err = %v, want ErrBadGroupRule", err)
	}
}

func TestSplitRejectsRuleReorderingNodes(t *testing.T) {
	swap := func(children []Chunkable) []Chunkable {
		out := []Chunkable{children[1], children[0]}
		return out
	}
	root := branch("module",
		leaf("function", 0, 30),
		leaf("function", 30, 60),
	)

	s := newSplitter(40, 60, swap)
	_, err := s.Split(root)
	if !errors.Is(err, types.ErrBadGroupRule) {
		t.Errorf("err = %v, want ErrBadGroupRule", err)
	}
}

func TestSplitCollapsedLevelFallsBackToChildren(t *testing.T) {
	// A rule that fuses every child of an oversized node into one group
	// must not loop forever; the splitter distributes the members
	// instead.
	fuseAll := func(children []Chunkable) []Chunkable {
		group, _ := NewNodeGroup(children)
		return []Chunkable{group}
	}
	root := branch("module",
		leaf("function", 0, 30),
		leaf("function", 30, 60),
	)

	s := newSplitter(40, 60, fuseAll)
	windows, err := s.Split(root)
	if err != nil {
		t.Fatal(err)
	}

	want := [][2]uint32{{0, 30}, {30, 60}}
	if got := spans(windows); !reflect.DeepEqual(got, want) {
		t.Errorf("spans = %v, want %v", got, want)
	}
}
