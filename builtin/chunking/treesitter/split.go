package treesitter

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/spetr/codechunk/pkg/types"
)

// Window is one output chunk: an ordered run of sibling Chunkables
// packed together. Its byte span is derived from the first and last
// item. Oversized marks a window holding a single indivisible unit that
// exceeds the budget; the budget is a soft bound broken only in that
// case, and it is reported rather than treated as an error.
type Window struct {
	Items     []Chunkable
	Oversized bool
}

func (w Window) StartByte() uint32 { return w.Items[0].StartByte() }

func (w Window) EndByte() uint32 { return w.Items[len(w.Items)-1].EndByte() }

func (w Window) StartPoint() sitter.Point { return w.Items[0].StartPoint() }

func (w Window) EndPoint() sitter.Point { return w.Items[len(w.Items)-1].EndPoint() }

// GroupFunc fuses adjacent sibling runs into NodeGroups. It must be
// pure and deterministic, preserve source order, and neither drop nor
// duplicate nodes; the splitter validates this on every call.
type GroupFunc func(children []Chunkable) []Chunkable

// Splitter partitions a syntax tree into Windows. It is a pure function
// of (tree, budget, measure, grouping rule): no state is shared between
// invocations, so independent trees may be split concurrently by
// independent callers.
type Splitter struct {
	Budget  int         // maximum measured size per window
	Measure MeasureFunc // size function over source byte slices
	Group   GroupFunc   // optional sibling grouping rule
	Source  []byte      // the buffer all node spans index into
}

// Split produces the ordered window sequence for root. Windows are
// emitted in source order; their spans cover root's span exactly, with
// no overlaps, modulo the internal gaps a NodeGroup's span may contain.
// An empty root span yields no windows.
func (s *Splitter) Split(root Chunkable) ([]Window, error) {
	if root.EndByte() <= root.StartByte() {
		return nil, nil
	}
	return s.split(root)
}

func (s *Splitter) split(node Chunkable) ([]Window, error) {
	if s.measureSpan(node.StartByte(), node.EndByte()) <= s.Budget {
		return []Window{{Items: []Chunkable{node}}}, nil
	}

	children := node.Children()
	if len(children) == 0 {
		// Indivisible leaf larger than the budget.
		return []Window{{Items: []Chunkable{node}, Oversized: true}}, nil
	}

	effective := children
	if s.Group != nil {
		effective = s.Group(children)
		if err := validateGrouping(children, effective); err != nil {
			return nil, err
		}
		if len(effective) == 1 && len(children) > 1 {
			// The rule collapsed the whole level into a single unit that
			// spans this (already oversized) node, so splitting it would
			// recurse forever. Fall back to the raw children; the unit's
			// members are exactly what recursion must distribute.
			effective = children
		}
	}

	var out []Window
	var cur []Chunkable

	flush := func() {
		if len(cur) > 0 {
			out = append(out, Window{Items: cur})
			cur = nil
		}
	}

	for _, child := range effective {
		childSize := s.measureSpan(child.StartByte(), child.EndByte())

		if childSize > s.Budget {
			// The child cannot fit any window by itself. Close the
			// current window and splice the child's own windows in
			// place; they never merge with siblings on either side.
			flush()
			sub, err := s.split(child)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}

		if len(cur) > 0 && s.measureSpan(cur[0].StartByte(), child.EndByte()) > s.Budget {
			flush()
		}
		cur = append(cur, child)
	}
	flush()

	return out, nil
}

// measureSpan measures the source bytes in [start, end).
func (s *Splitter) measureSpan(start, end uint32) int {
	if start >= end {
		return 0
	}
	return s.Measure(s.Source[start:end])
}

// validateGrouping checks that a grouping rule only fused adjacent runs:
// flattening its output one NodeGroup level deep must reproduce the
// input sequence exactly. Anything else would silently corrupt the
// coverage guarantee.
func validateGrouping(in, out []Chunkable) error {
	flat := make([]Chunkable, 0, len(in))
	for _, c := range out {
		if g, ok := c.(*NodeGroup); ok {
			flat = append(flat, g.Children()...)
		} else {
			flat = append(flat, c)
		}
	}

	if len(flat) != len(in) {
		return fmt.Errorf("%w: %d nodes in, %d nodes out", types.ErrBadGroupRule, len(in), len(flat))
	}
	for i := range in {
		if flat[i].StartByte() != in[i].StartByte() || flat[i].EndByte() != in[i].EndByte() {
			return fmt.Errorf("%w: node %d moved from [%d,%d) to [%d,%d)",
				types.ErrBadGroupRule, i,
				in[i].StartByte(), in[i].EndByte(),
				flat[i].StartByte(), flat[i].EndByte())
		}
	}
	return nil
}
