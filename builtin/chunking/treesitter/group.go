package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/spetr/codechunk/pkg/types"
)

// NodeGroup is a virtual node fusing an ordered run of sibling nodes so
// the splitter treats them as one atomic unit. The canonical use is
// binding decorators, annotations and doc comments to the definition
// they belong to.
//
// The group's span runs from the first member's start to the last
// member's end; the bytes in between may include source the members do
// not cover (blank lines, unrelated comments). Its kind is the kind of
// the last member, the primary node the group exists to protect, so
// downstream classification sees "function_definition", not "decorator".
type NodeGroup struct {
	members []Chunkable
}

// NewNodeGroup creates a group from an ordered, non-empty run of sibling
// nodes. An empty run is a programming error and fails with
// types.ErrEmptyGroup.
func NewNodeGroup(members []Chunkable) (*NodeGroup, error) {
	if len(members) == 0 {
		return nil, types.ErrEmptyGroup
	}
	return &NodeGroup{members: members}, nil
}

func (g *NodeGroup) StartByte() uint32 { return g.members[0].StartByte() }

func (g *NodeGroup) EndByte() uint32 { return g.members[len(g.members)-1].EndByte() }

func (g *NodeGroup) StartPoint() sitter.Point { return g.members[0].StartPoint() }

func (g *NodeGroup) EndPoint() sitter.Point { return g.members[len(g.members)-1].EndPoint() }

// Kind returns the kind of the primary (last) member.
func (g *NodeGroup) Kind() string { return g.members[len(g.members)-1].Kind() }

// Children exposes the members themselves so recursive splitting can
// assign each one to a window independently.
func (g *NodeGroup) Children() []Chunkable {
	out := make([]Chunkable, len(g.members))
	copy(out, g.members)
	return out
}

// Text reconstructs the group's content by joining each member's slice
// of src with a newline. This is an approximation: when the group spans
// gaps the result disagrees with the source. Canonical output always
// slices src by [StartByte, EndByte) instead.
func (g *NodeGroup) Text(src []byte) []byte {
	var out []byte
	for i, m := range g.members {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, src[m.StartByte():m.EndByte()]...)
	}
	return out
}
