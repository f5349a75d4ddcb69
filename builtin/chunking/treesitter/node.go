// Package treesitter implements structure-aware chunking on Tree-sitter
// syntax trees: files are partitioned into contiguous byte-range windows
// bounded by a size budget, without ever splitting a semantic unit (such
// as a function with its decorators) unless that unit alone exceeds the
// budget, in which case it is recursively subdivided along its children.
package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Chunkable is the node-like view the splitter operates on. Both real
// syntax nodes and NodeGroups satisfy it, so the splitting algorithm is
// written once against this interface and never branches on concrete
// types.
type Chunkable interface {
	StartByte() uint32
	EndByte() uint32
	StartPoint() sitter.Point
	EndPoint() sitter.Point
	Kind() string
	Children() []Chunkable
}

// syntaxNode adapts *sitter.Node to Chunkable. The underlying node is
// owned by its tree and never mutated here.
type syntaxNode struct {
	n *sitter.Node
}

// WrapNode wraps a parsed Tree-sitter node as a Chunkable.
func WrapNode(n *sitter.Node) Chunkable {
	return syntaxNode{n: n}
}

func (s syntaxNode) StartByte() uint32 { return s.n.StartByte() }

func (s syntaxNode) EndByte() uint32 { return s.n.EndByte() }

func (s syntaxNode) StartPoint() sitter.Point { return s.n.StartPoint() }

func (s syntaxNode) EndPoint() sitter.Point { return s.n.EndPoint() }

func (s syntaxNode) Kind() string { return s.n.Type() }

func (s syntaxNode) Children() []Chunkable {
	count := int(s.n.ChildCount())
	if count == 0 {
		return nil
	}
	children := make([]Chunkable, 0, count)
	for i := 0; i < count; i++ {
		children = append(children, syntaxNode{n: s.n.Child(i)})
	}
	return children
}
