package treesitter

import (
	"bytes"

	"github.com/spetr/codechunk/pkg/types"
)

// classifyWindow determines the chunk type and name for a window. A
// window packing several siblings is a plain block; a single item is
// classified by its kind, which for a NodeGroup is the kind of its
// primary member. Whitespace-only tokens do not count as items: some
// grammars (Go among them) expose newline tokens as siblings of
// top-level declarations, and the packer carries them into windows
// like any other node.
func classifyWindow(w Window, src []byte, lang string) (types.ChunkType, string) {
	var item Chunkable
	for _, it := range w.Items {
		if isBlankToken(it, src) {
			continue
		}
		if item != nil {
			return types.ChunkTypeBlock, ""
		}
		item = it
	}
	if item == nil {
		return types.ChunkTypeBlock, ""
	}
	chunkType, nameKinds := classifyKind(lang, item.Kind())
	if chunkType == "" {
		return types.ChunkTypeBlock, ""
	}

	name := findChildText(primaryOf(item), src, nameKinds...)
	return chunkType, name
}

// isBlankToken reports whether a node covers only whitespace.
func isBlankToken(c Chunkable, src []byte) bool {
	if _, ok := c.(*NodeGroup); ok {
		return false
	}
	return len(bytes.TrimSpace(src[c.StartByte():c.EndByte()])) == 0
}

// primaryOf resolves the node that names a chunk: for a NodeGroup that
// is its last member, recursively.
func primaryOf(c Chunkable) Chunkable {
	if g, ok := c.(*NodeGroup); ok {
		members := g.Children()
		return primaryOf(members[len(members)-1])
	}
	return c
}

// findChildText returns the source text of the first child, or
// grandchild, whose kind matches any of the given kinds. Names often
// sit one level down, e.g. inside Go's type_spec or C's
// function_declarator.
func findChildText(c Chunkable, src []byte, childKinds ...string) string {
	children := c.Children()
	for _, child := range children {
		for _, kind := range childKinds {
			if child.Kind() == kind {
				return string(src[child.StartByte():child.EndByte()])
			}
		}
	}
	for _, child := range children {
		for _, grandchild := range child.Children() {
			for _, kind := range childKinds {
				if grandchild.Kind() == kind {
					return string(src[grandchild.StartByte():grandchild.EndByte()])
				}
			}
		}
	}
	return ""
}

// classifyKind maps a node kind to a chunk type and the child kinds
// that carry the unit's name.
func classifyKind(lang, kind string) (types.ChunkType, []string) {
	switch lang {
	case "go":
		switch kind {
		case "function_declaration":
			return types.ChunkTypeFunction, []string{"identifier"}
		case "method_declaration":
			return types.ChunkTypeMethod, []string{"field_identifier"}
		case "type_declaration":
			return types.ChunkTypeClass, []string{"type_identifier"}
		}
	case "python":
		switch kind {
		case "function_definition":
			return types.ChunkTypeFunction, []string{"identifier"}
		case "class_definition":
			return types.ChunkTypeClass, []string{"identifier"}
		case "decorated_definition":
			return types.ChunkTypeFunction, []string{"identifier"}
		}
	case "javascript", "jsx", "typescript", "tsx":
		switch kind {
		case "function_declaration":
			return types.ChunkTypeFunction, []string{"identifier"}
		case "class_declaration", "abstract_class_declaration":
			return types.ChunkTypeClass, []string{"identifier", "type_identifier"}
		case "method_definition":
			return types.ChunkTypeMethod, []string{"property_identifier"}
		case "interface_declaration", "type_alias_declaration", "enum_declaration":
			return types.ChunkTypeClass, []string{"type_identifier", "identifier"}
		}
	case "rust":
		switch kind {
		case "function_item":
			return types.ChunkTypeFunction, []string{"identifier"}
		case "struct_item", "enum_item", "trait_item":
			return types.ChunkTypeClass, []string{"type_identifier"}
		case "impl_item":
			return types.ChunkTypeClass, []string{"type_identifier"}
		}
	case "java":
		switch kind {
		case "method_declaration", "constructor_declaration":
			return types.ChunkTypeMethod, []string{"identifier"}
		case "class_declaration", "interface_declaration", "enum_declaration":
			return types.ChunkTypeClass, []string{"identifier"}
		}
	case "c", "h", "cpp":
		switch kind {
		case "function_definition":
			return types.ChunkTypeFunction, []string{"identifier"}
		case "struct_specifier", "class_specifier", "enum_specifier":
			return types.ChunkTypeClass, []string{"type_identifier"}
		}
	case "ruby":
		switch kind {
		case "method":
			return types.ChunkTypeFunction, []string{"identifier"}
		case "singleton_method":
			return types.ChunkTypeMethod, []string{"identifier"}
		case "class", "module":
			return types.ChunkTypeClass, []string{"constant"}
		}
	case "php":
		switch kind {
		case "function_definition":
			return types.ChunkTypeFunction, []string{"name"}
		case "method_declaration":
			return types.ChunkTypeMethod, []string{"name"}
		case "class_declaration", "interface_declaration", "trait_declaration":
			return types.ChunkTypeClass, []string{"name"}
		}
	case "csharp":
		switch kind {
		case "method_declaration":
			return types.ChunkTypeMethod, []string{"identifier"}
		case "class_declaration", "interface_declaration", "struct_declaration",
			"enum_declaration", "record_declaration":
			return types.ChunkTypeClass, []string{"identifier"}
		}
	case "kotlin":
		switch kind {
		case "function_declaration":
			return types.ChunkTypeFunction, []string{"simple_identifier"}
		case "class_declaration", "object_declaration":
			return types.ChunkTypeClass, []string{"type_identifier"}
		}
	case "bash":
		if kind == "function_definition" {
			return types.ChunkTypeFunction, []string{"word"}
		}
	case "lua":
		switch kind {
		case "function_declaration", "local_function":
			return types.ChunkTypeFunction, []string{"identifier"}
		}
	}
	return "", nil
}
