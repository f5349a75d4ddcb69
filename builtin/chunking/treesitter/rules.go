package treesitter

// Rule describes which sibling kinds must be fused before packing. An
// adjacent run of Attach-kind nodes followed by a Primary-kind node
// becomes one NodeGroup; an attach run not followed by a primary is
// left as individual nodes. Rules are data; the mechanism that applies
// them is grammar-agnostic.
type Rule struct {
	Attach  map[string]bool // kinds that bind to the following primary node
	Primary map[string]bool // kinds that close an attach run
}

// Apply fuses adjacent attach runs with their primary node. Source
// order is preserved and no node is dropped or duplicated, so Apply is
// a valid GroupFunc.
func (r Rule) Apply(children []Chunkable) []Chunkable {
	if len(r.Attach) == 0 {
		return children
	}

	out := make([]Chunkable, 0, len(children))
	var run []Chunkable

	for _, c := range children {
		kind := c.Kind()
		switch {
		case r.Attach[kind]:
			run = append(run, c)
		case r.Primary[kind] && len(run) > 0:
			group, _ := NewNodeGroup(append(run, c))
			out = append(out, group)
			run = nil
		default:
			out = append(out, run...)
			run = nil
			out = append(out, c)
		}
	}
	out = append(out, run...)

	return out
}

// kinds builds a membership set from a list of node kinds.
func kinds(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// languageRules maps a language to its grouping rule. Comments bind to
// the following definition everywhere; decorator/annotation/attribute
// kinds are per-grammar.
var languageRules = map[string]Rule{
	"python": {
		Attach: kinds("decorator", "comment"),
		Primary: kinds(
			"function_definition", "class_definition", "decorated_definition",
		),
	},
	"go": {
		Attach: kinds("comment"),
		Primary: kinds(
			"function_declaration", "method_declaration", "type_declaration",
			"const_declaration", "var_declaration",
		),
	},
	"rust": {
		Attach: kinds("attribute_item", "line_comment", "block_comment"),
		Primary: kinds(
			"function_item", "struct_item", "enum_item", "impl_item",
			"trait_item", "mod_item", "macro_definition",
		),
	},
	"java": {
		Attach: kinds("marker_annotation", "annotation", "line_comment", "block_comment"),
		Primary: kinds(
			"class_declaration", "interface_declaration", "method_declaration",
			"constructor_declaration", "enum_declaration", "field_declaration",
		),
	},
	"javascript": {
		Attach: kinds("decorator", "comment"),
		Primary: kinds(
			"function_declaration", "class_declaration", "method_definition",
			"export_statement", "lexical_declaration", "variable_declaration",
		),
	},
	"typescript": {
		Attach: kinds("decorator", "comment"),
		Primary: kinds(
			"function_declaration", "class_declaration", "abstract_class_declaration",
			"method_definition", "export_statement", "lexical_declaration",
			"variable_declaration", "interface_declaration",
			"type_alias_declaration", "enum_declaration",
		),
	},
	"ruby": {
		Attach:  kinds("comment"),
		Primary: kinds("method", "singleton_method", "class", "module"),
	},
	"csharp": {
		Attach: kinds("attribute_list", "comment"),
		Primary: kinds(
			"class_declaration", "interface_declaration", "method_declaration",
			"struct_declaration", "enum_declaration", "property_declaration",
			"record_declaration",
		),
	},
	"kotlin": {
		Attach: kinds("annotation", "line_comment", "multiline_comment"),
		Primary: kinds(
			"function_declaration", "class_declaration", "object_declaration",
			"property_declaration",
		),
	},
	"php": {
		Attach: kinds("attribute_list", "comment"),
		Primary: kinds(
			"function_definition", "method_declaration", "class_declaration",
			"interface_declaration", "trait_declaration",
		),
	},
	"c": {
		Attach:  kinds("comment"),
		Primary: kinds("function_definition", "struct_specifier", "enum_specifier", "declaration"),
	},
	"cpp": {
		Attach: kinds("comment"),
		Primary: kinds(
			"function_definition", "struct_specifier", "class_specifier",
			"enum_specifier", "declaration", "template_declaration",
		),
	},
	"bash": {
		Attach:  kinds("comment"),
		Primary: kinds("function_definition"),
	},
	"lua": {
		Attach:  kinds("comment"),
		Primary: kinds("function_declaration", "local_function", "function_definition"),
	},
}

// RuleForLanguage returns the grouping rule for a language. Unknown
// languages get an empty rule, which applies as identity.
func RuleForLanguage(lang string) Rule {
	switch lang {
	case "jsx":
		lang = "javascript"
	case "tsx":
		lang = "typescript"
	}
	return languageRules[lang]
}
