package treesitter

import "testing"

func applyKinds(t *testing.T, rule Rule, children []Chunkable) []string {
	t.Helper()
	out := rule.Apply(children)
	names := make([]string, len(out))
	for i, c := range out {
		names[i] = c.Kind()
	}
	return names
}

func TestRuleApplyFusesAttachRun(t *testing.T) {
	rule := Rule{
		Attach:  kinds("decorator", "comment"),
		Primary: kinds("function_definition"),
	}
	children := []Chunkable{
		leaf("comment", 0, 10),
		leaf("decorator", 10, 20),
		leaf("function_definition", 20, 80),
		leaf("expression_statement", 80, 90),
	}

	out := rule.Apply(children)
	if len(out) != 2 {
		t.Fatalf("got %d nodes, want 2", len(out))
	}

	group, ok := out[0].(*NodeGroup)
	if !ok {
		t.Fatalf("out[0] is %T, want *NodeGroup", out[0])
	}
	if group.StartByte() != 0 || group.EndByte() != 80 {
		t.Errorf("group span = [%d,%d), want [0,80)", group.StartByte(), group.EndByte())
	}
	if group.Kind() != "function_definition" {
		t.Errorf("group kind = %q, want function_definition", group.Kind())
	}
	if out[1].Kind() != "expression_statement" {
		t.Errorf("out[1] kind = %q", out[1].Kind())
	}
}

func TestRuleApplyDanglingRunStaysIndividual(t *testing.T) {
	rule := Rule{
		Attach:  kinds("decorator"),
		Primary: kinds("function_definition"),
	}

	tests := []struct {
		name     string
		children []Chunkable
		want     []string
	}{
		{
			name: "run broken by non-primary",
			children: []Chunkable{
				leaf("decorator", 0, 5),
				leaf("expression_statement", 5, 15),
				leaf("function_definition", 15, 40),
			},
			want: []string{"decorator", "expression_statement", "function_definition"},
		},
		{
			name: "run at end of level",
			children: []Chunkable{
				leaf("function_definition", 0, 30),
				leaf("decorator", 30, 35),
			},
			want: []string{"function_definition", "decorator"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyKinds(t, rule, tt.children)
			if len(got) != len(tt.want) {
				t.Fatalf("kinds = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("kinds = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestRuleApplyConsecutiveGroups(t *testing.T) {
	rule := Rule{
		Attach:  kinds("decorator"),
		Primary: kinds("function_definition"),
	}
	children := []Chunkable{
		leaf("decorator", 0, 5),
		leaf("function_definition", 5, 30),
		leaf("decorator", 30, 35),
		leaf("function_definition", 35, 70),
	}

	out := rule.Apply(children)
	if len(out) != 2 {
		t.Fatalf("got %d nodes, want 2", len(out))
	}
	for i, c := range out {
		if _, ok := c.(*NodeGroup); !ok {
			t.Errorf("out[%d] is %T, want *NodeGroup", i, c)
		}
	}
}

func TestRuleApplyEmptyRuleIsIdentity(t *testing.T) {
	children := []Chunkable{
		leaf("decorator", 0, 5),
		leaf("function_definition", 5, 30),
	}

	out := Rule{}.Apply(children)
	if len(out) != len(children) {
		t.Fatalf("got %d nodes, want %d", len(out), len(children))
	}
	for i := range children {
		if out[i] != children[i] {
			t.Errorf("out[%d] differs from input", i)
		}
	}
}

func TestRuleApplyOutputIsValidGrouping(t *testing.T) {
	// Every rule's output must survive the splitter's contract check.
	for lang, rule := range languageRules {
		t.Run(lang, func(t *testing.T) {
			var children []Chunkable
			pos := uint32(0)
			add := func(kind string, size uint32) {
				children = append(children, leaf(kind, pos, pos+size))
				pos += size
			}
			for attach := range rule.Attach {
				add(attach, 5)
			}
			for primary := range rule.Primary {
				add(primary, 20)
			}
			add("unrelated_statement", 10)

			out := rule.Apply(children)
			if err := validateGrouping(children, out); err != nil {
				t.Errorf("grouping contract violated: %v", err)
			}
		})
	}
}

func TestRuleApplyIdempotent(t *testing.T) {
	// Groups formed by one pass carry their primary kind with no attach
	// run in front of them, so a second pass leaves the sequence alone.
	rule := Rule{
		Attach:  kinds("decorator", "comment"),
		Primary: kinds("function_definition"),
	}
	children := []Chunkable{
		leaf("comment", 0, 10),
		leaf("decorator", 10, 20),
		leaf("function_definition", 20, 80),
		leaf("expression_statement", 80, 90),
		leaf("decorator", 90, 95),
	}

	once := rule.Apply(children)
	twice := rule.Apply(once)

	if len(twice) != len(once) {
		t.Fatalf("second apply changed length: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if twice[i] != once[i] {
			t.Errorf("second apply changed element %d", i)
		}
	}
}

func TestRuleForLanguage(t *testing.T) {
	if rule := RuleForLanguage("python"); !rule.Attach["decorator"] {
		t.Error("python rule missing decorator attach")
	}
	if rule := RuleForLanguage("tsx"); !rule.Primary["interface_declaration"] {
		t.Error("tsx did not inherit typescript rule")
	}
	if rule := RuleForLanguage("jsx"); !rule.Primary["function_declaration"] {
		t.Error("jsx did not inherit javascript rule")
	}
	if rule := RuleForLanguage("cobol"); rule.Attach != nil || rule.Primary != nil {
		t.Error("unknown language should get the empty rule")
	}
}
