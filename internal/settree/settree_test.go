package settree

import (
	"strings"
	"testing"

	"github.com/rpslverify/rpslverify/internal/ir"
	"github.com/rpslverify/rpslverify/internal/query"
)

func TestTreeRecordCallsOnNewOnlyForFreshNames(t *testing.T) {
	root := Tree{}
	var newNames []string
	onNew := func(name string) { newNames = append(newNames, name) }

	root.Record([]string{"AS-FOO", "AS-BAR"}, onNew)
	root.Record([]string{"AS-FOO", "AS-BAR"}, onNew)
	root.Record([]string{"AS-FOO", "AS-BAZ"}, onNew)

	want := []string{"AS-FOO", "AS-BAR", "AS-BAZ"}
	if len(newNames) != len(want) {
		t.Fatalf("got %v, want %v", newNames, want)
	}
	for i, n := range want {
		if newNames[i] != n {
			t.Fatalf("got %v, want %v", newNames, want)
		}
	}
}

func TestTreeFprintRendersBoxDrawing(t *testing.T) {
	root := Tree{}
	root.Record([]string{"AS-FOO", "AS64500"}, nil)
	root.Record([]string{"AS-BAR"}, nil)

	var buf strings.Builder
	root.Fprint(&buf, true, "")
	out := buf.String()
	if !strings.Contains(out, "AS-FOO") || !strings.Contains(out, "AS-BAR") {
		t.Fatalf("expected both root names in output, got %q", out)
	}
	if !strings.Contains(out, "AS64500") {
		t.Fatalf("expected nested name in output, got %q", out)
	}
}

func TestExplainAsSetWalksNestedSets(t *testing.T) {
	data := &ir.IR{AsSets: map[string]*ir.AsSet{
		"AS-OUTER": {Name: "AS-OUTER", Members: []ir.AsName{ir.SetName("AS-INNER"), ir.Num(64500)}},
		"AS-INNER": {Name: "AS-INNER", Members: []ir.AsName{ir.Num(64501)}},
	}}
	idx := query.New(data)
	tree := ExplainAsSet(idx, "AS-OUTER")
	if _, ok := tree["AS-INNER"]; !ok {
		t.Fatalf("got %+v, want AS-INNER as a child", tree)
	}
}

func TestExplainAsSetHandlesCycles(t *testing.T) {
	data := &ir.IR{AsSets: map[string]*ir.AsSet{
		"AS-A": {Name: "AS-A", Members: []ir.AsName{ir.SetName("AS-B")}},
		"AS-B": {Name: "AS-B", Members: []ir.AsName{ir.SetName("AS-A")}},
	}}
	idx := query.New(data)
	// Must terminate rather than recursing forever.
	tree := ExplainAsSet(idx, "AS-A")
	if _, ok := tree["AS-B"]; !ok {
		t.Fatalf("got %+v, want AS-B as a child", tree)
	}
}

func TestExplainAsSetUnknownNameYieldsEmptyTree(t *testing.T) {
	idx := query.New(&ir.IR{AsSets: map[string]*ir.AsSet{}})
	tree := ExplainAsSet(idx, "AS-MISSING")
	if len(tree) != 0 {
		t.Fatalf("got %+v, want an empty tree for an undefined as-set", tree)
	}
}
