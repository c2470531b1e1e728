package query

import (
	"net"
	"testing"

	"github.com/rpslverify/rpslverify/internal/ir"
)

func mustCIDR(t *testing.T, s string) *net.IPNet {
	t.Helper()
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		t.Fatalf("ParseCIDR(%q): %v", s, err)
	}
	return n
}

func TestAsSetMembersResolvesNestedSets(t *testing.T) {
	data := &ir.IR{
		AsSets: map[string]*ir.AsSet{
			"AS-OUTER": {Name: "AS-OUTER", Members: []ir.AsName{ir.SetName("AS-INNER"), ir.Num(64501)}},
			"AS-INNER": {Name: "AS-INNER", Members: []ir.AsName{ir.Num(64500)}},
		},
	}
	idx := New(data)
	members, ok := idx.AsSetMembers("AS-OUTER")
	if !ok {
		t.Fatal("expected AS-OUTER to resolve")
	}
	got := map[uint32]bool{}
	for _, m := range members {
		got[m] = true
	}
	if !got[64500] || !got[64501] {
		t.Fatalf("got %v, want 64500 and 64501", members)
	}
}

func TestAsSetMembersHandlesCycles(t *testing.T) {
	data := &ir.IR{
		AsSets: map[string]*ir.AsSet{
			"AS-A": {Name: "AS-A", Members: []ir.AsName{ir.SetName("AS-B"), ir.Num(1)}},
			"AS-B": {Name: "AS-B", Members: []ir.AsName{ir.SetName("AS-A"), ir.Num(2)}},
		},
	}
	idx := New(data)
	members, ok := idx.AsSetMembers("AS-A")
	if !ok {
		t.Fatal("expected AS-A to resolve despite the cycle")
	}
	got := map[uint32]bool{}
	for _, m := range members {
		got[m] = true
	}
	if !got[1] || !got[2] {
		t.Fatalf("got %v, want 1 and 2", members)
	}
}

func TestAsSetMembersUnknownName(t *testing.T) {
	idx := New(&ir.IR{AsSets: map[string]*ir.AsSet{}})
	if _, ok := idx.AsSetMembers("AS-MISSING"); ok {
		t.Fatal("expected ok=false for an undefined as-set")
	}
}

func TestRouteSetMembersResolvesAsSetMember(t *testing.T) {
	net1 := mustCIDR(t, "192.0.2.0/24")
	data := &ir.IR{
		AsSets: map[string]*ir.AsSet{
			"AS-FOO": {Name: "AS-FOO", Members: []ir.AsName{ir.Num(64500)}},
		},
		RouteSets: map[string]*ir.RouteSet{
			"RS-FOO": {Name: "RS-FOO", Members: []ir.RouteSetMember{{Kind: ir.RouteSetMemberSetRef, SetRef: "AS-FOO"}}},
		},
		AsRoutes: map[uint32][]*net.IPNet{64500: {net1}},
	}
	idx := New(data)
	members, ok := idx.RouteSetMembers("RS-FOO")
	if !ok || len(members) != 1 {
		t.Fatalf("got %+v, ok=%v, want one member", members, ok)
	}
	if members[0].Prefix.String() != net1.String() {
		t.Fatalf("got prefix %v, want %v", members[0].Prefix, net1)
	}
}

func TestContainsRouteExactMatch(t *testing.T) {
	net1 := mustCIDR(t, "192.0.2.0/24")
	data := &ir.IR{
		RouteSets: map[string]*ir.RouteSet{
			"RS-FOO": {Name: "RS-FOO", Members: []ir.RouteSetMember{
				{Kind: ir.RouteSetMemberPrefix, Prefix: ir.AddrPfxRange{Prefix: net1, Op: ir.RangeOp{Kind: ir.RangeExact}}},
			}},
		},
	}
	idx := New(data)
	if !idx.ContainsRoute("RS-FOO", net1) {
		t.Fatal("expected exact match to be contained")
	}
	other := mustCIDR(t, "198.51.100.0/24")
	if idx.ContainsRoute("RS-FOO", other) {
		t.Fatal("did not expect an unrelated prefix to be contained")
	}
}

func TestContainsRouteUnknownSet(t *testing.T) {
	idx := New(&ir.IR{RouteSets: map[string]*ir.RouteSet{}})
	if idx.ContainsRoute("RS-MISSING", mustCIDR(t, "192.0.2.0/24")) {
		t.Fatal("expected false for an undefined route-set")
	}
}

func TestSetReferenceComponentsGroupsLinkedSets(t *testing.T) {
	data := &ir.IR{
		AsSets: map[string]*ir.AsSet{
			"AS-A": {Name: "AS-A", Members: []ir.AsName{ir.SetName("AS-B")}},
			"AS-B": {Name: "AS-B"},
			"AS-C": {Name: "AS-C"},
		},
	}
	idx := New(data)
	components := idx.SetReferenceComponents()
	foundPair := false
	for _, c := range components {
		has := map[string]bool{}
		for _, n := range c {
			has[n] = true
		}
		if has["AS-A"] && has["AS-B"] {
			foundPair = true
		}
	}
	if !foundPair {
		t.Fatalf("expected AS-A and AS-B in the same component, got %v", components)
	}
}
