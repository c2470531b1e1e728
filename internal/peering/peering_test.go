package peering

import (
	"testing"

	"github.com/rpslverify/rpslverify/internal/ir"
	"github.com/rpslverify/rpslverify/internal/lattice"
	"github.com/rpslverify/rpslverify/internal/query"
)

func single(n ir.AsName) ir.AsExpr { return ir.AsExpr{Kind: ir.AsExprSingle, Name: n} }

func TestEvalPeeringAsNum(t *testing.T) {
	idx := query.New(&ir.IR{})
	p := ir.Peering{RemoteAS: single(ir.Num(64500))}
	if got := Eval(idx, p, 64500); !got.Ok {
		t.Fatalf("got %+v, want Ok", got)
	}
	if got := Eval(idx, p, 64501); got.Ok || got.Grade != lattice.GradeBad {
		t.Fatalf("got %+v, want Bad", got)
	}
}

func TestEvalPeeringAny(t *testing.T) {
	idx := query.New(&ir.IR{})
	p := ir.Peering{RemoteAS: single(ir.AnyAS())}
	if got := Eval(idx, p, 1); !got.Ok {
		t.Fatalf("got %+v, want Ok for ANY", got)
	}
}

func TestEvalPeeringAsSetUnrecorded(t *testing.T) {
	idx := query.New(&ir.IR{AsSets: map[string]*ir.AsSet{}})
	p := ir.Peering{RemoteAS: single(ir.SetName("AS-MISSING"))}
	got := Eval(idx, p, 1)
	if got.Ok || got.Grade != lattice.GradeUnrec {
		t.Fatalf("got %+v, want Unrec", got)
	}
}

func TestEvalPeeringExcept(t *testing.T) {
	idx := query.New(&ir.IR{})
	left := single(ir.AnyAS())
	right := single(ir.Num(64500))
	p := ir.Peering{RemoteAS: ir.AsExpr{Kind: ir.AsExprExcept, Left: &left, Right: &right}}
	if got := Eval(idx, p, 64500); got.Ok {
		t.Fatalf("got %+v, want non-Ok: 64500 is excluded", got)
	}
	if got := Eval(idx, p, 1); !got.Ok {
		t.Fatalf("got %+v, want Ok: 1 is not excluded", got)
	}
}

func TestEvalPeeringAnd(t *testing.T) {
	idx := query.New(&ir.IR{})
	left := single(ir.AnyAS())
	right := single(ir.Num(64500))
	p := ir.Peering{RemoteAS: ir.AsExpr{Kind: ir.AsExprAnd, Left: &left, Right: &right}}
	if got := Eval(idx, p, 64500); !got.Ok {
		t.Fatalf("got %+v, want Ok", got)
	}
	if got := Eval(idx, p, 1); got.Ok || got.Grade != lattice.GradeBad {
		t.Fatalf("got %+v, want Bad", got)
	}
}

func TestEvalPeeringOr(t *testing.T) {
	idx := query.New(&ir.IR{})
	left := single(ir.Num(1))
	right := single(ir.Num(2))
	p := ir.Peering{RemoteAS: ir.AsExpr{Kind: ir.AsExprOr, Left: &left, Right: &right}}
	if got := Eval(idx, p, 2); !got.Ok {
		t.Fatalf("got %+v, want Ok", got)
	}
	if got := Eval(idx, p, 3); got.Ok || got.Grade != lattice.GradeBad {
		t.Fatalf("got %+v, want Bad", got)
	}
}

func TestEvalPeeringSetRef(t *testing.T) {
	data := &ir.IR{PeeringSets: map[string]*ir.PeeringSet{
		"PRNG-FOO": {Name: "PRNG-FOO", Peerings: []ir.Peering{
			{RemoteAS: single(ir.Num(64500))},
			{RemoteAS: single(ir.Num(64501))},
		}},
	}}
	idx := query.New(data)
	p := ir.Peering{RemoteAS: ir.AsExpr{Kind: ir.AsExprPeeringSetRef, Set: "PRNG-FOO"}}
	if got := Eval(idx, p, 64501); !got.Ok {
		t.Fatalf("got %+v, want Ok", got)
	}
	if got := Eval(idx, p, 1); got.Ok || got.Grade != lattice.GradeBad {
		t.Fatalf("got %+v, want Bad", got)
	}
}

func TestEvalPeeringSetRefUnrecorded(t *testing.T) {
	idx := query.New(&ir.IR{PeeringSets: map[string]*ir.PeeringSet{}})
	p := ir.Peering{RemoteAS: ir.AsExpr{Kind: ir.AsExprPeeringSetRef, Set: "PRNG-MISSING"}}
	got := Eval(idx, p, 1)
	if got.Ok || got.Grade != lattice.GradeUnrec {
		t.Fatalf("got %+v, want Unrec", got)
	}
}
