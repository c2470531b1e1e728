// Package peering evaluates an mp_peering clause (the <as-expr> half of
// an Entry, spec.md §4.6) against the counterpart AS observed at a hop.
// Router expressions are parsed and kept for diagnostics but never
// change the accept/reject outcome, per spec.md §4.6/§9: routers are
// below the granularity this verifier checks.
package peering

import (
	"github.com/rpslverify/rpslverify/internal/ir"
	"github.com/rpslverify/rpslverify/internal/lattice"
	"github.com/rpslverify/rpslverify/internal/query"
)

const maxDepth = 256

// Eval reports whether counterpart (the AS on the other side of the
// hop being checked) is accepted by p's remote-as expression.
func Eval(idx *query.Index, p ir.Peering, counterpart uint32) lattice.AnyReport {
	return evalExpr(idx, p.RemoteAS, counterpart, maxDepth)
}

func evalExpr(idx *query.Index, e ir.AsExpr, counterpart uint32, depth int) lattice.AnyReport {
	if depth <= 0 {
		return lattice.SkipAny(lattice.RecCheckFilter())
	}

	switch e.Kind {
	case ir.AsExprSingle:
		return evalName(idx, e.Name, counterpart)

	case ir.AsExprPeeringSetRef:
		set, ok := idx.IR().PeeringSets[e.Set]
		if !ok {
			return lattice.UnrecAny(lattice.UnrecordedSet(e.Set))
		}
		var acc lattice.AnyReport
		first := true
		for _, peering := range set.Peerings {
			r := evalExpr(idx, peering.RemoteAS, counterpart, depth-1)
			if first {
				acc = r
				first = false
				continue
			}
			acc = acc.CombineAny(r)
		}
		if first {
			return lattice.IdentityAny()
		}
		return acc

	case ir.AsExprAnd:
		left := evalExpr(idx, *e.Left, counterpart, depth-1).ToAll()
		right := evalExpr(idx, *e.Right, counterpart, depth-1).ToAll()
		return left.CombineAll(right).ToAny()

	case ir.AsExprOr:
		left := evalExpr(idx, *e.Left, counterpart, depth-1)
		right := evalExpr(idx, *e.Right, counterpart, depth-1)
		return left.CombineAny(right)

	case ir.AsExprExcept:
		left := evalExpr(idx, *e.Left, counterpart, depth-1)
		right := evalExpr(idx, *e.Right, counterpart, depth-1)
		if right.Ok {
			return lattice.BadAny(lattice.NoMatch("PeeringExcept"))
		}
		return left

	default:
		return lattice.BadAny(lattice.BadRpsl("unrecognized as-expr kind"))
	}
}

func evalName(idx *query.Index, n ir.AsName, counterpart uint32) lattice.AnyReport {
	switch n.Kind {
	case ir.AsNameNum:
		if n.Num == counterpart {
			return lattice.OkAny()
		}
		return lattice.BadAny(lattice.NoMatch("PeeringAsNum"))
	case ir.AsNameAny:
		return lattice.OkAny()
	case ir.AsNameSet:
		members, ok := idx.AsSetMembers(n.Set)
		if !ok {
			return lattice.UnrecAny(lattice.UnrecordedSet(n.Set))
		}
		for _, asn := range members {
			if asn == counterpart {
				return lattice.OkAny()
			}
		}
		return lattice.BadAny(lattice.NoMatch("PeeringAsSet"))
	default:
		return lattice.BadAny(lattice.BadRpsl(n.Text))
	}
}
