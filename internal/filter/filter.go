// Package filter evaluates an mp_filter expression against a candidate
// route (spec.md §4.5). Evaluation never panics: a malformed or
// unresolvable filter always contributes a lattice grade, never a Go
// error, since a single bad aut-num object must not abort the whole
// compliance run (spec.md §7).
package filter

import (
	"net"

	"github.com/rpslverify/rpslverify/internal/aspath"
	"github.com/rpslverify/rpslverify/internal/ir"
	"github.com/rpslverify/rpslverify/internal/lattice"
	"github.com/rpslverify/rpslverify/internal/query"
	"github.com/rpslverify/rpslverify/internal/verbosity"
)

// maxDepth bounds filter-tree recursion (And/Or/Not/Group nesting and
// filter-set indirection); exceeding it yields Skip(RecCheckFilter)
// rather than risking runaway or circular filter-set references
// (spec.md §4.5 edge cases).
const maxDepth = 256

// Route is the candidate a filter is checked against: the prefix being
// advertised, its origin AS, and the AS path carried along with it (used
// by FilterAsPathRE and by the per-atom RegexOp conformance checks).
type Route struct {
	Prefix *net.IPNet
	Origin uint32
	Path   []uint32
}

// Eval evaluates f against route using idx to resolve set references.
func Eval(idx *query.Index, f ir.Filter, route Route, v verbosity.Verbosity) lattice.AnyReport {
	return eval(idx, f, route, v, maxDepth)
}

func eval(idx *query.Index, f ir.Filter, route Route, v verbosity.Verbosity, depth int) lattice.AnyReport {
	if depth <= 0 {
		return lattice.SkipAny(lattice.RecCheckFilter())
	}

	switch f.Kind {
	case ir.FilterAny:
		return lattice.OkAny()

	case ir.FilterAsNum:
		if f.RegexOp.Kind == ir.RegexNoOp {
			if route.Origin == f.AsNum {
				return lattice.OkAny()
			}
			return lattice.BadAny(lattice.NoMatch("AsNum"))
		}
		if conforms(route.Path, func(asn uint32) bool { return asn == f.AsNum }, f.RegexOp) {
			return lattice.OkAny()
		}
		return lattice.BadAny(lattice.NoMatch("AsNum"))

	case ir.FilterAsSet:
		members, ok := idx.AsSetMembers(f.SetName)
		if !ok {
			return lattice.UnrecAny(lattice.UnrecordedSet(f.SetName))
		}
		isMember := func(asn uint32) bool {
			for _, m := range members {
				if m == asn {
					return true
				}
			}
			return false
		}
		if f.RegexOp.Kind == ir.RegexNoOp {
			if isMember(route.Origin) {
				return lattice.OkAny()
			}
			return lattice.BadAny(lattice.NoMatch("AsSet"))
		}
		if conforms(route.Path, isMember, f.RegexOp) {
			return lattice.OkAny()
		}
		return lattice.BadAny(lattice.NoMatch("AsSet"))

	case ir.FilterAddrPrefixSet:
		for _, rng := range f.Prefixes {
			if route.Prefix != nil && rng.Contains(route.Prefix) {
				return lattice.OkAny()
			}
		}
		return lattice.BadAny(lattice.NoMatch("AddrPrefixSet"))

	case ir.FilterRouteSet:
		if _, ok := idx.RouteSetMembers(f.SetName); !ok {
			return lattice.UnrecAny(lattice.UnrecordedSet(f.SetName))
		}
		if f.RegexOp.Kind == ir.RegexNoOp {
			if route.Prefix != nil && idx.ContainsRoute(f.SetName, route.Prefix) {
				return lattice.OkAny()
			}
			return lattice.BadAny(lattice.NoMatch("RouteSet"))
		}
		originates := func(asn uint32) bool {
			for _, p := range idx.IR().AsRoutes[asn] {
				if idx.ContainsRoute(f.SetName, p) {
					return true
				}
			}
			return false
		}
		if conforms(route.Path, originates, f.RegexOp) {
			return lattice.OkAny()
		}
		return lattice.BadAny(lattice.NoMatch("RouteSet"))

	case ir.FilterFilterSetRef:
		fs, ok := idx.IR().FilterSets[f.SetName]
		if !ok {
			return lattice.UnrecAny(lattice.UnrecordedSet(f.SetName))
		}
		return eval(idx, fs.Filter, route, v, depth-1)

	case ir.FilterAsPathRE:
		prog := aspath.Compile(f.Tree)
		matched, skip := prog.Match(idx, route.Path)
		if skip {
			return lattice.SkipAny(lattice.RecCheckFilter())
		}
		if matched {
			return lattice.OkAny()
		}
		return lattice.BadAny(lattice.NoMatch("AsPathRE"))

	case ir.FilterAnd:
		left := eval(idx, *f.Left, route, v, depth-1).ToAll()
		right := eval(idx, *f.Right, route, v, depth-1).ToAll()
		return left.CombineAll(right).ToAny()

	case ir.FilterOr:
		left := eval(idx, *f.Left, route, v, depth-1)
		right := eval(idx, *f.Right, route, v, depth-1)
		return left.CombineAny(right)

	case ir.FilterNot:
		return evalNot(eval(idx, *f.Inner, route, v, depth-1))

	case ir.FilterGroup:
		return eval(idx, *f.Inner, route, v, depth-1)

	case ir.FilterCommunity:
		if v.RecordCommunity {
			return lattice.MehAny(lattice.SkipCommunityCheckUnimplemented())
		}
		return lattice.SkipAny(lattice.SkipCommunityCheckUnimplemented())

	case ir.FilterPeeringSetRef:
		return lattice.BadAny(lattice.BadRpsl("peering-set reference used as a filter"))

	case ir.FilterInvalid, ir.FilterSetOrAsRef:
		return lattice.BadAny(lattice.BadRpsl(f.Text))

	default:
		return lattice.BadAny(lattice.BadRpsl("unrecognized filter kind"))
	}
}

// conforms reports whether path conforms to a single-atom AS-path regex
// `atom{op}` (spec.md §4.4/§4.5), where matches tests whether one path
// element is the atom (an AS number equality or set-membership test).
// Acceptance requires matches to hold for every element of the full
// path, except under Contains, which only requires one occurrence
// anywhere (a substring match, not a full-path match).
func conforms(path []uint32, matches func(uint32) bool, op ir.RegexOp) bool {
	switch op.Kind {
	case ir.RegexContains:
		for _, asn := range path {
			if matches(asn) {
				return true
			}
		}
		return false
	case ir.RegexPlus:
		return len(path) >= 1 && allMatch(path, matches)
	case ir.RegexStar:
		return allMatch(path, matches)
	case ir.RegexQuestion:
		return len(path) <= 1 && allMatch(path, matches)
	case ir.RegexRange:
		return len(path) >= op.M && len(path) <= op.N && allMatch(path, matches)
	default:
		return allMatch(path, matches)
	}
}

func allMatch(path []uint32, matches func(uint32) bool) bool {
	for _, asn := range path {
		if !matches(asn) {
			return false
		}
	}
	return true
}

// evalNot negates a sub-result per the decision recorded in DESIGN.md:
// a definite match becomes a definite non-match and vice versa; an
// indeterminate grade (Skip/Unrec/Meh) is not invertible, so it passes
// through with its grade preserved but its match-specific items dropped.
func evalNot(inner lattice.AnyReport) lattice.AnyReport {
	switch {
	case inner.Ok:
		return lattice.BadAny()
	case inner.Grade == lattice.GradeBad:
		return lattice.OkAny()
	default:
		return lattice.AnyReport{Grade: inner.Grade}
	}
}
