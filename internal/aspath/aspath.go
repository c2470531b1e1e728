// Package aspath compiles the `<as-regex>` tree (package ir's RegexNode)
// into a Thompson NFA and matches it against an observed AS path
// (spec.md §4.4). Matching is budgeted: a regex whose automaton would
// need to explore more than maxSteps epsilon-closures contributes
// Skip(RecCheckFilter) rather than recursing without bound, the same
// fail-safe package filter and package peering apply to their own
// recursion (spec.md §4.4/§4.5 edge cases).
package aspath

import (
	"github.com/rpslverify/rpslverify/internal/ir"
	"github.com/rpslverify/rpslverify/internal/query"
)

const maxSteps = 256

// state is one node of the compiled NFA. Exactly one of the match
// predicates is used per non-epsilon state; Out/Out2 are successor
// state indices, -1 meaning none.
type state struct {
	kind stateKind

	as      uint32
	set     string
	negated []uint32
	negSet  string

	out, out2 int
}

type stateKind int

const (
	stateSplit stateKind = iota // epsilon to out and out2
	stateMatchAs
	stateMatchSet
	stateMatchAny
	stateMatchNegatedSet
	stateAccept
)

// Program is a compiled AS-path regex: a flat slice of NFA states with
// state 0 as the start.
type Program struct {
	states []state
}

// Compile builds a Program from a RegexNode tree. idx resolves as-set
// membership for AsSetMember/NegatedSet atoms at match time, so Compile
// itself never touches package query.
func Compile(root *ir.RegexNode) *Program {
	c := &compiler{}
	start := c.compile(root)
	accept := c.emit(state{kind: stateAccept, out: -1, out2: -1})
	c.patch(start.outList, accept)
	return &Program{states: c.states}
}

// fragment is a partial NFA: an entry state index and the list of
// dangling out-pointers to patch once the successor is known —
// the classic Thompson-construction bookkeeping.
type fragment struct {
	start   int
	outList []patchPoint
}

type patchPoint struct {
	state int
	slot  int // 0 = out, 1 = out2
}

type compiler struct {
	states []state
}

func (c *compiler) emit(s state) int {
	c.states = append(c.states, s)
	return len(c.states) - 1
}

func (c *compiler) patch(points []patchPoint, target int) {
	for _, p := range points {
		if p.slot == 0 {
			c.states[p.state].out = target
		} else {
			c.states[p.state].out2 = target
		}
	}
}

func (c *compiler) compile(n *ir.RegexNode) fragment {
	if n == nil {
		idx := c.emit(state{kind: stateMatchAny, out: -1, out2: -1})
		return fragment{start: idx, outList: []patchPoint{{idx, 0}}}
	}
	switch n.Kind {
	case ir.RegexNodeAtomAs:
		idx := c.emit(state{kind: stateMatchAs, as: n.As, out: -1, out2: -1})
		return fragment{start: idx, outList: []patchPoint{{idx, 0}}}
	case ir.RegexNodeAtomSet:
		idx := c.emit(state{kind: stateMatchSet, set: n.Set, out: -1, out2: -1})
		return fragment{start: idx, outList: []patchPoint{{idx, 0}}}
	case ir.RegexNodeAtomAny:
		idx := c.emit(state{kind: stateMatchAny, out: -1, out2: -1})
		return fragment{start: idx, outList: []patchPoint{{idx, 0}}}
	case ir.RegexNodeNegatedSet:
		idx := c.emit(state{kind: stateMatchNegatedSet, negSet: n.Set, negated: n.SetAses, out: -1, out2: -1})
		return fragment{start: idx, outList: []patchPoint{{idx, 0}}}
	case ir.RegexNodeSeq:
		return c.compileSeq(n.Seq)
	case ir.RegexNodeAlt:
		return c.compileAlt(n.Seq)
	case ir.RegexNodeQuant:
		return c.compileQuant(n)
	default:
		idx := c.emit(state{kind: stateMatchAny, out: -1, out2: -1})
		return fragment{start: idx, outList: []patchPoint{{idx, 0}}}
	}
}

func (c *compiler) compileSeq(nodes []*ir.RegexNode) fragment {
	if len(nodes) == 0 {
		idx := c.emit(state{kind: stateSplit, out: -1, out2: -1})
		return fragment{start: idx, outList: []patchPoint{{idx, 0}}}
	}
	first := c.compile(nodes[0])
	start := first.start
	pending := first.outList
	for _, n := range nodes[1:] {
		frag := c.compile(n)
		c.patch(pending, frag.start)
		pending = frag.outList
	}
	return fragment{start: start, outList: pending}
}

func (c *compiler) compileAlt(nodes []*ir.RegexNode) fragment {
	if len(nodes) == 0 {
		idx := c.emit(state{kind: stateSplit, out: -1, out2: -1})
		return fragment{start: idx, outList: []patchPoint{{idx, 0}}}
	}
	if len(nodes) == 1 {
		return c.compile(nodes[0])
	}
	left := c.compile(nodes[0])
	rest := c.compileAlt(nodes[1:])
	split := c.emit(state{kind: stateSplit, out: left.start, out2: rest.start})
	outList := append(append([]patchPoint{}, left.outList...), rest.outList...)
	return fragment{start: split, outList: outList}
}

// compileQuant handles +, *, ? and {m,n} by expanding to split/loop
// constructions over the inner atom, the textbook Thompson treatment.
func (c *compiler) compileQuant(n *ir.RegexNode) fragment {
	switch n.Op.Kind {
	case ir.RegexStar:
		split := c.emit(state{kind: stateSplit, out: -1, out2: -1})
		inner := c.compile(n.Left)
		c.patch(inner.outList, split)
		c.states[split].out = inner.start
		return fragment{start: split, outList: []patchPoint{{split, 1}}}
	case ir.RegexPlus:
		inner := c.compile(n.Left)
		split := c.emit(state{kind: stateSplit, out: inner.start, out2: -1})
		c.patch(inner.outList, split)
		return fragment{start: inner.start, outList: []patchPoint{{split, 1}}}
	case ir.RegexQuestion:
		inner := c.compile(n.Left)
		split := c.emit(state{kind: stateSplit, out: inner.start, out2: -1})
		return fragment{start: split, outList: append(inner.outList, patchPoint{split, 1})}
	case ir.RegexRange:
		return c.compileRange(n.Left, n.Op.M, n.Op.N)
	default:
		return c.compile(n.Left)
	}
}

func (c *compiler) compileRange(atom *ir.RegexNode, m, nMax int) fragment {
	var copies []fragment
	total := nMax
	if total < m {
		total = m
	}
	for i := 0; i < total; i++ {
		copies = append(copies, c.compile(atom))
	}
	if len(copies) == 0 {
		idx := c.emit(state{kind: stateSplit, out: -1, out2: -1})
		return fragment{start: idx, outList: []patchPoint{{idx, 0}}}
	}
	start := copies[0].start
	pending := copies[0].outList
	var optionalSplits []patchPoint
	for i := 1; i < len(copies); i++ {
		if i >= m {
			split := c.emit(state{kind: stateSplit, out: copies[i].start, out2: -1})
			c.patch(pending, split)
			optionalSplits = append(optionalSplits, patchPoint{split, 1})
			pending = copies[i].outList
			continue
		}
		c.patch(pending, copies[i].start)
		pending = copies[i].outList
	}
	return fragment{start: start, outList: append(pending, optionalSplits...)}
}

// Match reports whether path (in observed order, collector side first and
// origin last, one AS per hop, already deduplicated of consecutive
// repeats per spec.md §4.7)
// satisfies the compiled regex. Skip is true, and the grade belongs to
// the caller (package filter), when the recursion budget is exhausted.
func (p *Program) Match(idx *query.Index, path []uint32) (matched bool, skip bool) {
	steps := 0
	current := map[int]bool{0: true}
	current = p.closure(current, idx, &steps)
	if steps > maxSteps {
		return false, true
	}
	for _, asn := range path {
		next := make(map[int]bool)
		for s := range current {
			st := p.states[s]
			switch st.kind {
			case stateMatchAs:
				if st.as == asn {
					next[st.out] = true
				}
			case stateMatchSet:
				if idx != nil {
					if members, ok := idx.AsSetMembers(st.set); ok {
						if containsASN(members, asn) {
							next[st.out] = true
						}
					}
				}
			case stateMatchAny:
				next[st.out] = true
			case stateMatchNegatedSet:
				excluded := containsASN(st.negated, asn)
				if !excluded && idx != nil && st.negSet != "" {
					if members, ok := idx.AsSetMembers(st.negSet); ok {
						excluded = containsASN(members, asn)
					}
				}
				if !excluded {
					next[st.out] = true
				}
			}
		}
		current = p.closure(next, idx, &steps)
		if steps > maxSteps {
			return false, true
		}
		if len(current) == 0 {
			return false, false
		}
	}
	for s := range current {
		if p.states[s].kind == stateAccept {
			return true, false
		}
	}
	return false, false
}

func (p *Program) closure(set map[int]bool, idx *query.Index, steps *int) map[int]bool {
	stack := make([]int, 0, len(set))
	for s := range set {
		stack = append(stack, s)
	}
	out := make(map[int]bool, len(set))
	for len(stack) > 0 && *steps <= maxSteps {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		*steps++
		if out[s] {
			continue
		}
		out[s] = true
		if p.states[s].kind == stateSplit {
			if p.states[s].out >= 0 && !out[p.states[s].out] {
				stack = append(stack, p.states[s].out)
			}
			if p.states[s].out2 >= 0 && !out[p.states[s].out2] {
				stack = append(stack, p.states[s].out2)
			}
		}
	}
	return out
}

func containsASN(list []uint32, asn uint32) bool {
	for _, v := range list {
		if v == asn {
			return true
		}
	}
	return false
}
