// Package ir defines the normalized, side-effect-free intermediate
// representation of RPSL policy (spec.md §3) and the builder that produces
// it from a parsed ast.Ast (spec.md §4.2). Everything in this package is
// plain data: no evaluation happens here, only normalization.
package ir

import "net"

// AsNameKind tags the four forms an AS-expression leaf can take.
type AsNameKind int

const (
	AsNameInvalid AsNameKind = iota
	AsNameNum
	AsNameSet
	AsNameAny
)

// AsName is one leaf of an AsExpr: a bare AS number, a named set
// reference, the keyword ANY, or unparsable text kept for diagnostics.
type AsName struct {
	Kind AsNameKind
	Num  uint32 // valid when Kind == AsNameNum
	Set  string // valid when Kind == AsNameSet, upper-cased
	Text string // raw source text; always kept for Invalid, optional otherwise
}

func Num(n uint32) AsName       { return AsName{Kind: AsNameNum, Num: n} }
func SetName(s string) AsName   { return AsName{Kind: AsNameSet, Set: s} }
func AnyAS() AsName             { return AsName{Kind: AsNameAny} }
func InvalidName(t string) AsName { return AsName{Kind: AsNameInvalid, Text: t} }

// RegexOpKind is the AS-path regex quantifier attached to an AS-name or
// set reference inside a filter (spec.md §3 RegexOp).
type RegexOpKind int

const (
	RegexNoOp RegexOpKind = iota
	RegexContains
	RegexPlus
	RegexStar
	RegexQuestion
	RegexRange
)

type RegexOp struct {
	Kind RegexOpKind
	M, N int // valid when Kind == RegexRange
}

// AsExprKind tags the five forms a peering's remote-as expression can
// take (spec.md §3 AsExpr).
type AsExprKind int

const (
	AsExprSingle AsExprKind = iota
	AsExprPeeringSetRef
	AsExprAnd
	AsExprOr
	AsExprExcept
)

type AsExpr struct {
	Kind  AsExprKind
	Name  AsName  // valid when Kind == AsExprSingle
	Set   string  // valid when Kind == AsExprPeeringSetRef, upper-cased
	Left  *AsExpr // valid for And/Or/Except
	Right *AsExpr // valid for And/Or/Except
}

// RouterExpr is preserved for reporting but, per spec.md §4.6, never
// evaluated: router expressions don't contribute to accept/reject.
type RouterExpr struct {
	Text string
}

// Peering is `<as-expr> [at <router>] [<router>]` (spec.md §3).
type Peering struct {
	RemoteAS     AsExpr
	RemoteRouter *RouterExpr
	LocalRouter  *RouterExpr
}

// PeeringAction pairs a peering clause with the RPSL actions applied on
// match (e.g. community/pref attributes); actions are preserved for
// diagnostics but community evaluation is a non-goal (spec.md §1/§9).
type PeeringAction struct {
	MPPeering Peering
	Actions   map[string]string
}

// RangeOpKind is the `^` operator on an address-prefix range (spec.md §3
// AddrPfxRange).
type RangeOpKind int

const (
	RangeExact RangeOpKind = iota
	RangeLessExcl
	RangeLessIncl
	RangeBetween
)

type RangeOp struct {
	Kind RangeOpKind
	M, N int // valid when Kind == RangeBetween
}

// AddrPfxRange is a prefix plus a range-of-lengths operator, e.g.
// 192.0.2.0/24^24-26.
type AddrPfxRange struct {
	Prefix *net.IPNet
	Op     RangeOp
}

// FilterKind tags every variant of the recursive Filter tree (spec.md §3).
type FilterKind int

const (
	FilterAny FilterKind = iota
	FilterAsNum
	FilterAsSet
	FilterAddrPrefixSet
	FilterRouteSet
	FilterPeeringSetRef
	FilterFilterSetRef
	FilterAsPathRE
	FilterAnd
	FilterOr
	FilterNot
	FilterCommunity
	FilterGroup
	FilterInvalid

	// FilterSetOrAsRef is produced only by package ast: an identifier whose
	// kind (AsNum/AsSet/RouteSet/PeeringSetRef/FilterSetRef/Invalid) has not
	// yet been classified by its lexical prefix. Build rewrites every
	// FilterSetOrAsRef node into one of the kinds above (spec.md §4.2).
	FilterSetOrAsRef
)

// Filter is the recursive boolean/AS-path expression tree RPSL uses in
// mp_filter clauses (spec.md §3/§4.5).
type Filter struct {
	Kind FilterKind

	AsNum    uint32       // FilterAsNum
	SetName  string       // FilterAsSet, FilterRouteSet, FilterPeeringSetRef, FilterFilterSetRef (upper-cased)
	RegexOp  RegexOp      // FilterAsNum, FilterAsSet, FilterRouteSet
	Prefixes []AddrPfxRange // FilterAddrPrefixSet
	Tree     *RegexNode   // FilterAsPathRE

	Left, Right *Filter // FilterAnd, FilterOr
	Inner       *Filter // FilterNot, FilterGroup

	CommunityExpr string // FilterCommunity, kept for diagnostics only
	Text          string // FilterInvalid
}

// RegexNode is the AS-path regex grammar node (`<as-regex>`): a sequence
// of atoms (AS numbers, set references, ANY) each with an optional
// quantifier, plus negated-set and grouping/alternation nodes. Compiled
// to an automaton by package aspath (spec.md §4.4).
type RegexNodeKind int

const (
	RegexNodeAtomAs RegexNodeKind = iota
	RegexNodeAtomSet
	RegexNodeAtomAny
	RegexNodeNegatedSet
	RegexNodeSeq
	RegexNodeAlt
	RegexNodeQuant // wraps Left with Op
)

type RegexNode struct {
	Kind RegexNodeKind

	As      uint32   // RegexNodeAtomAs
	Set     string    // RegexNodeAtomSet, RegexNodeNegatedSet member sets
	SetAses []uint32  // RegexNodeNegatedSet literal AS numbers, if any

	Seq []*RegexNode // RegexNodeSeq, RegexNodeAlt

	Left *RegexNode // RegexNodeQuant
	Op   RegexOp    // RegexNodeQuant
}

// Entry is one alternative within an import/export clause: a set of
// peerings that must ALL match the counterpart AS, ANDed with a filter
// (spec.md §3 Entry).
type Entry struct {
	MPPeerings []PeeringAction
	MPFilter   Filter
}

// Casts groups entries by address-family cast (spec.md §3 Casts).
type Casts struct {
	Any       []Entry
	Unicast   []Entry
	Multicast []Entry
}

func (c Casts) isDefault() bool {
	return len(c.Any) == 0 && len(c.Unicast) == 0 && len(c.Multicast) == 0
}

// Versions groups Casts by address family (spec.md §3 Versions).
type Versions struct {
	Any  Casts
	IPv4 Casts
	IPv6 Casts
}

// IsDefault reports whether no entries exist anywhere in these Versions;
// per spec.md §3 invariants, a default Versions means the policy is
// absent and the hop reports Skip(Export/ImportEmpty).
func (v Versions) IsDefault() bool {
	return v.Any.isDefault() && v.IPv4.isDefault() && v.IPv6.isDefault()
}

// AutNum is a parsed `aut-num` object (spec.md §3).
type AutNum struct {
	ASN     uint32
	Body    string // verbatim, for diagnostic inclusion
	Imports Versions
	Exports Versions
}

// AsSet is a parsed `as-set` object; members may themselves be other
// as-sets, forming a DAG resolved by package query (spec.md §3).
type AsSet struct {
	Name    string
	Members []AsName
}

// RouteSetMemberKind tags whether a route-set member is a literal prefix
// range or a reference to another set (as-set or route-set).
type RouteSetMemberKind int

const (
	RouteSetMemberPrefix RouteSetMemberKind = iota
	RouteSetMemberSetRef
)

type RouteSetMember struct {
	Kind   RouteSetMemberKind
	Prefix AddrPfxRange
	SetRef string // upper-cased; may name an as-set or a route-set
}

// RouteSet is a parsed `route-set` object (spec.md §3).
type RouteSet struct {
	Name    string
	Members []RouteSetMember
}

// PeeringSet is a parsed `peering-set` object (spec.md §3).
type PeeringSet struct {
	Name     string
	Peerings []Peering
}

// FilterSet is a parsed `filter-set` object (spec.md §3).
type FilterSet struct {
	Name   string
	Filter Filter
}

// IR is the fully built, read-only policy corpus consumed by
// package query. Keys are normalized (upper-cased names, parsed AS
// numbers).
type IR struct {
	AutNums     map[uint32]*AutNum
	AsSets      map[string]*AsSet
	RouteSets   map[string]*RouteSet
	PeeringSets map[string]*PeeringSet
	FilterSets  map[string]*FilterSet
	AsRoutes    map[uint32][]*net.IPNet

	// PseudoAsSets and PseudoRouteSets are synthesized from mbrs-by-ref
	// back-references and from route objects naming a maintainer, before
	// being merged into their referenced sets by a post-pass (spec.md §3,
	// §4.2). They are keyed on the name of the set whose mbrs-by-ref they
	// fill, not on the maintainer name.
	PseudoAsSets    map[string]*AsSet
	PseudoRouteSets map[string]*RouteSet
}

func newIR() *IR {
	return &IR{
		AutNums:         make(map[uint32]*AutNum),
		AsSets:          make(map[string]*AsSet),
		RouteSets:       make(map[string]*RouteSet),
		PeeringSets:     make(map[string]*PeeringSet),
		FilterSets:      make(map[string]*FilterSet),
		AsRoutes:        make(map[uint32][]*net.IPNet),
		PseudoAsSets:    make(map[string]*AsSet),
		PseudoRouteSets: make(map[string]*RouteSet),
	}
}
