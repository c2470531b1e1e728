// Package ast defines the external RPSL AST contract (spec.md §6): the
// structure produced by the (out-of-scope) RPSL lexer/parser and consumed
// by ir.Build. It is deliberately close to package ir's tree shapes —
// parsing already resolves the recursive grammar (And/Or/Not, AsExpr
// alternation, the as-path regex tree) — but set/AS identifiers are not
// yet case-normalized, and ambiguous filter-level identifiers are not yet
// classified into AsNum/AsSet/RouteSet/PeeringSetRef/FilterSetRef: both
// of those are ir.Build's job (spec.md §4.2).
//
// Ast round-trips through JSON for caching (package astcache); list and
// optional fields omit their zero value so an absent section serializes
// as absent, not as an explicit empty list, while identifying fields
// such as an object's name or asn are always written.
package ast

import "github.com/rpslverify/rpslverify/internal/ir"

// Ast is the top-level parse result for one or more IRR database dumps.
type Ast struct {
	AutNums     []AutNum     `json:"aut_nums,omitempty"`
	AsSets      []AsSet      `json:"as_sets,omitempty"`
	RouteSets   []RouteSet   `json:"route_sets,omitempty"`
	PeeringSets []PeeringSet `json:"peering_sets,omitempty"`
	FilterSets  []FilterSet  `json:"filter_sets,omitempty"`
	Routes      []Route      `json:"routes,omitempty"`
}

// AutNum is a parsed `aut-num` object. ASN is the raw identifier text
// (e.g. "AS64500"); ir.Build parses the number.
type AutNum struct {
	ASN     string       `json:"asn"`
	Body    string       `json:"body,omitempty"`
	Imports *ir.Versions `json:"imports,omitempty"`
	Exports *ir.Versions `json:"exports,omitempty"`
}

// AsSet is a parsed `as-set` object. MbrsByRef lists maintainer names
// from an `mbrs-by-ref:` attribute; an entry of "ANY" matches every
// maintainer (spec.md §9 Open Question 3).
type AsSet struct {
	Name      string      `json:"name"`
	Members   []ir.AsName `json:"members,omitempty"`
	MbrsByRef []string    `json:"mbrs_by_ref,omitempty"`
}

// RouteSet is a parsed `route-set` object.
type RouteSet struct {
	Name      string               `json:"name"`
	Members   []ir.RouteSetMember  `json:"members,omitempty"`
	MbrsByRef []string             `json:"mbrs_by_ref,omitempty"`
}

// PeeringSet is a parsed `peering-set` object.
type PeeringSet struct {
	Name     string        `json:"name"`
	Peerings []ir.Peering  `json:"peerings,omitempty"`
}

// FilterSet is a parsed `filter-set` object.
type FilterSet struct {
	Name   string    `json:"name"`
	Filter ir.Filter `json:"filter"`
}

// Route is a parsed `route`/`route6` object: an AS originates a prefix,
// optionally maintained by Mnt (used to build pseudo-sets for
// mbrs-by-ref, spec.md §3).
type Route struct {
	ASN    string `json:"asn"`
	Prefix string `json:"prefix"`
	Mnt    string `json:"mnt,omitempty"`
}
