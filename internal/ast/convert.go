package ast

import "github.com/rpslverify/rpslverify/internal/ir"

// ToRawAst adapts a parsed Ast into the shape ir.Build consumes. The
// two are already structurally identical field-for-field — Ast exists
// as a separate package purely to carry the JSON wire contract (its
// json field tags, with omitempty); the AddrPfxRange codec both rely on
// is package ir's own.
func (a *Ast) ToRawAst() ir.RawAst {
	raw := ir.RawAst{
		AutNums:     make([]ir.RawAutNum, len(a.AutNums)),
		AsSets:      make([]ir.RawAsSet, len(a.AsSets)),
		RouteSets:   make([]ir.RawRouteSet, len(a.RouteSets)),
		PeeringSets: make([]ir.RawPeeringSet, len(a.PeeringSets)),
		FilterSets:  make([]ir.RawFilterSet, len(a.FilterSets)),
		Routes:      make([]ir.RawRoute, len(a.Routes)),
	}
	for i, an := range a.AutNums {
		raw.AutNums[i] = ir.RawAutNum{ASN: an.ASN, Body: an.Body, Imports: an.Imports, Exports: an.Exports}
	}
	for i, s := range a.AsSets {
		raw.AsSets[i] = ir.RawAsSet{Name: s.Name, Members: s.Members, MbrsByRef: s.MbrsByRef}
	}
	for i, s := range a.RouteSets {
		raw.RouteSets[i] = ir.RawRouteSet{Name: s.Name, Members: s.Members, MbrsByRef: s.MbrsByRef}
	}
	for i, s := range a.PeeringSets {
		raw.PeeringSets[i] = ir.RawPeeringSet{Name: s.Name, Peerings: s.Peerings}
	}
	for i, s := range a.FilterSets {
		raw.FilterSets[i] = ir.RawFilterSet{Name: s.Name, Filter: s.Filter}
	}
	for i, r := range a.Routes {
		raw.Routes[i] = ir.RawRoute{ASN: r.ASN, Prefix: r.Prefix, Mnt: r.Mnt}
	}
	return raw
}
