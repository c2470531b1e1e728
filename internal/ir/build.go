package ir

import (
	"log"
	"net"
	"strconv"
	"strings"
)

// RawAst, RawAutNum, RawAsSet, etc. are the subset of package ast's shape
// Build needs; declared here (instead of importing package ast) to avoid a
// dependency cycle, since ast imports ir for the shared tree types.
// Build's caller (cmd/rpslverify's ingest) adapts an ast.Ast into this
// shape with ast.Ast.ToRawAst.
type RawAst struct {
	AutNums     []RawAutNum
	AsSets      []RawAsSet
	RouteSets   []RawRouteSet
	PeeringSets []RawPeeringSet
	FilterSets  []RawFilterSet
	Routes      []RawRoute
}

type RawAutNum struct {
	ASN     string
	Body    string
	Imports *Versions
	Exports *Versions
}

type RawAsSet struct {
	Name      string
	Members   []AsName
	MbrsByRef []string
}

type RawRouteSet struct {
	Name      string
	Members   []RouteSetMember
	MbrsByRef []string
}

type RawPeeringSet struct {
	Name     string
	Peerings []Peering
}

type RawFilterSet struct {
	Name   string
	Filter Filter
}

type RawRoute struct {
	ASN    string
	Prefix string
	Mnt    string
}

// Build normalizes a parsed RawAst into an IR: names are upper-cased, AS
// number text is parsed, ambiguous filter-level set/AS-number references
// are classified by their lexical prefix, and mbrs-by-ref back-references
// are resolved into pseudo-sets merged into their referenced sets
// (spec.md §4.2). Malformed AS-number text yields a skipped aut-num
// (logged, never fatal — ingest-time defects are data, not process
// failures, same as the evaluator per spec.md §7).
func Build(raw RawAst) *IR {
	out := newIR()
	var pending []pendingMbrsByRef

	for _, an := range raw.AutNums {
		asn, ok := ParseASN(an.ASN)
		if !ok {
			log.Println("ir: skipping aut-num with unparsable ASN:", an.ASN)
			continue
		}
		a := &AutNum{ASN: asn, Body: an.Body}
		if an.Imports != nil {
			a.Imports = *an.Imports
		}
		if an.Exports != nil {
			a.Exports = *an.Exports
		}
		normalizeVersions(&a.Imports)
		normalizeVersions(&a.Exports)
		if existing, dup := out.AutNums[asn]; dup {
			log.Printf("ir: AS%d redefined, last writer wins (previous body %d bytes)", asn, len(existing.Body))
		}
		out.AutNums[asn] = a
	}

	for _, s := range raw.AsSets {
		name := strings.ToUpper(s.Name)
		members := make([]AsName, len(s.Members))
		for i, m := range s.Members {
			members[i] = normalizeAsName(m)
		}
		if existing, dup := out.AsSets[name]; dup {
			log.Printf("ir: as-set %s redefined, last writer wins (%d members dropped)", name, len(existing.Members))
		}
		out.AsSets[name] = &AsSet{Name: name, Members: members}
		pending = recordMbrsByRef(pending, name, s.MbrsByRef, mbrsByRefAsSet)
	}

	for _, s := range raw.RouteSets {
		name := strings.ToUpper(s.Name)
		members := make([]RouteSetMember, len(s.Members))
		for i, m := range s.Members {
			members[i] = normalizeRouteSetMember(m)
		}
		if existing, dup := out.RouteSets[name]; dup {
			log.Printf("ir: route-set %s redefined, last writer wins (%d members dropped)", name, len(existing.Members))
		}
		out.RouteSets[name] = &RouteSet{Name: name, Members: members}
		pending = recordMbrsByRef(pending, name, s.MbrsByRef, mbrsByRefRouteSet)
	}

	for _, s := range raw.PeeringSets {
		name := strings.ToUpper(s.Name)
		peerings := make([]Peering, len(s.Peerings))
		for i, p := range s.Peerings {
			peerings[i] = normalizePeering(p)
		}
		out.PeeringSets[name] = &PeeringSet{Name: name, Peerings: peerings}
	}

	for _, s := range raw.FilterSets {
		name := strings.ToUpper(s.Name)
		f := normalizeFilter(s.Filter)
		out.FilterSets[name] = &FilterSet{Name: name, Filter: f}
	}

	maintainerASNs := make(map[string][]uint32)
	maintainerPrefixes := make(map[string][]AddrPfxRange)
	var allASNs []uint32
	var allPrefixes []AddrPfxRange

	for _, r := range raw.Routes {
		asn, ok := ParseASN(r.ASN)
		if !ok {
			log.Println("ir: skipping route with unparsable ASN:", r.ASN)
			continue
		}
		_, network, err := net.ParseCIDR(r.Prefix)
		if err != nil {
			log.Println("ir: skipping route with unparsable prefix:", r.Prefix)
			continue
		}
		out.AsRoutes[asn] = append(out.AsRoutes[asn], network)
		rng := AddrPfxRange{Prefix: network, Op: RangeOp{Kind: RangeExact}}
		allASNs = append(allASNs, asn)
		allPrefixes = append(allPrefixes, rng)
		if r.Mnt != "" {
			mnt := strings.ToUpper(r.Mnt)
			maintainerASNs[mnt] = append(maintainerASNs[mnt], asn)
			maintainerPrefixes[mnt] = append(maintainerPrefixes[mnt], rng)
		}
	}

	mergeMbrsByRef(out, pending, maintainerASNs, maintainerPrefixes, allASNs, allPrefixes)

	return out
}

// ParseASN parses the textual AS-number identifiers RPSL uses ("AS64500"
// or a bare number) into a uint32 (spec.md §3 identifiers, §4.2).
func ParseASN(text string) (uint32, bool) {
	t := strings.TrimSpace(strings.ToUpper(text))
	t = strings.TrimPrefix(t, "AS")
	n, err := strconv.ParseUint(t, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func normalizeAsName(n AsName) AsName {
	switch n.Kind {
	case AsNameSet:
		n.Set = strings.ToUpper(n.Set)
	case AsNameInvalid:
		// keep Text as-is for diagnostics
	}
	return n
}

func normalizeRouteSetMember(m RouteSetMember) RouteSetMember {
	if m.Kind == RouteSetMemberSetRef {
		m.SetRef = strings.ToUpper(m.SetRef)
	}
	return m
}

func normalizeAsExpr(e AsExpr) AsExpr {
	switch e.Kind {
	case AsExprSingle:
		e.Name = normalizeAsName(e.Name)
	case AsExprPeeringSetRef:
		e.Set = strings.ToUpper(e.Set)
	case AsExprAnd, AsExprOr, AsExprExcept:
		if e.Left != nil {
			l := normalizeAsExpr(*e.Left)
			e.Left = &l
		}
		if e.Right != nil {
			r := normalizeAsExpr(*e.Right)
			e.Right = &r
		}
	}
	return e
}

func normalizePeering(p Peering) Peering {
	p.RemoteAS = normalizeAsExpr(p.RemoteAS)
	return p
}

// setKind classifies a set name's lexical prefix per spec.md §3
// identifiers: as-set names begin "AS-" or contain ":AS-"; route-set
// "RS-"; peering-set "PRNG-"; filter-set "FLTR-".
func setKind(name string) FilterKind {
	upper := strings.ToUpper(name)
	switch {
	case strings.HasPrefix(upper, "AS-") || strings.Contains(upper, ":AS-"):
		return FilterAsSet
	case strings.HasPrefix(upper, "RS-"):
		return FilterRouteSet
	case strings.HasPrefix(upper, "PRNG-"):
		return FilterPeeringSetRef
	case strings.HasPrefix(upper, "FLTR-"):
		return FilterFilterSetRef
	default:
		return FilterInvalid
	}
}

// normalizeFilter upper-cases set names and classifies every
// FilterSetOrAsRef leaf by lexical prefix (spec.md §4.2).
func normalizeFilter(f Filter) Filter {
	switch f.Kind {
	case FilterSetOrAsRef:
		if asn, ok := ParseASN(f.SetName); ok {
			return Filter{Kind: FilterAsNum, AsNum: asn, RegexOp: f.RegexOp}
		}
		kind := setKind(f.SetName)
		if kind == FilterInvalid {
			return Filter{Kind: FilterInvalid, Text: f.SetName}
		}
		return Filter{Kind: kind, SetName: strings.ToUpper(f.SetName), RegexOp: f.RegexOp}
	case FilterAsSet, FilterRouteSet, FilterPeeringSetRef, FilterFilterSetRef:
		f.SetName = strings.ToUpper(f.SetName)
		return f
	case FilterAddrPrefixSet:
		return f
	case FilterAnd, FilterOr:
		if f.Left != nil {
			l := normalizeFilter(*f.Left)
			f.Left = &l
		}
		if f.Right != nil {
			r := normalizeFilter(*f.Right)
			f.Right = &r
		}
		return f
	case FilterNot, FilterGroup:
		if f.Inner != nil {
			in := normalizeFilter(*f.Inner)
			f.Inner = &in
		}
		return f
	default:
		return f
	}
}

func normalizeVersions(v *Versions) {
	normalizeCasts(&v.Any)
	normalizeCasts(&v.IPv4)
	normalizeCasts(&v.IPv6)
}

func normalizeCasts(c *Casts) {
	normalizeEntries(c.Any)
	normalizeEntries(c.Unicast)
	normalizeEntries(c.Multicast)
}

func normalizeEntries(entries []Entry) {
	for i := range entries {
		for j := range entries[i].MPPeerings {
			entries[i].MPPeerings[j].MPPeering = normalizePeering(entries[i].MPPeerings[j].MPPeering)
		}
		entries[i].MPFilter = normalizeFilter(entries[i].MPFilter)
	}
}

type mbrsByRefTarget int

const (
	mbrsByRefAsSet mbrsByRefTarget = iota
	mbrsByRefRouteSet
)

type pendingMbrsByRef struct {
	setName string
	maints  []string
	target  mbrsByRefTarget
}

func recordMbrsByRef(pending []pendingMbrsByRef, setName string, maints []string, target mbrsByRefTarget) []pendingMbrsByRef {
	if len(maints) == 0 {
		return pending
	}
	return append(pending, pendingMbrsByRef{setName: strings.ToUpper(setName), maints: maints, target: target})
}

// mergeMbrsByRef is the post-pass spec.md §4.2 describes: pseudo-sets
// synthesized from mbrs-by-ref maintainer back-references are merged
// into the set that declared them. "ANY" matches every maintainer
// (spec.md §9 Open Question 3). pending is local to its Build call so
// concurrent Build invocations (spec.md §5 parallel ingest) never share
// mutable state.
func mergeMbrsByRef(out *IR, pending []pendingMbrsByRef, maintainerASNs map[string][]uint32, maintainerPrefixes map[string][]AddrPfxRange, allASNs []uint32, allPrefixes []AddrPfxRange) {
	for _, pm := range pending {
		switch pm.target {
		case mbrsByRefAsSet:
			var asns []uint32
			for _, mnt := range pm.maints {
				if strings.EqualFold(mnt, "ANY") {
					asns = append(asns, allASNs...)
					continue
				}
				asns = append(asns, maintainerASNs[strings.ToUpper(mnt)]...)
			}
			pseudo := &AsSet{Name: pm.setName}
			for _, asn := range dedupASNs(asns) {
				pseudo.Members = append(pseudo.Members, Num(asn))
			}
			out.PseudoAsSets[pm.setName] = pseudo
			if s, ok := out.AsSets[pm.setName]; ok {
				s.Members = append(s.Members, pseudo.Members...)
			} else {
				out.AsSets[pm.setName] = &AsSet{Name: pm.setName, Members: pseudo.Members}
			}
		case mbrsByRefRouteSet:
			var prefixes []AddrPfxRange
			for _, mnt := range pm.maints {
				if strings.EqualFold(mnt, "ANY") {
					prefixes = append(prefixes, allPrefixes...)
					continue
				}
				prefixes = append(prefixes, maintainerPrefixes[strings.ToUpper(mnt)]...)
			}
			pseudo := &RouteSet{Name: pm.setName}
			for _, p := range prefixes {
				pseudo.Members = append(pseudo.Members, RouteSetMember{Kind: RouteSetMemberPrefix, Prefix: p})
			}
			out.PseudoRouteSets[pm.setName] = pseudo
			if s, ok := out.RouteSets[pm.setName]; ok {
				s.Members = append(s.Members, pseudo.Members...)
			} else {
				out.RouteSets[pm.setName] = &RouteSet{Name: pm.setName, Members: pseudo.Members}
			}
		}
	}
}

func dedupASNs(in []uint32) []uint32 {
	seen := make(map[uint32]struct{}, len(in))
	out := make([]uint32, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
