// Package compliance is the top-level driver: given an observed AS path
// and destination prefix, it walks every adjacent AS pair and checks
// that the announcing AS's export policy and the receiving AS's import
// policy both accept the route (spec.md §4.7). A single bad aut-num
// object degrades that pair's verdict; it never aborts the run.
package compliance

import (
	"net"

	"github.com/rpslverify/rpslverify/internal/bgpline"
	"github.com/rpslverify/rpslverify/internal/filter"
	"github.com/rpslverify/rpslverify/internal/ir"
	"github.com/rpslverify/rpslverify/internal/lattice"
	"github.com/rpslverify/rpslverify/internal/peering"
	"github.com/rpslverify/rpslverify/internal/query"
	"github.com/rpslverify/rpslverify/internal/relationship"
	"github.com/rpslverify/rpslverify/internal/verbosity"
)

// Options tunes a Compare run. Relationships is optional: a nil table
// makes every hop classify as relationship.None and disables the §4.8
// heuristics regardless of the Verbosity flags that gate them.
type Options struct {
	Verbosity     verbosity.Verbosity
	Relationships *relationship.Table
}

// HopReport is the verdict for one adjacent AS pair in the path: From's
// export policy toward To, and To's import policy from From.
type HopReport struct {
	From, To     uint32
	Export       lattice.AllReport
	Import       lattice.AllReport
	Relationship relationship.Kind
}

// Grade is the worst of Export's and Import's grades.
func (h HopReport) Grade() lattice.Grade {
	if h.Export.Grade > h.Import.Grade {
		return h.Export.Grade
	}
	return h.Import.Grade
}

// Direction distinguishes an export check (the announcing AS's policy)
// from an import check (the receiving AS's policy).
type Direction int

const (
	DirectionExport Direction = iota
	DirectionImport
)

func (d Direction) String() string {
	if d == DirectionImport {
		return "import"
	}
	return "export"
}

// ReportKind tags the grade a Report carries, or marks it as the
// special AsPathPairWithSet notice (spec.md §3 Report variant / §4.7
// step 6), which carries no grade of its own.
type ReportKind int

const (
	ReportOk ReportKind = iota
	ReportSkip
	ReportMeh
	ReportUnrec
	ReportBad
	ReportAsPathPairWithSet
)

func (k ReportKind) String() string {
	switch k {
	case ReportOk:
		return "Ok"
	case ReportSkip:
		return "Skip"
	case ReportMeh:
		return "Meh"
	case ReportUnrec:
		return "Unrec"
	case ReportBad:
		return "Bad"
	case ReportAsPathPairWithSet:
		return "AsPathPairWithSet"
	default:
		return "Report(?)"
	}
}

// Report is one emitted verdict (spec.md §3: `{Ok,Skip,Unrec,Meh,Bad} x
// {Import,Export,SingleImport,SingleExport}` plus `AsPathPairWithSet`).
// Single marks the single-hop export/import variant (spec.md §4.7 step
// 2/5); To is zero for a single-hop report, since there is no
// counterpart AS to report against.
type Report struct {
	Kind         ReportKind
	Direction    Direction
	Single       bool
	From, To     uint32
	Items        []lattice.Item
	Relationship relationship.Kind
}

// RouteReport is the full verdict for one (prefix, AS-path) observation.
type RouteReport struct {
	Prefix  string
	AsPath  []bgpline.PathEntry
	Hops    []HopReport
	Reports []Report
}

// Grade is the worst grade across every hop; Ok if there are no hops
// (an empty path). A single-entry path has one hop, its export check.
func (r RouteReport) Grade() lattice.Grade {
	worst := lattice.GradeOk
	for _, h := range r.Hops {
		if g := h.Grade(); g > worst {
			worst = g
		}
	}
	return worst
}

// Compare walks path right-to-left — from the origin AS toward the
// observing collector — checking each overlapping adjacent pair
// (spec.md §4.7). Consecutive duplicate hops (AS-path prepending) are
// collapsed first, since they represent the same AS, not a transit; set
// placeholders ({a,b,c} aggregation tokens) survive the dedup.
func Compare(idx *query.Index, prefix string, path []bgpline.PathEntry, opts Options) RouteReport {
	deduped := dedupPath(path)
	report := RouteReport{Prefix: prefix, AsPath: deduped}

	if len(deduped) == 0 {
		return report
	}

	_, network, _ := net.ParseCIDR(prefix)
	family := familyOf(network)

	if len(deduped) == 1 {
		compareSingleHop(idx, &report, deduped[0], network, family, opts)
		return report
	}

	var prevRel relationship.Kind
	for i := len(deduped) - 1; i >= 1; i-- {
		fromEntry, toEntry := deduped[i], deduped[i-1]
		from, to := fromEntry.Representative(), toEntry.Representative()
		route := filter.Route{Prefix: network, Origin: deduped[len(deduped)-1].Representative(), Path: representatives(deduped)}

		rel := relationship.None
		if opts.Relationships != nil {
			rel = opts.Relationships.Classify(from, to)
		}

		hop, reports := checkHop(idx, from, to, route, family, rel, prevRel, opts)
		report.Hops = append(report.Hops, hop)
		report.Reports = append(report.Reports, reports...)

		if opts.Verbosity.RecordSet && (fromEntry.Kind == bgpline.PathEntrySet || toEntry.Kind == bgpline.PathEntrySet) {
			report.Reports = append(report.Reports, Report{Kind: ReportAsPathPairWithSet, From: from, To: to})
		}

		prevRel = rel
		if opts.Verbosity.StopAtFirst && hop.Grade() != lattice.GradeOk {
			break
		}
	}
	return report
}

// compareSingleHop implements spec.md §4.7 step 2: a single-AS path has
// no counterpart to check against, so it performs only an export check
// on the sole AS (UnrecSingleExport / OkSingleExport / ...).
func compareSingleHop(idx *query.Index, report *RouteReport, entry bgpline.PathEntry, network *net.IPNet, family Family, opts Options) {
	as := entry.Representative()
	route := filter.Route{Prefix: network, Origin: as, Path: []uint32{as}}
	exportAll := checkDirection(idx, as, 0, route, family, true, opts.Verbosity)

	report.Hops = append(report.Hops, HopReport{From: as, Export: exportAll, Import: lattice.OkAll()})
	if rep, visible := buildReport(exportAll, DirectionExport, as, 0, true, relationship.None); visible(opts.Verbosity) {
		report.Reports = append(report.Reports, rep)
	}
	if entry.Kind == bgpline.PathEntrySet && opts.Verbosity.RecordSet {
		report.Reports = append(report.Reports, Report{Kind: ReportAsPathPairWithSet, From: as})
	}
}

// checkHop computes both directions of one AS-pair and applies the
// §4.8 relationship heuristics to the export/import verdicts before
// building the emitted Reports. prevRel is the relationship of the
// previous (more-recent) hop walked, used by special_uphill.
func checkHop(idx *query.Index, from, to uint32, route filter.Route, family Family, rel, prevRel relationship.Kind, opts Options) (HopReport, []Report) {
	exportAll := checkDirection(idx, from, to, route, family, true, opts.Verbosity)
	importAll := checkDirection(idx, to, from, route, family, false, opts.Verbosity)

	if opts.Verbosity.SpecialUphill && exportAll.Grade == lattice.GradeOk && relationship.SpecialUphill(prevRel, rel) {
		exportAll = lattice.MehAll(append(append([]lattice.Item{}, exportAll.Items...), lattice.SpecialUphill())...)
	}
	if opts.Relationships != nil {
		if opts.Verbosity.CheckCustomer && exportAll.Grade == lattice.GradeSkip && opts.Relationships.CheckCustomer(from, to) {
			exportAll = lattice.MehAll(append(append([]lattice.Item{}, exportAll.Items...), lattice.MissingCustomerFilter())...)
		}
		if opts.Verbosity.CheckImportOnlyProvider && importAll.Grade == lattice.GradeOk && opts.Relationships.CheckImportOnlyProvider(to, from) {
			importAll = lattice.MehAll(append(append([]lattice.Item{}, importAll.Items...), lattice.ImportOnlyProvider())...)
		}
	}

	hop := HopReport{From: from, To: to, Export: exportAll, Import: importAll, Relationship: rel}

	var reports []Report
	if rep, visible := buildReport(exportAll, DirectionExport, from, to, false, rel); visible(opts.Verbosity) {
		reports = append(reports, rep)
	}
	if rep, visible := buildReport(importAll, DirectionImport, from, to, false, rel); visible(opts.Verbosity) {
		reports = append(reports, rep)
	}
	return hop, reports
}

// buildReport turns a conjunction verdict into its named Report variant
// and a visibility predicate gated by the retained grade (spec.md §4.7
// grading downgrade/upgrade rules): Bad is always retained, the rest
// only when their show_* flag is set.
func buildReport(all lattice.AllReport, dir Direction, from, to uint32, single bool, rel relationship.Kind) (Report, func(verbosity.Verbosity) bool) {
	kind := reportKindFor(all.Grade)
	rep := Report{Kind: kind, Direction: dir, Single: single, From: from, To: to, Items: all.Items, Relationship: rel}
	return rep, func(v verbosity.Verbosity) bool {
		switch kind {
		case ReportOk:
			return v.ShowSuccess
		case ReportSkip:
			return v.ShowSkips
		case ReportMeh:
			return v.ShowMeh
		case ReportUnrec:
			return v.ShowUnrec
		default:
			return true
		}
	}
}

func reportKindFor(g lattice.Grade) ReportKind {
	switch g {
	case lattice.GradeOk:
		return ReportOk
	case lattice.GradeSkip:
		return ReportSkip
	case lattice.GradeMeh:
		return ReportMeh
	case lattice.GradeUnrec:
		return ReportUnrec
	default:
		return ReportBad
	}
}

// checkDirection checks subjectAS's policy (export if isExport, else
// import) toward counterpartAS.
func checkDirection(idx *query.Index, subjectAS, counterpartAS uint32, route filter.Route, family Family, isExport bool, v verbosity.Verbosity) lattice.AllReport {
	an, ok := idx.IR().AutNums[subjectAS]
	if !ok {
		return lattice.UnrecAll(lattice.UnrecordedAutNum(subjectAS))
	}

	versions := an.Imports
	emptyItem := lattice.ImportEmpty()
	if isExport {
		versions = an.Exports
		emptyItem = lattice.ExportEmpty()
	}
	if versions.IsDefault() {
		return lattice.SkipAll(emptyItem)
	}

	entries := applicableEntries(versions, family)
	if len(entries) == 0 {
		return lattice.SkipAll(emptyItem)
	}

	var acc lattice.AnyReport
	first := true
	for _, e := range entries {
		r := evalEntry(idx, e, counterpartAS, route, v)
		if first {
			acc = r
			first = false
			continue
		}
		acc = acc.CombineAny(r)
	}
	return acc.ToAll()
}

// evalEntry evaluates one Entry: every mp_peering clause must accept
// counterpartAS (conjunction), ANDed with the filter matching route.
func evalEntry(idx *query.Index, e ir.Entry, counterpartAS uint32, route filter.Route, v verbosity.Verbosity) lattice.AnyReport {
	peeringAll := lattice.OkAll()
	for _, pa := range e.MPPeerings {
		peeringAll = peeringAll.CombineAll(peering.Eval(idx, pa.MPPeering, counterpartAS).ToAll())
	}
	filterAll := filter.Eval(idx, e.MPFilter, route, v).ToAll()
	return peeringAll.CombineAll(filterAll).ToAny()
}

// applicableEntries selects the entries that apply to family, merging
// the family-agnostic "Any" cast with the family-specific Unicast cast
// (spec.md §3 Versions/Casts). Multicast is out of scope (Non-goal).
func applicableEntries(v ir.Versions, family Family) []ir.Entry {
	var out []ir.Entry
	out = append(out, v.Any.Any...)
	out = append(out, v.Any.Unicast...)
	switch family {
	case FamilyIPv4:
		out = append(out, v.IPv4.Any...)
		out = append(out, v.IPv4.Unicast...)
	case FamilyIPv6:
		out = append(out, v.IPv6.Any...)
		out = append(out, v.IPv6.Unicast...)
	}
	return out
}

// Family distinguishes IPv4 from IPv6 route-set/policy resolution.
type Family int

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
)

func familyOf(n *net.IPNet) Family {
	if n != nil && n.IP.To4() != nil {
		return FamilyIPv4
	}
	return FamilyIPv6
}

// representatives flattens a deduped path to the concrete AS numbers
// package filter's AS-path regex/RegexOp checks operate over; a Set
// entry contributes its first member (spec.md §4.7: the pair-walking
// and grading logic preserve the placeholder itself — see
// bgpline.PathEntry and the AsPathPairWithSet report above).
func representatives(path []bgpline.PathEntry) []uint32 {
	out := make([]uint32, len(path))
	for i, e := range path {
		out[i] = e.Representative()
	}
	return out
}

func dedupPath(path []bgpline.PathEntry) []bgpline.PathEntry {
	if len(path) == 0 {
		return nil
	}
	out := make([]bgpline.PathEntry, 0, len(path))
	out = append(out, path[0])
	for _, e := range path[1:] {
		if !out[len(out)-1].Equal(e) {
			out = append(out, e)
		}
	}
	return out
}
