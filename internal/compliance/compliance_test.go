package compliance

import (
	"net"
	"testing"

	"github.com/rpslverify/rpslverify/internal/bgpline"
	"github.com/rpslverify/rpslverify/internal/ir"
	"github.com/rpslverify/rpslverify/internal/lattice"
	"github.com/rpslverify/rpslverify/internal/query"
	"github.com/rpslverify/rpslverify/internal/relationship"
	"github.com/rpslverify/rpslverify/internal/verbosity"
)

func mustCIDR(t *testing.T, s string) *net.IPNet {
	t.Helper()
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		t.Fatalf("ParseCIDR(%q): %v", s, err)
	}
	return n
}

func path(entries ...bgpline.PathEntry) []bgpline.PathEntry { return entries }

func seqPath(ases ...uint32) []bgpline.PathEntry {
	out := make([]bgpline.PathEntry, len(ases))
	for i, as := range ases {
		out[i] = bgpline.Seq(as)
	}
	return out
}

func exportAllEntry() ir.Entry {
	return ir.Entry{MPFilter: ir.Filter{Kind: ir.FilterAny}}
}

func anyPeeringFilterEntry() ir.Entry {
	return ir.Entry{
		MPPeerings: []ir.PeeringAction{{MPPeering: ir.Peering{RemoteAS: ir.AsExpr{Kind: ir.AsExprSingle, Name: ir.AnyAS()}}}},
		MPFilter:   ir.Filter{Kind: ir.FilterAny},
	}
}

func acceptingIR() *ir.IR {
	return &ir.IR{
		AutNums: map[uint32]*ir.AutNum{
			64496: {ASN: 64496, Exports: ir.Versions{Any: ir.Casts{Any: []ir.Entry{anyPeeringFilterEntry()}}}},
			64497: {ASN: 64497,
				Imports: ir.Versions{Any: ir.Casts{Any: []ir.Entry{anyPeeringFilterEntry()}}},
				Exports: ir.Versions{Any: ir.Casts{Any: []ir.Entry{anyPeeringFilterEntry()}}},
			},
			64498: {ASN: 64498, Imports: ir.Versions{Any: ir.Casts{Any: []ir.Entry{anyPeeringFilterEntry()}}}},
		},
	}
}

// reportsOfKind filters rs down to the ones matching kind, for assertions
// that don't care about ordering relative to other gated reports.
func reportsOfKind(rs []Report, kind ReportKind) []Report {
	var out []Report
	for _, r := range rs {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func TestCompareSingleHopUnrecordedEmitsUnrecSingleExport(t *testing.T) {
	idx := query.New(&ir.IR{})
	opts := Options{Verbosity: verbosity.Verbosity{ShowUnrec: true}}
	report := Compare(idx, "198.51.100.0/24", seqPath(64496), opts)

	if report.Grade() != lattice.GradeUnrec {
		t.Fatalf("got grade %v, want Unrec for a single unrecorded AS", report.Grade())
	}
	unrec := reportsOfKind(report.Reports, ReportUnrec)
	if len(unrec) != 1 {
		t.Fatalf("got %d Unrec reports, want 1: %+v", len(unrec), report.Reports)
	}
	got := unrec[0]
	if !got.Single || got.Direction != DirectionExport || got.From != 64496 {
		t.Fatalf("got %+v, want single export report for AS64496", got)
	}
	if len(got.Items) != 1 || got.Items[0] != lattice.UnrecordedAutNum(64496) {
		t.Fatalf("got items %+v, want [UnrecordedAutNum(64496)]", got.Items)
	}
}

func TestCompareSingleHopUnrecordedHiddenWithoutShowUnrec(t *testing.T) {
	idx := query.New(&ir.IR{})
	report := Compare(idx, "198.51.100.0/24", seqPath(64496), Options{})
	if len(report.Reports) != 0 {
		t.Fatalf("got %d reports, want 0 (show_unrec is off)", len(report.Reports))
	}
}

func TestCompareDedupsConsecutiveRepeats(t *testing.T) {
	idx := query.New(acceptingIR())
	report := Compare(idx, "198.51.100.0/24", seqPath(64496, 64496, 64497, 64498), Options{})
	if len(report.AsPath) != 3 {
		t.Fatalf("got deduped path %v, want length 3", report.AsPath)
	}
}

func TestCompareAcceptingPolicyYieldsOk(t *testing.T) {
	idx := query.New(acceptingIR())
	report := Compare(idx, "198.51.100.0/24", seqPath(64498, 64497, 64496), Options{})
	if report.Grade() != lattice.GradeOk {
		t.Fatalf("got grade %v, want Ok, hops=%+v", report.Grade(), report.Hops)
	}
	if len(report.Hops) != 2 {
		t.Fatalf("got %d hops, want 2", len(report.Hops))
	}
}

func TestCompareUnrecordedAutNumIsUnrec(t *testing.T) {
	idx := query.New(&ir.IR{})
	report := Compare(idx, "198.51.100.0/24", seqPath(64496, 64497), Options{})
	if report.Grade() != lattice.GradeUnrec {
		t.Fatalf("got grade %v, want Unrec for aut-nums absent from the corpus", report.Grade())
	}
}

func TestCompareDefaultVersionsIsSkip(t *testing.T) {
	data := &ir.IR{AutNums: map[uint32]*ir.AutNum{
		64496: {ASN: 64496},
		64497: {ASN: 64497},
	}}
	idx := query.New(data)
	report := Compare(idx, "198.51.100.0/24", seqPath(64496, 64497), Options{})
	if report.Grade() != lattice.GradeSkip {
		t.Fatalf("got grade %v, want Skip for an aut-num with no policy at all", report.Grade())
	}
}

func TestCompareRejectingFilterIsBad(t *testing.T) {
	data := &ir.IR{AutNums: map[uint32]*ir.AutNum{
		64496: {ASN: 64496, Exports: ir.Versions{Any: ir.Casts{Any: []ir.Entry{
			{MPFilter: ir.Filter{Kind: ir.FilterAsNum, AsNum: 99999}},
		}}}},
		64497: {ASN: 64497, Imports: ir.Versions{Any: ir.Casts{Any: []ir.Entry{anyPeeringFilterEntry()}}}},
	}}
	idx := query.New(data)
	report := Compare(idx, "198.51.100.0/24", seqPath(64497, 64496), Options{})
	if report.Grade() != lattice.GradeBad {
		t.Fatalf("got grade %v, want Bad (origin 64496 doesn't match the export filter)", report.Grade())
	}
}

func TestCompareStopAtFirstStopsOnBadGrade(t *testing.T) {
	data := &ir.IR{AutNums: map[uint32]*ir.AutNum{
		64496: {ASN: 64496, Exports: ir.Versions{Any: ir.Casts{Any: []ir.Entry{
			{MPFilter: ir.Filter{Kind: ir.FilterAsNum, AsNum: 99999}},
		}}}},
		64497: {ASN: 64497,
			Imports: ir.Versions{Any: ir.Casts{Any: []ir.Entry{anyPeeringFilterEntry()}}},
			Exports: ir.Versions{Any: ir.Casts{Any: []ir.Entry{anyPeeringFilterEntry()}}},
		},
		64498: {ASN: 64498, Imports: ir.Versions{Any: ir.Casts{Any: []ir.Entry{anyPeeringFilterEntry()}}}},
	}}
	idx := query.New(data)
	opts := Options{Verbosity: verbosity.Verbosity{StopAtFirst: true}}
	report := Compare(idx, "198.51.100.0/24", seqPath(64498, 64497, 64496), opts)
	if len(report.Hops) != 1 {
		t.Fatalf("got %d hops, want 1 (stop-at-first should halt after the first Bad hop)", len(report.Hops))
	}
}

func TestCompareReportsGatedByShowSkips(t *testing.T) {
	data := &ir.IR{AutNums: map[uint32]*ir.AutNum{
		64496: {ASN: 64496},
		64497: {ASN: 64497},
	}}
	idx := query.New(data)

	quiet := Compare(idx, "198.51.100.0/24", seqPath(64496, 64497), Options{})
	if len(quiet.Reports) != 0 {
		t.Fatalf("got %d reports, want 0 with show_skips off", len(quiet.Reports))
	}

	loud := Compare(idx, "198.51.100.0/24", seqPath(64496, 64497), Options{
		Verbosity: verbosity.Verbosity{ShowSkips: true},
	})
	if len(reportsOfKind(loud.Reports, ReportSkip)) == 0 {
		t.Fatalf("got %+v, want Skip reports with show_skips on", loud.Reports)
	}
}

func TestCompareEmitsAsPathPairWithSetUnderRecordSet(t *testing.T) {
	idx := query.New(acceptingIR())
	p := path(bgpline.Seq(64496), bgpline.SetEntry([]uint32{64497, 64499}), bgpline.Seq(64498))

	without := Compare(idx, "198.51.100.0/24", p, Options{})
	if len(reportsOfKind(without.Reports, ReportAsPathPairWithSet)) != 0 {
		t.Fatalf("got %+v, want no AsPathPairWithSet reports with record_set off", without.Reports)
	}

	with := Compare(idx, "198.51.100.0/24", p, Options{Verbosity: verbosity.Verbosity{RecordSet: true}})
	setReports := reportsOfKind(with.Reports, ReportAsPathPairWithSet)
	if len(setReports) != 2 {
		t.Fatalf("got %d AsPathPairWithSet reports, want 2 (one per hop touching the set)", len(setReports))
	}
}

func TestCompareSpecialUphillDowngradesUphillExportToMeh(t *testing.T) {
	// Walking origin-to-observer, 64498 goes downhill to its customer 64497
	// (P2C), then 64497 goes back uphill to its provider 64496 (C2P):
	// special_uphill flags the second leg (spec.md §4.8).
	rels := relationship.New(map[uint32]map[uint32]relationship.Kind{
		64498: {64497: relationship.P2C},
		64497: {64496: relationship.C2P},
	})
	idx := query.New(acceptingIR())
	opts := Options{
		Verbosity:     verbosity.Verbosity{SpecialUphill: true, ShowMeh: true},
		Relationships: rels,
	}
	report := Compare(idx, "198.51.100.0/24", seqPath(64496, 64497, 64498), opts)

	var uphillHop HopReport
	found := false
	for _, h := range report.Hops {
		if h.From == 64497 && h.To == 64496 {
			uphillHop = h
			found = true
		}
	}
	if !found {
		t.Fatalf("no hop 64497->64496 in %+v", report.Hops)
	}
	if uphillHop.Export.Grade != lattice.GradeMeh {
		t.Fatalf("got export grade %v, want Meh (special_uphill downgrade)", uphillHop.Export.Grade)
	}
}

func TestCompareCheckCustomerFlagsMissingExportPolicy(t *testing.T) {
	data := &ir.IR{AutNums: map[uint32]*ir.AutNum{
		64496: {ASN: 64496},
		64497: {ASN: 64497, Imports: ir.Versions{Any: ir.Casts{Any: []ir.Entry{anyPeeringFilterEntry()}}}},
	}}
	idx := query.New(data)
	rels := relationship.New(map[uint32]map[uint32]relationship.Kind{
		64496: {64497: relationship.P2C},
	})
	opts := Options{
		Verbosity:     verbosity.Verbosity{CheckCustomer: true, ShowMeh: true},
		Relationships: rels,
	}
	report := Compare(idx, "198.51.100.0/24", seqPath(64497, 64496), opts)
	if report.Hops[0].Export.Grade != lattice.GradeMeh {
		t.Fatalf("got export grade %v, want Meh (missing policy toward a customer)", report.Hops[0].Export.Grade)
	}
}

func TestCompareCheckImportOnlyProviderFlagsOkImport(t *testing.T) {
	idx := query.New(acceptingIR())
	rels := relationship.New(map[uint32]map[uint32]relationship.Kind{
		64497: {64496: relationship.C2P},
	})
	opts := Options{
		Verbosity:     verbosity.Verbosity{CheckImportOnlyProvider: true, ShowMeh: true},
		Relationships: rels,
	}
	report := Compare(idx, "198.51.100.0/24", seqPath(64497, 64496), opts)
	if report.Hops[0].Import.Grade != lattice.GradeMeh {
		t.Fatalf("got import grade %v, want Meh (Ok import from a provider)", report.Hops[0].Import.Grade)
	}
}

func TestApplicableEntriesMergesAnyAndUnicast(t *testing.T) {
	v := ir.Versions{
		Any:  ir.Casts{Any: []ir.Entry{exportAllEntry()}, Unicast: []ir.Entry{exportAllEntry()}},
		IPv4: ir.Casts{Unicast: []ir.Entry{exportAllEntry()}},
	}
	got := applicableEntries(v, FamilyIPv4)
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3 (any.any + any.unicast + ipv4.unicast)", len(got))
	}
	got = applicableEntries(v, FamilyIPv6)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2 (ipv6-specific entries excluded)", len(got))
	}
}

func TestFamilyOfDetectsIPv4AndIPv6(t *testing.T) {
	v4 := mustCIDR(t, "198.51.100.0/24")
	v6 := mustCIDR(t, "2001:db8::/32")
	if familyOf(v4) != FamilyIPv4 {
		t.Fatal("expected IPv4 family")
	}
	if familyOf(v6) != FamilyIPv6 {
		t.Fatal("expected IPv6 family")
	}
}
