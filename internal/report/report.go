// Package report collates compliance.RouteReport results into the
// output schemas spec.md §6 defines: per-AS-pair detail, per-AS
// rollup, and a long-form quality/hill/port/value summary. Rows are
// sorted by the same sort.Interface-over-named-weight idiom the
// teacher uses for neighbor-weight ordering (probing_strategies_utils.go's
// AS_weight/ByWeight), generalized from AS-cone-size weights to
// error-count severity.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/rpslverify/rpslverify/internal/compliance"
	"github.com/rpslverify/rpslverify/internal/lattice"
	"github.com/rpslverify/rpslverify/internal/relationship"
)

// PairRow is one row of the AS-pair schema: per-grade-bucket hop
// counts, accumulated across every route that observed the pair.
type PairRow struct {
	From, To uint32

	ImportOk, ExportOk     int
	ImportSkip, ExportSkip int
	ImportMeh, ExportMeh   int
	ImportErr, ExportErr   int

	Relationship relationship.Kind
}

// ASRow is one row of the AS rollup schema: per-grade-bucket counts
// accumulated across every hop the AS participated in, as either side.
type ASRow struct {
	AS uint32

	ImportOk, ExportOk     int
	ImportSkip, ExportSkip int
	ImportMeh, ExportMeh   int
	ImportErr, ExportErr   int
}

// QualityRow is one row of the long-form quality/hill/port/value
// schema: how many hops of a given relationship ("hill") and
// direction ("port") fell into a given coarse quality bucket.
type QualityRow struct {
	Quality string // ok, skip, or bad
	Hill    string // up, down, peer, or other
	Port    string // import or export
	Value   int
}

// bucket4 folds a grade into the four pair/AS-schema buckets: ok,
// skip, meh, err (Unrec and Bad both count as err, spec.md §6).
func bucket4(g lattice.Grade) string {
	switch g {
	case lattice.GradeOk:
		return "ok"
	case lattice.GradeSkip:
		return "skip"
	case lattice.GradeMeh:
		return "meh"
	default:
		return "err"
	}
}

// bucket3 folds a grade into the long-form table's three buckets: ok,
// skip, bad (Unrec and Meh both count as bad, spec.md §6).
func bucket3(g lattice.Grade) string {
	switch g {
	case lattice.GradeOk:
		return "ok"
	case lattice.GradeSkip:
		return "skip"
	default:
		return "bad"
	}
}

func hillOf(rel relationship.Kind) string {
	switch rel {
	case relationship.C2P:
		return "up"
	case relationship.P2C:
		return "down"
	case relationship.P2P:
		return "peer"
	default:
		return "other"
	}
}

// PairRows flattens a set of route reports into per-AS-pair counters.
func PairRows(routes []compliance.RouteReport) []PairRow {
	index := make(map[[2]uint32]*PairRow)
	var order [][2]uint32
	row := func(from, to uint32) *PairRow {
		key := [2]uint32{from, to}
		r, ok := index[key]
		if !ok {
			r = &PairRow{From: from, To: to}
			index[key] = r
			order = append(order, key)
		}
		return r
	}

	for _, route := range routes {
		for _, h := range route.Hops {
			r := row(h.From, h.To)
			r.Relationship = h.Relationship
			tallyPair(r, bucket4(h.Export.Grade), true)
			tallyPair(r, bucket4(h.Import.Grade), false)
		}
	}

	rows := make([]PairRow, 0, len(order))
	for _, key := range order {
		rows = append(rows, *index[key])
	}
	sort.Sort(byPairSeverity(rows))
	return rows
}

func tallyPair(r *PairRow, bucket string, export bool) {
	switch {
	case bucket == "ok" && export:
		r.ExportOk++
	case bucket == "ok":
		r.ImportOk++
	case bucket == "skip" && export:
		r.ExportSkip++
	case bucket == "skip":
		r.ImportSkip++
	case bucket == "meh" && export:
		r.ExportMeh++
	case bucket == "meh":
		r.ImportMeh++
	case export:
		r.ExportErr++
	default:
		r.ImportErr++
	}
}

// ASRows rolls hops up by AS, both as the exporting and importing side.
func ASRows(routes []compliance.RouteReport) []ASRow {
	index := make(map[uint32]*ASRow)
	var order []uint32
	row := func(as uint32) *ASRow {
		r, ok := index[as]
		if !ok {
			r = &ASRow{AS: as}
			index[as] = r
			order = append(order, as)
		}
		return r
	}

	for _, route := range routes {
		for _, h := range route.Hops {
			tallyAS(row(h.From), bucket4(h.Export.Grade), true)
			tallyAS(row(h.To), bucket4(h.Import.Grade), false)
		}
	}

	rows := make([]ASRow, 0, len(order))
	for _, as := range order {
		rows = append(rows, *index[as])
	}
	sort.Sort(byASSeverity(rows))
	return rows
}

func tallyAS(r *ASRow, bucket string, export bool) {
	switch {
	case bucket == "ok" && export:
		r.ExportOk++
	case bucket == "ok":
		r.ImportOk++
	case bucket == "skip" && export:
		r.ExportSkip++
	case bucket == "skip":
		r.ImportSkip++
	case bucket == "meh" && export:
		r.ExportMeh++
	case bucket == "meh":
		r.ImportMeh++
	case export:
		r.ExportErr++
	default:
		r.ImportErr++
	}
}

// QualityRows buckets every hop by hill (relationship) x port
// (direction) x quality (coarse grade), long-form (spec.md §6).
func QualityRows(routes []compliance.RouteReport) []QualityRow {
	counts := make(map[[3]string]int)
	for _, route := range routes {
		for _, h := range route.Hops {
			hill := hillOf(h.Relationship)
			counts[[3]string{bucket3(h.Export.Grade), hill, "export"}]++
			counts[[3]string{bucket3(h.Import.Grade), hill, "import"}]++
		}
	}

	qualities := []string{"ok", "skip", "bad"}
	hills := []string{"up", "down", "peer", "other"}
	ports := []string{"import", "export"}

	var rows []QualityRow
	for _, q := range qualities {
		for _, h := range hills {
			for _, p := range ports {
				if v, ok := counts[[3]string{q, h, p}]; ok {
					rows = append(rows, QualityRow{Quality: q, Hill: h, Port: p, Value: v})
				}
			}
		}
	}
	return rows
}

func (r PairRow) severity() int {
	return r.ExportErr + r.ImportErr + r.ExportMeh + r.ImportMeh
}

func (r ASRow) severity() int {
	return r.ExportErr + r.ImportErr + r.ExportMeh + r.ImportMeh
}

// byPairSeverity sorts PairRows worst-first, the same
// Len/Swap/Less split as the teacher's AS_weights/ByWeight.
type byPairSeverity []PairRow

func (s byPairSeverity) Len() int      { return len(s) }
func (s byPairSeverity) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s byPairSeverity) Less(i, j int) bool {
	if s[i].severity() != s[j].severity() {
		return s[i].severity() > s[j].severity()
	}
	if s[i].From != s[j].From {
		return s[i].From < s[j].From
	}
	return s[i].To < s[j].To
}

// byASSeverity sorts ASRows worst-first, the same split as byPairSeverity.
type byASSeverity []ASRow

func (s byASSeverity) Len() int      { return len(s) }
func (s byASSeverity) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s byASSeverity) Less(i, j int) bool {
	if s[i].severity() != s[j].severity() {
		return s[i].severity() > s[j].severity()
	}
	return s[i].AS < s[j].AS
}

// WritePairCSV writes the AS-pair schema as CSV (spec.md §6):
// from,to,import_ok,export_ok,import_skip,export_skip,import_meh,
// export_meh,import_err,export_err,relationship.
func WritePairCSV(w io.Writer, rows []PairRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	header := []string{
		"from", "to",
		"import_ok", "export_ok",
		"import_skip", "export_skip",
		"import_meh", "export_meh",
		"import_err", "export_err",
		"relationship",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			fmt.Sprint(r.From), fmt.Sprint(r.To),
			fmt.Sprint(r.ImportOk), fmt.Sprint(r.ExportOk),
			fmt.Sprint(r.ImportSkip), fmt.Sprint(r.ExportSkip),
			fmt.Sprint(r.ImportMeh), fmt.Sprint(r.ExportMeh),
			fmt.Sprint(r.ImportErr), fmt.Sprint(r.ExportErr),
			r.Relationship.String(),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// WriteASCSV writes the AS rollup schema as CSV (spec.md §6):
// aut_num,import_ok,export_ok,import_skip,export_skip,import_meh,
// export_meh,import_err,export_err.
func WriteASCSV(w io.Writer, rows []ASRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	header := []string{
		"aut_num",
		"import_ok", "export_ok",
		"import_skip", "export_skip",
		"import_meh", "export_meh",
		"import_err", "export_err",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			fmt.Sprint(r.AS),
			fmt.Sprint(r.ImportOk), fmt.Sprint(r.ExportOk),
			fmt.Sprint(r.ImportSkip), fmt.Sprint(r.ExportSkip),
			fmt.Sprint(r.ImportMeh), fmt.Sprint(r.ExportMeh),
			fmt.Sprint(r.ImportErr), fmt.Sprint(r.ExportErr),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// WriteQualityCSV writes the long-form quality/hill/port/value
// schema as CSV (spec.md §6).
func WriteQualityCSV(w io.Writer, rows []QualityRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	if err := cw.Write([]string{"quality", "hill", "port", "value"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{r.Quality, r.Hill, r.Port, fmt.Sprint(r.Value)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}
