// Package verbosity carries the orthogonal boolean flags that control
// how much diagnostic detail a compliance run attaches to its reports
// (spec.md §4.9). A Verbosity is plain data, passed by value, never
// mutated after construction.
package verbosity

// Verbosity is a set of independent toggles; any combination is valid.
type Verbosity struct {
	StopAtFirst bool // stop walking the as-path at the first non-Ok report

	ShowMeh     bool // keep Meh-grade items in the output
	ShowUnrec   bool // keep Unrec-grade items (unrecorded aut-num/set) in the output
	ShowSkips   bool // keep Skip-grade items in the output
	ShowSuccess bool // keep Ok-grade items in the output

	PerEntryErr bool // per-offending-entry Bad reporting; no code in this module reads this flag
	AllErr      bool // report-every-Bad-item mode; no code in this module reads this flag

	RecordSet       bool // emit AsPathPairWithSet when a hop involves an as-set placeholder
	RecordCommunity bool // let community filters reach Meh instead of Skip

	SpecialUphill           bool // downgrade an Ok customer->provider export that follows a provider->customer or peer hop to Meh
	CheckCustomer           bool // flag a missing typical-customer-set filter as Meh
	CheckImportOnlyProvider bool // flag each Ok import from a provider as Meh; the aut-num's other imports are not examined
}

// Least is the default, quietest Verbosity: every flag off except
// stop_at_first, so a single non-Ok report ends the walk.
func Least() Verbosity {
	return Verbosity{StopAtFirst: true}
}

// MinimumAll turns on every grade-visibility flag plus the three
// heuristic checks; the `check` subcommand runs with it.
func MinimumAll() Verbosity {
	return Verbosity{
		ShowMeh:     true,
		ShowUnrec:   true,
		ShowSkips:   true,
		ShowSuccess: true,

		SpecialUphill:           true,
		CheckCustomer:           true,
		CheckImportOnlyProvider: true,
	}
}
