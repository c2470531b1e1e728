// Package lattice implements the verdict algebra: the grades a policy
// check can produce, and the two ways of combining them (All, for
// conjunction of sub-checks; Any, for disjunction of policy alternatives).
package lattice

import "fmt"

// Grade orders verdicts from least to most severe. The zero value is Ok,
// so a zero AllReport is already the Ok identity; a zero AnyReport is
// not (its Ok flag is false), which is why OkAny sets it.
type Grade int

const (
	GradeOk Grade = iota
	GradeSkip
	GradeUnrec
	GradeMeh
	GradeBad
)

func (g Grade) String() string {
	switch g {
	case GradeOk:
		return "ok"
	case GradeSkip:
		return "skip"
	case GradeUnrec:
		return "unrec"
	case GradeMeh:
		return "meh"
	case GradeBad:
		return "bad"
	default:
		return fmt.Sprintf("grade(%d)", int(g))
	}
}

// ItemKind enumerates the concrete reasons a non-Ok grade was produced.
type ItemKind int

const (
	ItemSkipExportEmpty ItemKind = iota
	ItemSkipImportEmpty
	ItemNoMatch
	ItemBadRpsl
	ItemUnrecordedAutNum
	ItemUnrecordedSet
	ItemSkipCommunityCheckUnimplemented
	ItemRecCheckFilter
	ItemSpecialUphill
	ItemMissingCustomerFilter
	ItemImportOnlyProvider
)

func (k ItemKind) String() string {
	switch k {
	case ItemSkipExportEmpty:
		return "SkipExportEmpty"
	case ItemSkipImportEmpty:
		return "SkipImportEmpty"
	case ItemNoMatch:
		return "NoMatch"
	case ItemBadRpsl:
		return "BadRpsl"
	case ItemUnrecordedAutNum:
		return "UnrecordedAutNum"
	case ItemUnrecordedSet:
		return "UnrecordedSet"
	case ItemSkipCommunityCheckUnimplemented:
		return "SkipCommunityCheckUnimplemented"
	case ItemRecCheckFilter:
		return "RecCheckFilter"
	case ItemSpecialUphill:
		return "SpecialUphill"
	case ItemMissingCustomerFilter:
		return "MissingCustomerFilter"
	case ItemImportOnlyProvider:
		return "ImportOnlyProvider"
	default:
		return fmt.Sprintf("item(%d)", int(k))
	}
}

// Item is one concrete reason contributing to a report's grade.
type Item struct {
	Kind ItemKind
	AS   uint32 // UnrecordedAutNum
	Name string // UnrecordedSet, NoMatch's filter/peering kind
	Text string // BadRpsl
}

func (it Item) String() string {
	switch it.Kind {
	case ItemUnrecordedAutNum:
		return fmt.Sprintf("%s(%d)", it.Kind, it.AS)
	case ItemUnrecordedSet, ItemNoMatch:
		return fmt.Sprintf("%s(%s)", it.Kind, it.Name)
	case ItemBadRpsl:
		return fmt.Sprintf("%s(%q)", it.Kind, it.Text)
	default:
		return it.Kind.String()
	}
}

func ExportEmpty() Item                     { return Item{Kind: ItemSkipExportEmpty} }
func ImportEmpty() Item                     { return Item{Kind: ItemSkipImportEmpty} }
func NoMatch(kind string) Item              { return Item{Kind: ItemNoMatch, Name: kind} }
func BadRpsl(text string) Item              { return Item{Kind: ItemBadRpsl, Text: text} }
func UnrecordedAutNum(as uint32) Item       { return Item{Kind: ItemUnrecordedAutNum, AS: as} }
func UnrecordedSet(name string) Item        { return Item{Kind: ItemUnrecordedSet, Name: name} }
func SkipCommunityCheckUnimplemented() Item { return Item{Kind: ItemSkipCommunityCheckUnimplemented} }
func RecCheckFilter() Item                  { return Item{Kind: ItemRecCheckFilter} }
func SpecialUphill() Item                   { return Item{Kind: ItemSpecialUphill} }
func MissingCustomerFilter() Item           { return Item{Kind: ItemMissingCustomerFilter} }
func ImportOnlyProvider() Item              { return Item{Kind: ItemImportOnlyProvider} }

// AllReport is the result of combining checks that must ALL hold
// (conjunction): mp_peerings AND mp_filter, And(a, b), etc. Its identity
// is OkAll(); combining takes the worst grade and accumulates items.
type AllReport struct {
	Grade Grade
	Items []Item
}

func OkAll() AllReport { return AllReport{Grade: GradeOk} }

func SkipAll(items ...Item) AllReport { return AllReport{Grade: GradeSkip, Items: items} }
func UnrecAll(items ...Item) AllReport { return AllReport{Grade: GradeUnrec, Items: items} }
func MehAll(items ...Item) AllReport  { return AllReport{Grade: GradeMeh, Items: items} }
func BadAll(items ...Item) AllReport  { return AllReport{Grade: GradeBad, Items: items} }

// CombineAll merges two conjuncts: the worst grade wins, items accumulate.
// OkAll() is the identity: r.CombineAll(OkAll()) == r for any r.
func (a AllReport) CombineAll(b AllReport) AllReport {
	worst := a.Grade
	if b.Grade > worst {
		worst = b.Grade
	}
	items := make([]Item, 0, len(a.Items)+len(b.Items))
	items = append(items, a.Items...)
	items = append(items, b.Items...)
	return AllReport{Grade: worst, Items: items}
}

// AnyReport is the result of combining policy alternatives where ANY one
// succeeding is enough (disjunction): alternative mp_peerings entries,
// alternative imports/exports, Or(a, b). Ok == true means the alternative
// succeeded outright (the "None" case of spec.md's Option<...>).
type AnyReport struct {
	Ok    bool
	Grade Grade // meaningful only when Ok is false
	Items []Item
}

func OkAny() AnyReport { return AnyReport{Ok: true} }

func SkipAny(items ...Item) AnyReport { return AnyReport{Grade: GradeSkip, Items: items} }
func UnrecAny(items ...Item) AnyReport { return AnyReport{Grade: GradeUnrec, Items: items} }
func MehAny(items ...Item) AnyReport  { return AnyReport{Grade: GradeMeh, Items: items} }
func BadAny(items ...Item) AnyReport  { return AnyReport{Grade: GradeBad, Items: items} }

// IdentityAny is the identity element for folding a list of disjuncts:
// BadAny(nil). An empty Or (no alternatives at all) is therefore Bad.
func IdentityAny() AnyReport { return BadAny() }

// CombineAny merges two disjuncts: Ok wins outright; otherwise the least
// severe grade wins and items from both sides accumulate.
func (a AnyReport) CombineAny(b AnyReport) AnyReport {
	if a.Ok || b.Ok {
		return OkAny()
	}
	best := a.Grade
	if b.Grade < best {
		best = b.Grade
	}
	items := make([]Item, 0, len(a.Items)+len(b.Items))
	items = append(items, a.Items...)
	items = append(items, b.Items...)
	return AnyReport{Grade: best, Items: items}
}

// ToAll converts a disjunction result into a conjunction result:
// Ok -> OkAll, else the grade and items are preserved.
func (a AnyReport) ToAll() AllReport {
	if a.Ok {
		return OkAll()
	}
	return AllReport{Grade: a.Grade, Items: a.Items}
}

// ToAny converts a conjunction result into a disjunction result:
// OkAll -> OkAny (i.e. None), else the grade and items are preserved.
func (a AllReport) ToAny() AnyReport {
	if a.Grade == GradeOk {
		return OkAny()
	}
	return AnyReport{Grade: a.Grade, Items: a.Items}
}
