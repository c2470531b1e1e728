// Package relationship classifies the commercial relationship between
// two ASes (spec.md §4.8): customer-to-provider, provider-to-customer,
// peer-to-peer, or unknown. It carries the heuristics the compliance
// driver applies when a hop's relationship should shape how strictly a
// missing or indeterminate policy is treated.
package relationship

// Kind enumerates the relationship of an AS with its neighbor, named
// from the neighbor's point of view (mirrors the teacher's
// Customer/Peer/Provider/Unknown iota in caida_file_readers.go, renamed
// to the P2C/P2P/C2P/None vocabulary spec.md uses).
type Kind int

const (
	None Kind = iota // no recorded relationship
	P2C             // neighbor is a customer of AS (AS is the neighbor's provider)
	P2P             // peer relationship
	C2P             // neighbor is a provider of AS (AS is the neighbor's customer)
)

func (k Kind) String() string {
	switch k {
	case P2C:
		return "P2C"
	case P2P:
		return "P2P"
	case C2P:
		return "C2P"
	default:
		return "None"
	}
}

// Table is a read-only AS-relationship lookup, built once by
// package asrel and shared across route evaluations.
type Table struct {
	neighbors map[uint32]map[uint32]Kind
}

// New wraps an already-populated neighbor map (package asrel's loader
// produces one; tests can also build one directly).
func New(neighbors map[uint32]map[uint32]Kind) *Table {
	if neighbors == nil {
		neighbors = make(map[uint32]map[uint32]Kind)
	}
	return &Table{neighbors: neighbors}
}

// Classify returns neighbor's relationship to as, or None if unknown —
// the same "prefer a known relationship, Unknown is a last resort"
// behavior as the teacher's get_relationship.
func (t *Table) Classify(as, neighbor uint32) Kind {
	if rels, ok := t.neighbors[as]; ok {
		if k, ok := rels[neighbor]; ok {
			return k
		}
	}
	return None
}

// SpecialUphill reports the "valley-free" violation heuristic: a C2P
// hop immediately following a P2C or P2P hop climbs back uphill after
// having gone downhill (or across a peering), which is never legitimate
// in a valley-free AS topology (spec.md §4.8 special_uphill). prevKind
// is the relationship of the previous hop in the path, nextKind of the
// one being checked.
func SpecialUphill(prevKind, nextKind Kind) bool {
	return (prevKind == P2C || prevKind == P2P) && nextKind == C2P
}

// CheckCustomer reports whether neighbor is a customer of as — the
// check_customer heuristic used to decide whether a missing export
// policy toward a customer should be treated more strictly than toward
// a peer or provider (spec.md §4.8).
func (t *Table) CheckCustomer(as, neighbor uint32) bool {
	return t.Classify(as, neighbor) == P2C
}

// CheckImportOnlyProvider reports whether neighbor is a provider of as
// (spec.md §4.8 check_import_only_provider): providers are expected to
// only ever appear on the import side of a well-formed policy.
func (t *Table) CheckImportOnlyProvider(as, neighbor uint32) bool {
	return t.Classify(as, neighbor) == C2P
}
