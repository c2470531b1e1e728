// Package query builds a read-only, memoized view over an ir.IR: the
// transitive closures a filter/peering evaluation needs (as-set
// membership, route-set prefix membership, an AS's originated routes),
// computed lazily and cached behind a mutex-guarded map in the style of
// the teacher's SafeSet (spec.md §5 concurrency model: the index is
// immutable after construction, built once by ingest, then read
// concurrently by many route evaluations).
package query

import (
	"net"
	"sync"

	graph "github.com/Emeline-1/basic_graph"
	radix "github.com/Emeline-1/radix"

	"github.com/rpslverify/rpslverify/internal/ir"
)

// Index is the query surface package filter and package peering evaluate
// against. Build it once via New and share it read-only across goroutines.
type Index struct {
	data *ir.IR

	asSetMu     sync.Mutex
	asSetMemo   map[string][]uint32
	asSetOk     map[string]bool

	routeSetMu   sync.Mutex
	routeSetMemo map[string][]ir.AddrPfxRange
	routeSetOk   map[string]bool

	radixMu   sync.Mutex
	radixMemo map[string]*radix.Tree
}

// New builds a query index over an already-merged IR. The IR is never
// mutated afterwards; New itself does no expensive precomputation,
// everything below is built lazily and memoized on first use.
func New(data *ir.IR) *Index {
	return &Index{
		data:         data,
		asSetMemo:    make(map[string][]uint32),
		asSetOk:      make(map[string]bool),
		routeSetMemo: make(map[string][]ir.AddrPfxRange),
		routeSetOk:   make(map[string]bool),
		radixMemo:    make(map[string]*radix.Tree),
	}
}

// IR exposes the underlying corpus for components (e.g. the compliance
// driver) that need direct access to aut-num bodies or Imports/Exports.
func (x *Index) IR() *ir.IR { return x.data }

// AsSetMembers resolves the transitive closure of an as-set's AS numbers,
// memoized. ok is false if name is not a defined as-set. Cycles in the
// as-set reference graph (spec.md §4.3 edge case) are handled by a
// per-call visited set: a set that (directly or transitively) references
// itself contributes no additional members on the repeat visit, rather
// than looping forever.
func (x *Index) AsSetMembers(name string) ([]uint32, bool) {
	x.asSetMu.Lock()
	if v, done := x.asSetMemo[name]; done {
		ok := x.asSetOk[name]
		x.asSetMu.Unlock()
		return v, ok
	}
	x.asSetMu.Unlock()

	visited := make(map[string]bool)
	members, ok := x.resolveAsSet(name, visited)

	x.asSetMu.Lock()
	x.asSetMemo[name] = members
	x.asSetOk[name] = ok
	x.asSetMu.Unlock()
	return members, ok
}

func (x *Index) resolveAsSet(name string, visited map[string]bool) ([]uint32, bool) {
	if visited[name] {
		return nil, true
	}
	visited[name] = true

	set, ok := x.data.AsSets[name]
	if !ok {
		return nil, false
	}

	seen := make(map[uint32]bool)
	var out []uint32
	for _, m := range set.Members {
		switch m.Kind {
		case ir.AsNameNum:
			if !seen[m.Num] {
				seen[m.Num] = true
				out = append(out, m.Num)
			}
		case ir.AsNameSet:
			nested, _ := x.resolveAsSet(m.Set, visited)
			for _, asn := range nested {
				if !seen[asn] {
					seen[asn] = true
					out = append(out, asn)
				}
			}
		case ir.AsNameAny, ir.AsNameInvalid:
			// ANY and unparsable text contribute no concrete AS numbers, so
			// an ANY member of an as-set matches no AS through this set.
		}
	}
	return out, true
}

// RouteSetMembers resolves the transitive closure of a route-set's
// prefix ranges, memoized. A member naming an as-set resolves to that
// as-set's originated routes (spec.md §3: "SetRef may name an as-set or
// a route-set" — an as-set inside a route-set stands for every route
// originated by its member ASes).
func (x *Index) RouteSetMembers(name string) ([]ir.AddrPfxRange, bool) {
	x.routeSetMu.Lock()
	if v, done := x.routeSetMemo[name]; done {
		ok := x.routeSetOk[name]
		x.routeSetMu.Unlock()
		return v, ok
	}
	x.routeSetMu.Unlock()

	visited := make(map[string]bool)
	members, ok := x.resolveRouteSet(name, visited)

	x.routeSetMu.Lock()
	x.routeSetMemo[name] = members
	x.routeSetOk[name] = ok
	x.routeSetMu.Unlock()
	return members, ok
}

func (x *Index) resolveRouteSet(name string, visited map[string]bool) ([]ir.AddrPfxRange, bool) {
	if visited[name] {
		return nil, true
	}
	visited[name] = true

	set, ok := x.data.RouteSets[name]
	if !ok {
		return nil, false
	}

	var out []ir.AddrPfxRange
	for _, m := range set.Members {
		switch m.Kind {
		case ir.RouteSetMemberPrefix:
			out = append(out, m.Prefix)
		case ir.RouteSetMemberSetRef:
			if nested, ok := x.resolveRouteSet(m.SetRef, visited); ok {
				out = append(out, nested...)
				continue
			}
			for _, asn := range x.AsRoutes(m.SetRef) {
				out = append(out, ir.AddrPfxRange{Prefix: asn, Op: ir.RangeOp{Kind: ir.RangeExact}})
			}
		}
	}
	return out, true
}

// AsRoutes resolves the routes originated by every AS number in the
// as-set named name (or a single "ASxxxx"-style literal, tolerated for
// symmetry with route-set member resolution above).
func (x *Index) AsRoutes(name string) []*net.IPNet {
	var asns []uint32
	if asn, ok := ir.ParseASN(name); ok {
		asns = []uint32{asn}
	} else if members, ok := x.AsSetMembers(name); ok {
		asns = members
	}
	var out []*net.IPNet
	for _, asn := range asns {
		out = append(out, x.data.AsRoutes[asn]...)
	}
	return out
}

// ContainsRoute reports whether p is within the resolved closure of
// route-set name, per each member's AddrPfxRange.Contains rule (spec.md
// §8 property 7). The route-set's members are indexed into a radix tree
// keyed on the binary prefix, memoized per route-set name, the same
// structure the teacher builds over a forwarding table before a
// post-order walk (overlays_processing.go); here it is walked one
// candidate leaf at a time rather than post-order, since containment
// needs the range check p's own mask length must pass.
func (x *Index) ContainsRoute(name string, p *net.IPNet) bool {
	members, ok := x.RouteSetMembers(name)
	if !ok {
		return false
	}
	tree := x.radixTreeFor(name, members)
	found := false
	tree.Walk(func(key string, val interface{}) bool {
		rng := val.(ir.AddrPfxRange)
		if rng.Contains(p) {
			found = true
			return true
		}
		return false
	})
	return found
}

func (x *Index) radixTreeFor(name string, members []ir.AddrPfxRange) *radix.Tree {
	x.radixMu.Lock()
	defer x.radixMu.Unlock()
	if t, ok := x.radixMemo[name]; ok {
		return t
	}
	t := radix.New()
	for _, m := range members {
		if m.Prefix == nil {
			continue
		}
		t.Insert(binaryString(m.Prefix), m)
	}
	x.radixMemo[name] = t
	return t
}

// binaryString renders a prefix as a left-justified bit string, the key
// format the teacher's radix usage relies on (ip_addresses.go's
// get_binary_string), generalized here to IPv6.
func binaryString(n *net.IPNet) string {
	ones, _ := n.Mask.Size()
	ip := n.IP.To4()
	if ip == nil {
		ip = n.IP.To16()
	}
	var b []byte
	for _, octet := range ip {
		b = append(b, []byte(toBits(octet))...)
	}
	full := string(b)
	if ones > len(full) {
		ones = len(full)
	}
	return full[:ones]
}

func toBits(b byte) string {
	bits := make([]byte, 8)
	for i := 0; i < 8; i++ {
		if b&(1<<(7-i)) != 0 {
			bits[i] = '1'
		} else {
			bits[i] = '0'
		}
	}
	return string(bits)
}

// SetReferenceComponents groups every as-set and route-set name into
// connected components of the set-reference graph — not on the
// compliance hot path, and not called by any subcommand or package in
// this module. Grounded on the teacher's connected-components usage for
// overlay grouping (overlays_processing.go).
func (x *Index) SetReferenceComponents() [][]string {
	g := graph.New()
	for name, set := range x.data.AsSets {
		for _, m := range set.Members {
			if m.Kind == ir.AsNameSet {
				g.Add_edge(name, m.Set)
			}
		}
	}
	for name, set := range x.data.RouteSets {
		for _, m := range set.Members {
			if m.Kind == ir.RouteSetMemberSetRef {
				g.Add_edge(name, m.SetRef)
			}
		}
	}

	var components [][]string
	g.Set_iterator()
	for g.Next_connected_component() {
		components = append(components, g.Connected_component())
	}
	return components
}
