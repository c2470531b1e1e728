package ir

import (
	"log"
	"sort"
)

// Merge combines IRs built independently from separate database files
// (spec.md §5 concurrency model: ingest is parallel-by-file, so each
// worker builds its own IR before a single-threaded merge). Merge order
// is deterministic: parts are merged in the order given, and a key that
// appears in more than one part is resolved last-writer-wins — the same
// rule Build itself applies to a single file redefining an object. Only
// aut-num, as-set and route-set conflicts log a warning; peering-sets,
// filter-sets and pseudo-sets are overwritten silently.
func Merge(parts ...*IR) *IR {
	out := newIR()
	for _, p := range parts {
		if p == nil {
			continue
		}
		mergeAutNums(out, p)
		mergeAsSets(out, p)
		mergeRouteSets(out, p)
		mergePeeringSets(out, p)
		mergeFilterSets(out, p)
		mergeAsRoutes(out, p)
		mergePseudoAsSets(out, p)
		mergePseudoRouteSets(out, p)
	}
	return out
}

func mergeAutNums(out, p *IR) {
	for _, asn := range sortedUint32Keys(p.AutNums) {
		if _, dup := out.AutNums[asn]; dup {
			log.Printf("ir: merge: AS%d redefined across files, last writer wins", asn)
		}
		out.AutNums[asn] = p.AutNums[asn]
	}
}

func mergeAsSets(out, p *IR) {
	for _, name := range sortedStringKeys(p.AsSets) {
		if _, dup := out.AsSets[name]; dup {
			log.Printf("ir: merge: as-set %s redefined across files, last writer wins", name)
		}
		out.AsSets[name] = p.AsSets[name]
	}
}

func mergeRouteSets(out, p *IR) {
	for _, name := range sortedStringKeysRS(p.RouteSets) {
		if _, dup := out.RouteSets[name]; dup {
			log.Printf("ir: merge: route-set %s redefined across files, last writer wins", name)
		}
		out.RouteSets[name] = p.RouteSets[name]
	}
}

func mergePeeringSets(out, p *IR) {
	for name, v := range p.PeeringSets {
		out.PeeringSets[name] = v
	}
}

func mergeFilterSets(out, p *IR) {
	for name, v := range p.FilterSets {
		out.FilterSets[name] = v
	}
}

func mergeAsRoutes(out, p *IR) {
	for asn, routes := range p.AsRoutes {
		out.AsRoutes[asn] = append(out.AsRoutes[asn], routes...)
	}
}

func mergePseudoAsSets(out, p *IR) {
	for name, v := range p.PseudoAsSets {
		out.PseudoAsSets[name] = v
	}
}

func mergePseudoRouteSets(out, p *IR) {
	for name, v := range p.PseudoRouteSets {
		out.PseudoRouteSets[name] = v
	}
}

func sortedUint32Keys(m map[uint32]*AutNum) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedStringKeys(m map[string]*AsSet) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStringKeysRS(m map[string]*RouteSet) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
