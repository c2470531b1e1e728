package settree

import (
	"github.com/rpslverify/rpslverify/internal/ir"
	"github.com/rpslverify/rpslverify/internal/query"
)

// ExplainAsSet walks the as-set reference graph rooted at name (depth
// bounded the same way package query's closures are cycle-safe) and
// returns the resulting tree for diagnostic printing.
func ExplainAsSet(idx *query.Index, name string) Tree {
	root := Tree{}
	visited := make(map[string]bool)
	walkAsSet(idx, root, name, visited)
	return root
}

func walkAsSet(idx *query.Index, t Tree, name string, visited map[string]bool) {
	if visited[name] {
		return
	}
	visited[name] = true

	members, ok := idx.IR().AsSets[name]
	if !ok {
		return
	}
	for _, m := range members.Members {
		if m.Kind != ir.AsNameSet {
			continue
		}
		next := Tree{}
		t[m.Set] = next
		walkAsSet(idx, next, m.Set, visited)
	}
}
