// Package settree renders the set-reference chain that resolved an
// as-set or route-set membership query as an ASCII tree; no subcommand
// of rpslverify prints it. The tree engine itself is
// adapted from the teacher's tree/tree.go (credited there to
// github.com/Tufin/asciitree): same box-drawing layout, renamed to this
// package's domain — a Tree here holds the set names visited while
// resolving one query, not an arbitrary string path.
package settree

import (
	"fmt"
	"io"
)

// Tree is a set-name prefix tree: each level is one hop of set
// indirection (as-set A references as-set B references AS number C).
type Tree map[string]Tree

// Record inserts one resolution path (e.g. ["AS-FOO", "AS-BAR", "AS64500"])
// into the tree, calling onNew the first time a given set name is seen
// at its position in the tree (useful for counting distinct paths
// touched during a query).
func (t Tree) Record(path []string, onNew func(name string)) {
	if len(path) == 0 {
		return
	}
	next, ok := t[path[0]]
	if !ok {
		next = Tree{}
		t[path[0]] = next
		if onNew != nil {
			onNew(path[0])
		}
	}
	next.Record(path[1:], onNew)
}

// Fprint writes the tree as an ASCII box-drawing diagram to w.
func (t Tree) Fprint(w io.Writer, root bool, padding string) {
	if t == nil {
		return
	}
	index := 0
	for name, child := range t {
		fmt.Fprintf(w, "%s%s\n", padding+prefixFor(root, boxKindFor(index, len(t))), name)
		child.Fprint(w, false, padding+prefixFor(root, boxKindExternal(index, len(t))))
		index++
	}
}

type boxKind int

const (
	boxRegular boxKind = iota
	boxLast
	boxAfterLast
	boxBetween
)

func (k boxKind) String() string {
	switch k {
	case boxRegular:
		return "├" // ├
	case boxLast:
		return "└" // └
	case boxAfterLast:
		return " "
	case boxBetween:
		return "│" // │
	default:
		return "?"
	}
}

func boxKindFor(index, total int) boxKind {
	if index+1 == total {
		return boxLast
	} else if index+1 > total {
		return boxAfterLast
	}
	return boxRegular
}

func boxKindExternal(index, total int) boxKind {
	if index+1 == total {
		return boxAfterLast
	}
	return boxBetween
}

func prefixFor(root bool, k boxKind) string {
	if root {
		return ""
	}
	return k.String() + " "
}
