package aspath

import (
	"testing"

	"github.com/rpslverify/rpslverify/internal/ir"
)

func seq(nodes ...*ir.RegexNode) *ir.RegexNode {
	return &ir.RegexNode{Kind: ir.RegexNodeSeq, Seq: nodes}
}

func asAtom(n uint32) *ir.RegexNode {
	return &ir.RegexNode{Kind: ir.RegexNodeAtomAs, As: n}
}

func anyAtom() *ir.RegexNode {
	return &ir.RegexNode{Kind: ir.RegexNodeAtomAny}
}

func quant(inner *ir.RegexNode, op ir.RegexOp) *ir.RegexNode {
	return &ir.RegexNode{Kind: ir.RegexNodeQuant, Left: inner, Op: op}
}

func TestMatchExactSequence(t *testing.T) {
	prog := Compile(seq(asAtom(1), asAtom(2), asAtom(3)))
	matched, skip := prog.Match(nil, []uint32{1, 2, 3})
	if skip || !matched {
		t.Fatalf("matched=%v skip=%v, want matched=true", matched, skip)
	}
	matched, skip = prog.Match(nil, []uint32{1, 2})
	if skip || matched {
		t.Fatalf("matched=%v skip=%v, want matched=false", matched, skip)
	}
}

func TestMatchStarQuantifier(t *testing.T) {
	prog := Compile(seq(asAtom(1), quant(anyAtom(), ir.RegexOp{Kind: ir.RegexStar}), asAtom(9)))
	cases := [][]uint32{
		{1, 9},
		{1, 2, 9},
		{1, 2, 3, 4, 9},
	}
	for _, path := range cases {
		matched, skip := prog.Match(nil, path)
		if skip || !matched {
			t.Errorf("path %v: matched=%v skip=%v, want matched=true", path, matched, skip)
		}
	}
	matched, skip := prog.Match(nil, []uint32{1, 2})
	if skip || matched {
		t.Fatalf("path missing terminal AS: matched=%v skip=%v, want matched=false", matched, skip)
	}
}

func TestMatchPlusRequiresAtLeastOne(t *testing.T) {
	prog := Compile(seq(asAtom(1), quant(asAtom(2), ir.RegexOp{Kind: ir.RegexPlus})))
	matched, skip := prog.Match(nil, []uint32{1})
	if skip || matched {
		t.Fatalf("matched=%v skip=%v, want matched=false (plus needs >=1)", matched, skip)
	}
	matched, skip = prog.Match(nil, []uint32{1, 2, 2, 2})
	if skip || !matched {
		t.Fatalf("matched=%v skip=%v, want matched=true", matched, skip)
	}
}

func TestMatchQuestionOptional(t *testing.T) {
	prog := Compile(seq(asAtom(1), quant(asAtom(2), ir.RegexOp{Kind: ir.RegexQuestion}), asAtom(3)))
	for _, path := range [][]uint32{{1, 3}, {1, 2, 3}} {
		matched, skip := prog.Match(nil, path)
		if skip || !matched {
			t.Errorf("path %v: matched=%v skip=%v, want matched=true", path, matched, skip)
		}
	}
}

func TestMatchRangeQuantifier(t *testing.T) {
	prog := Compile(quant(asAtom(7), ir.RegexOp{Kind: ir.RegexRange, M: 2, N: 3}))
	if matched, skip := prog.Match(nil, []uint32{7}); matched || skip {
		t.Fatalf("one hop: matched=%v skip=%v, want matched=false", matched, skip)
	}
	if matched, skip := prog.Match(nil, []uint32{7, 7}); !matched || skip {
		t.Fatalf("two hops: matched=%v skip=%v, want matched=true", matched, skip)
	}
	if matched, skip := prog.Match(nil, []uint32{7, 7, 7, 7}); matched || skip {
		t.Fatalf("four hops: matched=%v skip=%v, want matched=false", matched, skip)
	}
}

func TestMatchAlternation(t *testing.T) {
	prog := Compile(&ir.RegexNode{Kind: ir.RegexNodeAlt, Seq: []*ir.RegexNode{asAtom(1), asAtom(2)}})
	if matched, _ := prog.Match(nil, []uint32{1}); !matched {
		t.Fatal("expected AS 1 to match the alternation")
	}
	if matched, _ := prog.Match(nil, []uint32{2}); !matched {
		t.Fatal("expected AS 2 to match the alternation")
	}
	if matched, _ := prog.Match(nil, []uint32{3}); matched {
		t.Fatal("did not expect AS 3 to match the alternation")
	}
}
