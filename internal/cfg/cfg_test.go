package cfg

import (
	"testing"

	"bfc/internal/block"
	"bfc/internal/graph"
)

func newBlock(a *graph.Arena, touch bool) *block.Block {
	bld := block.NewBuilder(a)
	if touch {
		bld.AddConst(1)
	}
	return bld.Finish()
}

func TestSeqConcatenatesAdjacentBlocks(t *testing.T) {
	a := graph.NewArena()
	b1 := NewBlockNode(newBlock(a, true))
	b2 := NewBlockNode(newBlock(a, true))

	got := NewSeq(a, b1, b2)
	bn, ok := got.(*BlockNode)
	if !ok {
		t.Fatalf("expected two adjacent blocks to concatenate into one, got %T", got)
	}
	if len(bn.Block.Memory) != 1 {
		t.Fatalf("expected a single merged cell, got %d", len(bn.Block.Memory))
	}
}

func TestSeqSplicesNestedSeq(t *testing.T) {
	a := graph.NewArena()
	loop := &Loop{Body: NewBlockNode(newBlock(a, true)), Cond: Condition{Kind: WhileNonZero}}
	inner := &Seq{Items: []Cfg{loop}}
	outer := NewSeq(a, NewBlockNode(newBlock(a, true)), inner)

	seq, ok := outer.(*Seq)
	if !ok {
		t.Fatalf("expected a Seq, got %T", outer)
	}
	for _, item := range seq.Items {
		if _, ok := item.(*Seq); ok {
			t.Fatalf("nested Seq should have been spliced, found %v", seq.Items)
		}
	}
}

func TestSingletonSeqCollapses(t *testing.T) {
	a := graph.NewArena()
	b := NewBlockNode(newBlock(a, true))
	got := NewSeq(a, b)
	if _, ok := got.(*BlockNode); !ok {
		t.Fatalf("singleton Seq should collapse to its element, got %T", got)
	}
}

func TestNetOffset(t *testing.T) {
	a := graph.NewArena()
	bld := block.NewBuilder(a)
	bld.Shift(3)
	b := bld.Finish()

	off, ok := NetOffset(NewBlockNode(b))
	if !ok || off != 3 {
		t.Fatalf("expected net offset 3, got %d (%v)", off, ok)
	}

	loopZero := &Loop{Body: NewBlockNode(newBlock(a, false)), Cond: Condition{Kind: WhileNonZero}}
	if off, ok := NetOffset(loopZero); !ok || off != 0 {
		t.Fatalf("expected net-zero loop to report (0, true), got (%d, %v)", off, ok)
	}
}
