package optimize

import (
	"testing"

	"bfc/internal/ast"
	"bfc/internal/block"
	"bfc/internal/cfg"
	"bfc/internal/config"
	"bfc/internal/graph"
	"bfc/internal/lowering"
)

func lowerSrc(t *testing.T, src string) (*graph.Arena, cfg.Cfg) {
	t.Helper()
	a := graph.NewArena()
	instrs, err := ast.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return a, lowering.Lower(a, instrs)
}

// singleLoop extracts the sole top-level Loop from a lowered "[...]" program.
func singleLoop(t *testing.T, c cfg.Cfg) *cfg.Loop {
	t.Helper()
	loop, ok := c.(*cfg.Loop)
	if !ok {
		t.Fatalf("expected a top-level Loop, got %T", c)
	}
	return loop
}

func TestClosedFormZeroLoop(t *testing.T) {
	a, c := lowerSrc(t, "[-]")
	loop := singleLoop(t, c)
	result, changed := (&ClosedFormAddLoop{}).Apply(a, loop, config.Default())
	if !changed {
		t.Fatal("expected closed-form conversion to fire on [-]")
	}
	bn, ok := result.(*cfg.BlockNode)
	if !ok {
		t.Fatalf("expected a bare BlockNode (no guard effects), got %T", result)
	}
	cell0, ok := bn.Block.GetCell(0)
	if !ok || a.Get(cell0).Kind != graph.KindConst || a.Get(cell0).ConstValue() != 0 {
		t.Fatalf("expected @0 = 0, got %v", a.Get(cell0))
	}
}

func TestClosedFormMoveLoop(t *testing.T) {
	a, c := lowerSrc(t, "[->+<]")
	loop := singleLoop(t, c)
	result, changed := (&ClosedFormAddLoop{}).Apply(a, loop, config.Default())
	if !changed {
		t.Fatal("expected closed-form conversion to fire on [->+<]")
	}
	ifNode, ok := result.(*cfg.If)
	if !ok {
		t.Fatalf("expected the result wrapped in If due to the guard_shift, got %T", result)
	}
	bn, ok := ifNode.Body.(*cfg.BlockNode)
	if !ok {
		t.Fatalf("expected If body to be a BlockNode, got %T", ifNode.Body)
	}
	b := bn.Block

	cell0, ok := b.GetCell(0)
	if !ok || a.Get(cell0).Kind != graph.KindConst || a.Get(cell0).ConstValue() != 0 {
		t.Fatalf("expected @0 = 0, got %v", a.Get(cell0))
	}

	cell1, ok := b.GetCell(1)
	if !ok {
		t.Fatalf("expected @1 to be modified")
	}
	expected := a.InsertAdd(a.InsertCopy(0, b.ID), a.InsertCopy(1, b.ID))
	if cell1 != expected {
		t.Fatalf("expected @1 = @0 + @1 (node %d), got node %d", expected, cell1)
	}

	foundGuard := false
	for _, e := range b.Effects {
		if e.Kind == block.EffectGuardShift && e.GuardOffset == 1 {
			foundGuard = true
		}
	}
	if !foundGuard {
		t.Fatalf("expected a guard_shift 1 effect, got %v", b.Effects)
	}
}

func TestClosedFormNegativeCoefficient(t *testing.T) {
	a, c := lowerSrc(t, "[<->-]")
	loop := singleLoop(t, c)
	result, changed := (&ClosedFormAddLoop{}).Apply(a, loop, config.Default())
	if !changed {
		t.Fatal("expected closed-form conversion to fire on [<->-]")
	}
	ifNode := result.(*cfg.If)
	b := ifNode.Body.(*cfg.BlockNode).Block

	cellNeg1, ok := b.GetCell(-1)
	if !ok {
		t.Fatalf("expected @-1 to be modified")
	}
	iters := a.InsertCopy(0, b.ID)
	expected := a.InsertAdd(a.InsertCopy(-1, b.ID), a.InsertMul(iters, a.InsertConst(255)))
	if cellNeg1 != expected {
		t.Fatalf("expected @-1 = @-1 + @0 * -1 (node %d), got node %d", expected, cellNeg1)
	}
}

func TestClosedFormRejectsEvenIncrement(t *testing.T) {
	a, c := lowerSrc(t, "[++]")
	loop := singleLoop(t, c)
	_, changed := (&ClosedFormAddLoop{}).Apply(a, loop, config.Default())
	if changed {
		t.Fatal("closed-form conversion must not fire with an even (non-invertible) increment")
	}
}

func TestClosedFormRejectsOutputEffect(t *testing.T) {
	a, c := lowerSrc(t, "[.-]")
	loop := singleLoop(t, c)
	_, changed := (&ClosedFormAddLoop{}).Apply(a, loop, config.Default())
	if changed {
		t.Fatal("closed-form conversion must not fire over a block with an Output effect")
	}
}

func TestClosedFormUnsoundHoistDropsGuard(t *testing.T) {
	a, c := lowerSrc(t, "[->+<]")
	loop := singleLoop(t, c)
	conf := config.PassConfig{UnsoundHoistGuards: true}
	result, changed := (&ClosedFormAddLoop{}).Apply(a, loop, conf)
	if !changed {
		t.Fatal("expected closed-form conversion to fire")
	}
	if _, ok := result.(*cfg.BlockNode); !ok {
		t.Fatalf("expected the guard wrapper to be skipped under UnsoundHoistGuards, got %T", result)
	}
}

func TestIfZeroLoopOnNestedZeroingLoop(t *testing.T) {
	a, c := lowerSrc(t, "[[-]]")
	closedForm := &ClosedFormAddLoop{}
	ifZero := &IfZeroLoop{}

	c, _ = closedForm.Apply(a, c, config.Default())
	c, changed := ifZero.Apply(a, c, config.Default())
	if !changed {
		t.Fatal("expected the outer loop's condition to strengthen to IfNonZero")
	}
	outer := singleLoop(t, c)
	if outer.Cond.Kind != cfg.IfNonZero {
		t.Fatalf("expected IfNonZero, got %v", outer.Cond.Kind)
	}
}

func TestPeelInvariantDropsRepeatedStore(t *testing.T) {
	// "[>+<]" has no invariant cell (both offsets read from the loop via
	// Copy), so build a synthetic loop body with a genuinely invariant
	// store (a cell set to a Const never derived from Copy(_, b.id)) to
	// exercise peeling's precondition directly.
	a := graph.NewArena()
	id := a.FreshBlockID()
	b := block.New(id)
	b.Memory[0] = a.InsertAdd(a.InsertCopy(0, id), a.InsertConst(255)) // @0 -= 1 (this block is also closed-form eligible; only peeling is applied here)
	b.Memory[1] = a.InsertConst(42)                                   // @1 = 42, loop-invariant overwrite
	loop := &cfg.Loop{Body: cfg.NewBlockNode(b), Cond: cfg.Condition{Kind: cfg.WhileNonZero}}

	result, changed := (&PeelInvariant{}).Apply(a, loop, config.Default())
	if !changed {
		t.Fatal("expected peeling to fire given an invariant cell")
	}
	ifNode, ok := result.(*cfg.If)
	if !ok {
		t.Fatalf("expected If(Seq[b, Loop(tail)]), got %T", result)
	}
	seq, ok := ifNode.Body.(*cfg.Seq)
	if !ok || len(seq.Items) != 2 {
		t.Fatalf("expected a 2-item Seq, got %#v", ifNode.Body)
	}
	peeledBlock, ok := seq.Items[0].(*cfg.BlockNode)
	if !ok || peeledBlock.Block.ID != id {
		t.Fatalf("expected the peeled first item to be the original block")
	}
	if _, ok := peeledBlock.Block.GetCell(1); !ok {
		t.Fatalf("expected the peeled copy to retain the invariant store")
	}
	tailLoop, ok := seq.Items[1].(*cfg.Loop)
	if !ok {
		t.Fatalf("expected the second item to be the tail Loop, got %T", seq.Items[1])
	}
	tailBlock := tailLoop.Body.(*cfg.BlockNode).Block
	if tailBlock.ID == id {
		t.Fatalf("expected the tail block to have a fresh id")
	}
	if _, ok := tailBlock.GetCell(1); ok {
		t.Fatalf("expected the invariant store removed from the tail block")
	}
}

func TestConstPropReplacesCopyOfConstPredecessor(t *testing.T) {
	a := graph.NewArena()
	pred := block.New(a.FreshBlockID())
	pred.Memory[0] = a.InsertConst(7)

	succ := block.New(a.FreshBlockID())
	succ.Memory[0] = a.InsertAdd(a.InsertCopy(0, succ.ID), a.InsertConst(1))

	seq := &cfg.Seq{Items: []cfg.Cfg{cfg.NewBlockNode(pred), cfg.NewBlockNode(succ)}}

	_, changed := (&ConstProp{}).Apply(a, seq, config.Default())
	if !changed {
		t.Fatal("expected constant propagation to replace Copy(0, succ.id) with Const(7)")
	}
	want := a.InsertConst(8)
	if got := succ.Memory[0]; got != want {
		t.Fatalf("expected @0 = 8 after folding 7+1, got node %d (want %d)", got, want)
	}
}

func TestConstPropResetsAcrossLoop(t *testing.T) {
	a := graph.NewArena()
	pred := block.New(a.FreshBlockID())
	pred.Memory[0] = a.InsertConst(7)

	inner := block.New(a.FreshBlockID())
	inner.Memory[0] = a.InsertCopy(0, inner.ID) // trivially itself; just needs to survive unmodified

	loop := &cfg.Loop{Body: cfg.NewBlockNode(inner), Cond: cfg.Condition{Kind: cfg.WhileNonZero}}
	seq := &cfg.Seq{Items: []cfg.Cfg{cfg.NewBlockNode(pred), loop}}

	(&ConstProp{}).Apply(a, seq, config.Default())

	if got := inner.Memory[0]; got != a.InsertCopy(0, inner.ID) {
		t.Fatalf("loop body must not see the predecessor outside it; got node %d", got)
	}
}

func TestOutputJoinFusesAdjacentOutputs(t *testing.T) {
	a := graph.NewArena()
	b := block.New(a.FreshBlockID())
	v1 := a.InsertConst(1)
	v2 := a.InsertConst(2)
	b.Effects = []block.Effect{
		{Kind: block.EffectOutput, Output: []graph.NodeId{v1}},
		{Kind: block.EffectOutput, Output: []graph.NodeId{v2}},
	}
	bn := cfg.NewBlockNode(b)

	_, changed := (&OutputJoin{}).Apply(a, bn, config.Default())
	if !changed {
		t.Fatal("expected adjacent Output effects to be joined")
	}
	if len(b.Effects) != 1 {
		t.Fatalf("expected a single joined Output effect, got %d", len(b.Effects))
	}
	if got := b.Effects[0].Output; len(got) != 2 || got[0] != v1 || got[1] != v2 {
		t.Fatalf("expected joined output [v1, v2], got %v", got)
	}
}

func TestPipelineReachesFixpoint(t *testing.T) {
	a, c := lowerSrc(t, "+[->+<]-")
	p := NewPipeline()
	once := p.Run(a, c, config.Default())
	// Re-running over the already-optimized result must report no further
	// changes from any pass: a pass that found nothing left to do once
	// must keep finding nothing to do.
	for _, pass := range p.passes {
		if _, changed := pass.Apply(a, once, config.Default()); changed {
			t.Fatalf("pass %s was not idempotent on already-optimized input", pass.Name())
		}
	}
}

func TestConcatFlattenMergesAdjacentBlocks(t *testing.T) {
	a := graph.NewArena()
	b1 := block.New(a.FreshBlockID())
	b1.Memory[0] = a.InsertConst(1)
	b2 := block.New(a.FreshBlockID())
	b2.Memory[0] = a.InsertConst(2)
	seq := &cfg.Seq{Items: []cfg.Cfg{cfg.NewBlockNode(b1), cfg.NewBlockNode(b2)}}

	result, changed := (&ConcatFlatten{}).Apply(a, seq, config.Default())
	if !changed {
		t.Fatal("expected adjacent blocks to concatenate")
	}
	bn, ok := result.(*cfg.BlockNode)
	if !ok {
		t.Fatalf("expected the two blocks to collapse into one BlockNode, got %T", result)
	}
	if bn.Block.ID != b1.ID {
		t.Fatalf("expected concatenation to mutate b1 in place")
	}
}
