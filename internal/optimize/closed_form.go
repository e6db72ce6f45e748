package optimize

import (
	"bfc/internal/block"
	"bfc/internal/cfg"
	"bfc/internal/config"
	"bfc/internal/graph"
	"bfc/internal/invtable"
)

// ClosedFormAddLoop recognizes a WhileNonZero loop whose body is a single
// block b, at net offset 0, where
//
//   - cell 0 holds Add(Copy(0, b.id), Const k) with k odd (so iterating adds
//     a nonzero, invertible amount to the tested cell every pass, meaning
//     the loop always terminates and runs a computable number of times), and
//   - every other cell c written by b either:
//     (a) holds a value that never reads Copy(_, b.id) at all (an
//     unconditional, loop-invariant overwrite), or
//     (b) holds Add(Copy(o, b.id), v) with v loop-invariant (an add-assign
//     by a fixed per-iteration amount), and
//   - b has no Output or Input effects (a closed form cannot replay
//     observable effects a variable number of times)
//
// is replaced by a single non-looping block computing the same result in
// one step: iters = Copy(0, b.id) * inv(-k), cell 0 becomes Const(0), and
// each add-assign cell o becomes Add(Copy(o, b.id), Mul(v, iters)).
//
// A cell falling into case (a) is only sound to carry over unconditionally
// when the loop is known to run at least once (iters >= 1) — if iters == 0,
// such a cell must keep its pre-loop value, not the overwrite value, since
// the body never ran. Add-assign cells (b) don't have this problem: with
// iters == 0, Mul(v, 0) == 0 so the cell is correctly left at Copy(o,
// b.id), its pre-loop value. So, like the GuardShift case already requires
// guarding for, a case-(a) cell forces the result to be wrapped in
// If(_, IfNonZero) unless config.UnsoundHoistGuards opts out of the safety
// wrapper — this is a documented extension of the same escape hatch, not a
// separate one (see DESIGN.md).
type ClosedFormAddLoop struct{}

func (*ClosedFormAddLoop) Name() string { return "closed-form-add-loop" }
func (*ClosedFormAddLoop) Description() string {
	return "replaces a linear counting loop with a single closed-form block"
}

func (p *ClosedFormAddLoop) Apply(a *graph.Arena, root cfg.Cfg, conf config.PassConfig) (cfg.Cfg, bool) {
	return rewriteClosedForm(a, root, conf)
}

func rewriteClosedForm(a *graph.Arena, c cfg.Cfg, conf config.PassConfig) (cfg.Cfg, bool) {
	switch v := c.(type) {
	case *cfg.BlockNode:
		return v, false

	case *cfg.Seq:
		changed := false
		for i, item := range v.Items {
			ni, ch := rewriteClosedForm(a, item, conf)
			v.Items[i] = ni
			if ch {
				changed = true
			}
		}
		return v, changed

	case *cfg.If:
		nb, changed := rewriteClosedForm(a, v.Body, conf)
		v.Body = nb
		return v, changed

	case *cfg.Loop:
		nb, changed := rewriteClosedForm(a, v.Body, conf)
		v.Body = nb
		if v.Cond.Kind == cfg.WhileNonZero {
			if bn, ok := v.Body.(*cfg.BlockNode); ok {
				if newCfg, ok2 := tryClosedForm(a, bn.Block, conf); ok2 {
					return newCfg, true
				}
			}
		}
		return v, changed

	default:
		return c, false
	}
}

func tryClosedForm(a *graph.Arena, b *block.Block, conf config.PassConfig) (cfg.Cfg, bool) {
	if b.Offset != 0 {
		return nil, false
	}
	for _, e := range b.Effects {
		if e.Kind == block.EffectOutput || e.Kind == block.EffectInput {
			return nil, false
		}
	}

	cell0, ok := b.GetCell(0)
	if !ok {
		return nil, false
	}
	copyOperand, k, ok := matchCountedIncrement(a, b.ID, cell0)
	if !ok || k%2 == 0 {
		return nil, false
	}
	inv, ok := invtable.Inverse(-k)
	if !ok {
		return nil, false
	}

	type addAssign struct {
		offset int32
		copyID graph.NodeId
		amount graph.NodeId
	}
	var addAssigns []addAssign
	needsGuard := len(b.Effects) > 0 // any surviving effects here are GuardShift

	for _, offset := range b.SortedOffsets() {
		if offset == 0 {
			continue
		}
		val := b.Memory[offset]
		if copyID, amount, ok := matchAddAssign(a, b.ID, offset, val); ok {
			addAssigns = append(addAssigns, addAssign{offset: offset, copyID: copyID, amount: amount})
			continue
		}
		if isLoopInvariant(a, b.ID, val) {
			needsGuard = true
			continue
		}
		return nil, false
	}

	iters := a.InsertMul(copyOperand, a.InsertConst(inv))

	out := &block.Block{
		ID:           b.ID,
		Memory:       make(map[int32]graph.NodeId, len(b.Memory)),
		GuardedLeft:  b.GuardedLeft,
		GuardedRight: b.GuardedRight,
	}
	for _, e := range b.Effects {
		if e.Kind == block.EffectGuardShift {
			out.Effects = append(out.Effects, e)
		}
	}
	out.Memory[0] = a.InsertConst(0)
	for _, offset := range b.SortedOffsets() {
		if offset == 0 {
			continue
		}
		val := b.Memory[offset]
		if copyID, amount, ok := matchAddAssign(a, b.ID, offset, val); ok {
			out.Memory[offset] = a.InsertAdd(copyID, a.InsertMul(amount, iters))
			continue
		}
		out.Memory[offset] = val
	}

	var result cfg.Cfg = cfg.NewBlockNode(out)
	if needsGuard && !conf.UnsoundHoistGuards {
		result = &cfg.If{Body: result}
	}
	return result, true
}

// matchCountedIncrement recognizes Add(Copy(0, blockID), Const k) in either
// operand order, returning the Copy node and k.
func matchCountedIncrement(a *graph.Arena, blockID graph.BlockId, id graph.NodeId) (copyID graph.NodeId, k byte, ok bool) {
	n := a.Get(id)
	if n.Kind != graph.KindAdd {
		return 0, 0, false
	}
	l, r := a.Get(n.Left()), a.Get(n.Right())
	switch {
	case l.Kind == graph.KindCopy && l.Offset() == 0 && l.BlockID() == blockID && r.Kind == graph.KindConst:
		return n.Left(), r.ConstValue(), true
	case r.Kind == graph.KindCopy && r.Offset() == 0 && r.BlockID() == blockID && l.Kind == graph.KindConst:
		return n.Right(), l.ConstValue(), true
	default:
		return 0, 0, false
	}
}

// matchAddAssign recognizes Add(Copy(offset, blockID), v) with v
// loop-invariant, in either operand order.
func matchAddAssign(a *graph.Arena, blockID graph.BlockId, offset int32, id graph.NodeId) (copyID, amount graph.NodeId, ok bool) {
	n := a.Get(id)
	if n.Kind != graph.KindAdd {
		return 0, 0, false
	}
	l, r := a.Get(n.Left()), a.Get(n.Right())
	isCopy := func(n graph.Node) bool {
		return n.Kind == graph.KindCopy && n.Offset() == offset && n.BlockID() == blockID
	}
	switch {
	case isCopy(l) && isLoopInvariant(a, blockID, n.Right()):
		return n.Left(), n.Right(), true
	case isCopy(r) && isLoopInvariant(a, blockID, n.Left()):
		return n.Right(), n.Left(), true
	default:
		return 0, 0, false
	}
}
