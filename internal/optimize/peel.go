package optimize

import (
	"bfc/internal/cfg"
	"bfc/internal/config"
	"bfc/internal/graph"
)

// PeelInvariant recognizes a WhileNonZero loop whose body is a single block
// b at net offset 0 storing at least one loop-invariant cell
// (a cell whose stored value never reads Copy(_, b.id)) is rewritten
//
//	Loop(b) => If(Seq[b, Loop(b_tail)])
//
// where b_tail is a fresh-id clone of b with the invariant stores removed —
// they already took effect in the first, peeled copy of b and would be
// redundant (re-storing the same value) on every further iteration.
type PeelInvariant struct{}

func (*PeelInvariant) Name() string { return "peel-invariant" }
func (*PeelInvariant) Description() string {
	return "peels a loop's first iteration to drop redundant loop-invariant stores from the remainder"
}

func (p *PeelInvariant) Apply(a *graph.Arena, root cfg.Cfg, _ config.PassConfig) (cfg.Cfg, bool) {
	return rewritePeel(a, root)
}

func rewritePeel(a *graph.Arena, c cfg.Cfg) (cfg.Cfg, bool) {
	switch v := c.(type) {
	case *cfg.BlockNode:
		return v, false

	case *cfg.Seq:
		changed := false
		for i, item := range v.Items {
			ni, ch := rewritePeel(a, item)
			v.Items[i] = ni
			if ch {
				changed = true
			}
		}
		return v, changed

	case *cfg.If:
		nb, changed := rewritePeel(a, v.Body)
		v.Body = nb
		return v, changed

	case *cfg.Loop:
		nb, changed := rewritePeel(a, v.Body)
		v.Body = nb
		if v.Cond.Kind != cfg.WhileNonZero {
			return v, changed
		}
		bn, ok := v.Body.(*cfg.BlockNode)
		if !ok || bn.Block.Offset != 0 {
			return v, changed
		}
		b := bn.Block
		var invariantOffsets []int32
		for _, offset := range b.SortedOffsets() {
			if isLoopInvariant(a, b.ID, b.Memory[offset]) {
				invariantOffsets = append(invariantOffsets, offset)
			}
		}
		if len(invariantOffsets) == 0 {
			return v, changed
		}
		tail := b.Clone(a)
		for _, offset := range invariantOffsets {
			delete(tail.Memory, offset)
		}
		peeled := &cfg.Seq{}
		peeled.Push(a, cfg.NewBlockNode(b))
		peeled.Push(a, &cfg.Loop{Body: cfg.NewBlockNode(tail), Cond: v.Cond})
		return &cfg.If{Body: peeled.IntoCfg()}, true

	default:
		return c, false
	}
}
