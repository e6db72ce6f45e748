package optimize

import (
	"bfc/internal/block"
	"bfc/internal/cfg"
	"bfc/internal/config"
	"bfc/internal/graph"
)

// OutputJoin fuses maximal runs of adjacent Output effects within a
// finished block's effect list into a single Output effect.
// block.Builder.Output already joins outputs produced back-to-back during
// lowering, but adjacency created afterward — by block concatenation run
// repeatedly, or peeling's Seq[b, Loop(b_tail)] — needs this separate pass
// to catch runs that span what were once distinct blocks.
type OutputJoin struct{}

func (*OutputJoin) Name() string { return "output-join" }
func (*OutputJoin) Description() string {
	return "fuses adjacent Output effects into a single multi-value Output effect"
}

func (p *OutputJoin) Apply(a *graph.Arena, root cfg.Cfg, _ config.PassConfig) (cfg.Cfg, bool) {
	return rewriteOutputJoin(root)
}

func rewriteOutputJoin(c cfg.Cfg) (cfg.Cfg, bool) {
	switch v := c.(type) {
	case *cfg.BlockNode:
		return v, joinOutputs(v.Block)

	case *cfg.Seq:
		changed := false
		for i, item := range v.Items {
			ni, ch := rewriteOutputJoin(item)
			v.Items[i] = ni
			if ch {
				changed = true
			}
		}
		return v, changed

	case *cfg.Loop:
		nb, changed := rewriteOutputJoin(v.Body)
		v.Body = nb
		return v, changed

	case *cfg.If:
		nb, changed := rewriteOutputJoin(v.Body)
		v.Body = nb
		return v, changed

	default:
		return c, false
	}
}

func joinOutputs(b *block.Block) bool {
	if len(b.Effects) < 2 {
		return false
	}
	changed := false
	out := make([]block.Effect, 0, len(b.Effects))
	for _, e := range b.Effects {
		if e.Kind == block.EffectOutput && len(out) > 0 && out[len(out)-1].Kind == block.EffectOutput {
			out[len(out)-1].Output = append(out[len(out)-1].Output, e.Output...)
			changed = true
			continue
		}
		out = append(out, e)
	}
	b.Effects = out
	return changed
}
