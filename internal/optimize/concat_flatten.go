package optimize

import (
	"bfc/internal/cfg"
	"bfc/internal/config"
	"bfc/internal/graph"
)

// ConcatFlatten concatenates adjacent blocks and flattens nested sequences,
// recursively, throughout the whole Cfg tree (not just at the root) so
// that block adjacency created deep inside a Loop or
// If body — whether present in the lowered program or produced by another
// pass — is always re-established.
type ConcatFlatten struct{}

func (*ConcatFlatten) Name() string { return "concat-flatten" }
func (*ConcatFlatten) Description() string {
	return "concatenates adjacent basic blocks and flattens nested sequences"
}

func (p *ConcatFlatten) Apply(a *graph.Arena, root cfg.Cfg, _ config.PassConfig) (cfg.Cfg, bool) {
	return rewriteConcatFlatten(a, root)
}

func rewriteConcatFlatten(a *graph.Arena, c cfg.Cfg) (cfg.Cfg, bool) {
	switch v := c.(type) {
	case *cfg.BlockNode:
		return v, false

	case *cfg.Seq:
		changed := false
		out := &cfg.Seq{Items: make([]cfg.Cfg, 0, len(v.Items))}
		for _, item := range v.Items {
			ni, ch := rewriteConcatFlatten(a, item)
			if ch {
				changed = true
			}
			before := len(out.Items)
			out.Push(a, ni)
			// Push splices nested Seqs and concatenates adjacent blocks;
			// either collapses the item count relative to a naive
			// append, which is itself evidence of a change.
			if len(out.Items) <= before {
				changed = true
			}
		}
		return out.IntoCfg(), changed

	case *cfg.Loop:
		nb, changed := rewriteConcatFlatten(a, v.Body)
		v.Body = nb
		return v, changed

	case *cfg.If:
		nb, changed := rewriteConcatFlatten(a, v.Body)
		v.Body = nb
		return v, changed

	default:
		return c, false
	}
}
