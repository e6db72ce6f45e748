package optimize

import (
	"bfc/internal/block"
	"bfc/internal/cfg"
	"bfc/internal/config"
	"bfc/internal/graph"
)

// IfZeroLoop recognizes a WhileNonZero loop whose body has a well-defined
// net cursor offset and whose last basic block unconditionally stores
// Const(0) at that net offset: such a loop runs at most once, since after
// the first iteration the tested cell is provably zero, so WhileNonZero is
// strengthened to IfNonZero.
type IfZeroLoop struct{}

func (*IfZeroLoop) Name() string { return "if-zero-loop" }
func (*IfZeroLoop) Description() string {
	return "strengthens WhileNonZero to IfNonZero when the body's last block zeroes the tested cell"
}

func (p *IfZeroLoop) Apply(a *graph.Arena, root cfg.Cfg, _ config.PassConfig) (cfg.Cfg, bool) {
	return rewriteIfZero(a, root)
}

func rewriteIfZero(a *graph.Arena, c cfg.Cfg) (cfg.Cfg, bool) {
	switch v := c.(type) {
	case *cfg.BlockNode:
		return v, false

	case *cfg.Seq:
		changed := false
		for i, item := range v.Items {
			ni, ch := rewriteIfZero(a, item)
			v.Items[i] = ni
			if ch {
				changed = true
			}
		}
		return v, changed

	case *cfg.If:
		nb, changed := rewriteIfZero(a, v.Body)
		v.Body = nb
		return v, changed

	case *cfg.Loop:
		nb, changed := rewriteIfZero(a, v.Body)
		v.Body = nb
		if v.Cond.Kind == cfg.WhileNonZero && bodyEndsWithZero(a, v.Body) {
			v.Cond = cfg.Condition{Kind: cfg.IfNonZero}
			changed = true
		}
		return v, changed

	default:
		return c, false
	}
}

func bodyEndsWithZero(a *graph.Arena, body cfg.Cfg) bool {
	netOff, ok := cfg.NetOffset(body)
	if !ok {
		return false
	}
	lb, ok := lastBlock(body)
	if !ok {
		return false
	}
	val, ok := lb.GetCell(netOff)
	if !ok {
		return false
	}
	n := a.Get(val)
	return n.Kind == graph.KindConst && n.ConstValue() == 0
}

// lastBlock returns the rightmost basic block statically known to run last
// along any execution of c, or false if that block isn't determinable (e.g.
// c ends in a Loop, whose last-executed iteration isn't known statically).
func lastBlock(c cfg.Cfg) (*block.Block, bool) {
	switch v := c.(type) {
	case *cfg.BlockNode:
		return v.Block, true
	case *cfg.Seq:
		if len(v.Items) == 0 {
			return nil, false
		}
		return lastBlock(v.Items[len(v.Items)-1])
	case *cfg.If:
		return lastBlock(v.Body)
	default:
		return nil, false
	}
}
