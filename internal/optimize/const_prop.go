package optimize

import (
	"bfc/internal/block"
	"bfc/internal/cfg"
	"bfc/internal/config"
	"bfc/internal/graph"
)

// ConstProp propagates known constants forward: within a Seq, track the
// immediately preceding Block (if any) as a predecessor. For each
// subsequent block b,
// every Copy(o, b.id) reachable from b's memory or output effects is
// replaced by pred.cell(pred.offset + o) whenever that predecessor cell
// holds a Const — the value is already known at compile time, so there is
// no need to carry it forward as a runtime copy.
//
// A Loop resets the predecessor to unknown for its own body (a loop may run
// zero or many times, so no single predecessor state holds on entry to any
// given iteration), and it also clears it for what follows the loop in the
// same Seq — the block that follows it starts from unknown, since the
// loop's exit state is not known statically either. An
// If does not reset the predecessor for its own body, since on entry to an
// If the predecessor state is exactly the state on entry to the Seq item
// before it, whether or not the If actually executes. Whatever follows an If
// in the same Seq begins from unknown, for the same reason as after a Loop.
type ConstProp struct{}

func (*ConstProp) Name() string { return "const-prop" }
func (*ConstProp) Description() string {
	return "propagates constant predecessor cells into Copy references"
}

func (p *ConstProp) Apply(a *graph.Arena, root cfg.Cfg, _ config.PassConfig) (cfg.Cfg, bool) {
	changed, _ := propagate(a, root, nil)
	return root, changed
}

// propagate walks c, threading pred through, and returns whether anything
// changed plus the predecessor state for whatever follows c in an enclosing
// Seq.
func propagate(a *graph.Arena, c cfg.Cfg, pred *block.Block) (changed bool, after *block.Block) {
	switch v := c.(type) {
	case *cfg.BlockNode:
		ch := propagateIntoBlock(a, v.Block, pred)
		return ch, v.Block

	case *cfg.Seq:
		changed := false
		cur := pred
		for _, item := range v.Items {
			ch, next := propagate(a, item, cur)
			if ch {
				changed = true
			}
			cur = next
		}
		return changed, cur

	case *cfg.Loop:
		ch, _ := propagate(a, v.Body, nil)
		return ch, nil

	case *cfg.If:
		ch, _ := propagate(a, v.Body, pred)
		return ch, nil

	default:
		return false, nil
	}
}

func propagateIntoBlock(a *graph.Arena, b *block.Block, pred *block.Block) bool {
	if pred == nil {
		return false
	}
	changed := false
	memo := make(map[graph.NodeId]graph.NodeId)
	replace := func(id graph.NodeId) graph.NodeId {
		ni, ch := substituteConstCopy(a, b.ID, pred, memo, id)
		if ch {
			changed = true
		}
		return ni
	}
	for offset, node := range b.Memory {
		b.Memory[offset] = replace(node)
	}
	for i := range b.Effects {
		e := &b.Effects[i]
		if e.Kind != block.EffectOutput {
			continue
		}
		for j, v := range e.Output {
			e.Output[j] = replace(v)
		}
	}
	return changed
}

// substituteConstCopy rebuilds id with every Copy(o, blockID) reachable from
// it replaced by the predecessor's corresponding cell, where that cell is a
// Const; other node kinds are left alone (Add/Mul are re-idealized if any
// operand changed, since a substitution can expose further folding).
func substituteConstCopy(a *graph.Arena, blockID graph.BlockId, pred *block.Block, memo map[graph.NodeId]graph.NodeId, id graph.NodeId) (graph.NodeId, bool) {
	if v, ok := memo[id]; ok {
		return v, v != id
	}
	n := a.Get(id)
	result := id
	changed := false
	switch n.Kind {
	case graph.KindCopy:
		if n.BlockID() == blockID {
			if cell, ok := pred.GetCell(pred.Offset + n.Offset()); ok {
				if a.Get(cell).Kind == graph.KindConst {
					result, changed = cell, true
				}
			}
		}
	case graph.KindAdd:
		l, chl := substituteConstCopy(a, blockID, pred, memo, n.Left())
		r, chr := substituteConstCopy(a, blockID, pred, memo, n.Right())
		if chl || chr {
			result, changed = a.InsertAdd(l, r), true
		}
	case graph.KindMul:
		l, chl := substituteConstCopy(a, blockID, pred, memo, n.Left())
		r, chr := substituteConstCopy(a, blockID, pred, memo, n.Right())
		if chl || chr {
			result, changed = a.InsertMul(l, r), true
		}
	}
	memo[id] = result
	return result, changed
}
