package block

import "bfc/internal/graph"

// Concat applies b's effects to dst in order: it is the compositional law
// for joining two blocks, used both by lowering (merging into a Seq's
// running tail) and by the adjacent-block concatenation pass. dst is
// mutated in place to become "dst then b".
func Concat(a *graph.Arena, dst *Block, b *Block) {
	memo := make(map[graph.NodeId]graph.NodeId)
	rebase := func(id graph.NodeId) graph.NodeId {
		return rebaseNode(a, dst, b, memo, id)
	}

	for _, e := range b.Effects {
		switch e.Kind {
		case EffectOutput:
			vals := make([]graph.NodeId, len(e.Output))
			for i, v := range e.Output {
				vals[i] = rebase(v)
			}
			dst.Effects = append(dst.Effects, Effect{Kind: EffectOutput, Output: vals})
		case EffectInput:
			dst.Effects = append(dst.Effects, Effect{Kind: EffectInput, InputNode: rebase(e.InputNode)})
		case EffectGuardShift:
			newOffset := dst.Offset + e.GuardOffset
			if newOffset >= dst.GuardedLeft && newOffset <= dst.GuardedRight {
				continue
			}
			if newOffset < dst.GuardedLeft {
				dst.GuardedLeft = newOffset
			}
			if newOffset > dst.GuardedRight {
				dst.GuardedRight = newOffset
			}
			dst.Effects = append(dst.Effects, Effect{Kind: EffectGuardShift, GuardOffset: newOffset})
		}
	}

	// Rebase every cell against dst's pre-merge state before writing any
	// of them back: b's cells can reference each other's dst-relative
	// offsets (a lower offset written by b, read by a higher one), and
	// those references resolve against dst's state at entry to b, not
	// against cells this same merge has already overwritten.
	offsets := b.SortedOffsets()
	rebased := make([]graph.NodeId, len(offsets))
	for i, offset := range offsets {
		rebased[i] = rebase(b.Memory[offset])
	}
	for i, offset := range offsets {
		dst.Memory[dst.Offset+offset] = rebased[i]
	}

	dst.Offset += b.Offset
	dst.InputCount += b.InputCount
}

// rebaseNode rewrites a node reachable from block b's frame of reference
// into dst's frame:
//
//	Copy(k, b.ID) -> dst.cell(dst.Offset + k) if present, else Copy(dst.Offset + k, dst.ID)
//	Input(id)     -> Input(id + dst.InputCount)
//	Add/Mul       -> rebase children, re-idealize
//
// Any other Copy (referencing neither b nor dst) is left unchanged; it
// can only be a Copy of an already-rebased ancestor block, which is not
// reachable here since rebasing is always applied to b's own fresh
// subtree.
func rebaseNode(a *graph.Arena, dst *Block, b *Block, memo map[graph.NodeId]graph.NodeId, id graph.NodeId) graph.NodeId {
	if v, ok := memo[id]; ok {
		return v
	}
	n := a.Get(id)
	var result graph.NodeId
	switch n.Kind {
	case graph.KindCopy:
		if n.BlockID() == b.ID {
			k := n.Offset()
			if cell, ok := dst.GetCell(dst.Offset + k); ok {
				result = cell
			} else {
				result = a.InsertCopy(dst.Offset+k, dst.ID)
			}
		} else {
			result = id
		}
	case graph.KindConst:
		result = id
	case graph.KindInput:
		result = a.InsertInput(n.InputID() + dst.InputCount)
	case graph.KindAdd:
		l := rebaseNode(a, dst, b, memo, n.Left())
		r := rebaseNode(a, dst, b, memo, n.Right())
		result = a.InsertAdd(l, r)
	case graph.KindMul:
		l := rebaseNode(a, dst, b, memo, n.Left())
		r := rebaseNode(a, dst, b, memo, n.Right())
		result = a.InsertMul(l, r)
	default:
		result = id
	}
	memo[id] = result
	return result
}
