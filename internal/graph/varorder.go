package graph

import "sort"

// copyOffsets returns the multiset (with duplicates) of Copy offsets
// structurally referenced by id, walking through Add/Mul operands. Const
// and Input leaves contribute nothing. Grounded on node.rs's `offsets`
// helper, used by cmp_by_variable_order.
func (a *Arena) copyOffsets(id NodeId) []int32 {
	var out []int32
	a.walkCopyOffsets(id, &out)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (a *Arena) walkCopyOffsets(id NodeId, out *[]int32) {
	n := a.Get(id)
	switch n.Kind {
	case KindCopy:
		*out = append(*out, n.Offset())
	case KindAdd, KindMul:
		a.walkCopyOffsets(n.Left(), out)
		a.walkCopyOffsets(n.Right(), out)
	}
}

// inputIDs returns the multiset of Input ids structurally referenced by
// id. Grounded on node.rs's `inputs` helper.
func (a *Arena) inputIDs(id NodeId) []int32 {
	var out []int32
	a.walkInputIDs(id, &out)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (a *Arena) walkInputIDs(id NodeId, out *[]int32) {
	n := a.Get(id)
	switch n.Kind {
	case KindInput:
		*out = append(*out, n.InputID())
	case KindAdd, KindMul:
		a.walkInputIDs(n.Left(), out)
		a.walkInputIDs(n.Right(), out)
	}
}

// compareMultiset implements a three-stage tie-break for a multiset of
// offsets or input ids, given already sorted-ascending slices xs, ys (as
// produced by copyOffsets/inputIDs):
// smallest element wins; tied on that, compare distinct elements
// lexicographically; tied on that, the LARGER multiset (more occurrences)
// sorts before (is "less than") the smaller one. An empty multiset never
// wins on "smallest element" against a non-empty one: a node referencing
// no Copy (or no Input) at all is not competing in that dimension, so it
// sorts after any node that is, leaving the decision to the next
// dimension or to the final NodeId tiebreak.
func compareMultiset(xs, ys []int32) int {
	if len(xs) == 0 && len(ys) == 0 {
		return 0
	}
	if len(xs) == 0 {
		return 1
	}
	if len(ys) == 0 {
		return -1
	}
	if xs[0] != ys[0] {
		if xs[0] < ys[0] {
			return -1
		}
		return 1
	}
	dx := distinctSorted(xs)
	dy := distinctSorted(ys)
	n := len(dx)
	if len(dy) < n {
		n = len(dy)
	}
	for i := 0; i < n; i++ {
		if dx[i] != dy[i] {
			if dx[i] < dy[i] {
				return -1
			}
			return 1
		}
	}
	if len(dx) != len(dy) {
		if len(dx) < len(dy) {
			return 1
		}
		return -1
	}
	if len(xs) != len(ys) {
		if len(xs) > len(ys) {
			return -1
		}
		return 1
	}
	return 0
}

func distinctSorted(xs []int32) []int32 {
	out := make([]int32, 0, len(xs))
	for i, x := range xs {
		if i == 0 || x != xs[i-1] {
			out = append(out, x)
		}
	}
	return out
}

// cmpVarOrder implements the total variable order used to sort the
// operands of a normalized Add/Mul chain: constants sort last, then Copy
// operands before Input operands, broken by offset/id, and finally by
// which Copy offsets or Input ids a compound operand structurally
// references.
func (a *Arena) cmpVarOrder(x, y NodeId) int {
	if x == y {
		return 0
	}
	nx, ny := a.Get(x), a.Get(y)

	switch {
	case nx.Kind == KindConst && ny.Kind == KindConst:
		return cmpByte(nx.ConstValue(), ny.ConstValue())
	case nx.Kind == KindConst:
		return 1
	case ny.Kind == KindConst:
		return -1
	case nx.Kind == KindCopy && ny.Kind == KindCopy:
		return cmpInt32(nx.Offset(), ny.Offset())
	case nx.Kind == KindInput && ny.Kind == KindInput:
		return cmpInt32(nx.InputID(), ny.InputID())
	case nx.Kind == KindCopy && ny.Kind == KindInput:
		return -1
	case nx.Kind == KindInput && ny.Kind == KindCopy:
		return 1
	}

	if c := compareMultiset(a.copyOffsets(x), a.copyOffsets(y)); c != 0 {
		return c
	}
	if c := compareMultiset(a.inputIDs(x), a.inputIDs(y)); c != 0 {
		return c
	}
	// Not distinguished by the offset/input comparison (can occur for
	// structurally distinct nodes that reference the same offsets/inputs,
	// e.g. via different Mul coefficients). Fall back to NodeId for a
	// total, deterministic order; this does not affect program semantics,
	// only which of several equally-valid orderings is chosen.
	return cmpInt32(int32(x), int32(y))
}

func cmpByte(a, b byte) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func cmpInt32(a, b int32) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
