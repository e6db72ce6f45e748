package optimize

import "bfc/internal/graph"

// isLoopInvariant reports whether id's value, as an expression, never reads
// Copy(_, blockID) or Input(_) anywhere in its operand tree — i.e. it does
// not depend on this iteration of the loop body owning blockID. Grounded on
// node.rs's recursive "does this reference the loop" checks used by bfrs's
// closed-form and peeling passes.
func isLoopInvariant(a *graph.Arena, blockID graph.BlockId, id graph.NodeId) bool {
	n := a.Get(id)
	switch n.Kind {
	case graph.KindCopy:
		return n.BlockID() != blockID
	case graph.KindInput:
		return false
	case graph.KindConst:
		return true
	case graph.KindAdd, graph.KindMul:
		return isLoopInvariant(a, blockID, n.Left()) && isLoopInvariant(a, blockID, n.Right())
	default:
		return true
	}
}
