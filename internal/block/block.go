// Package block implements the basic-block abstraction: a sparse memory
// map plus an ordered effect list, the builder that folds non-branching
// Brainfuck instructions into it via the pending-addend trick, and block
// concatenation (the compositional law for joining two blocks into one).
package block

import (
	"sort"

	"bfc/internal/graph"
)

// EffectKind tags the variant of an Effect.
type EffectKind uint8

const (
	EffectOutput EffectKind = iota
	EffectInput
	EffectGuardShift
)

// Effect is an observable action performed by a block.
type Effect struct {
	Kind EffectKind

	// Output holds the printed values when Kind == EffectOutput. A
	// single-element slice prints as one byte; pass 4.5.6 may later fuse
	// adjacent Output effects into one multi-element Effect.
	Output []graph.NodeId

	// InputNode is the Input(id) node bound when Kind == EffectInput.
	InputNode graph.NodeId

	// GuardOffset is the guarded cursor offset when Kind == EffectGuardShift.
	GuardOffset int32
}

// Block is the memory and effects of one basic block.
type Block struct {
	// ID uniquely identifies this block within its arena, even across
	// clones.
	ID graph.BlockId

	// Memory is keyed by offset relative to block entry. A present entry
	// means "this cell holds this value at block exit, expressed relative
	// to this block's entry state"; an absent entry means unmodified
	// (equivalent to Copy(offset, ID)). Represented as a sparse map since
	// most cells in a typical block are untouched (see DESIGN.md).
	Memory map[int32]graph.NodeId

	// Effects is the ordered, observable trace of this block.
	Effects []Effect

	// Offset is the net cursor displacement on exit.
	Offset int32

	// GuardedLeft <= 0 <= GuardedRight: the extreme cursor offsets
	// reached during the block, each materialized as a GuardShift effect
	// on first visit.
	GuardedLeft, GuardedRight int32

	// InputCount is the number of Input effects allocated within this
	// block, used to rebase Input ids from a concatenated successor
	// block (see Concat).
	InputCount int32
}

// New constructs a new, empty basic block with the given id.
func New(id graph.BlockId) *Block {
	return &Block{ID: id, Memory: make(map[int32]graph.NodeId)}
}

// GetCell returns the value of the cell at offset, if this block
// modifies it.
func (b *Block) GetCell(offset int32) (graph.NodeId, bool) {
	v, ok := b.Memory[offset]
	return v, ok
}

// SortedOffsets returns the offsets of cells modified by this block, in
// ascending order, for deterministic iteration (printing, concatenation).
func (b *Block) SortedOffsets() []int32 {
	out := make([]int32, 0, len(b.Memory))
	for off := range b.Memory {
		out = append(out, off)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsEmpty reports whether this block has no effect at all: no modified
// cells, no effects, and a net-zero, unguarded cursor.
func (b *Block) IsEmpty() bool {
	return len(b.Memory) == 0 && len(b.Effects) == 0 &&
		b.Offset == 0 && b.GuardedLeft == 0 && b.GuardedRight == 0
}

// Clone deep-copies this block under a fresh block id, rewriting every
// Copy(_, ID) reference (in memory and effects) to the new id. Used by
// loop-invariant peeling, which must guarantee every copy of a peeled
// block carries its own distinct identity.
func (b *Block) Clone(a *graph.Arena) *Block {
	newID := a.FreshBlockID()
	memo := make(map[graph.NodeId]graph.NodeId)
	out := &Block{
		ID:           newID,
		Memory:       make(map[int32]graph.NodeId, len(b.Memory)),
		Offset:       b.Offset,
		GuardedLeft:  b.GuardedLeft,
		GuardedRight: b.GuardedRight,
		InputCount:   b.InputCount,
	}
	rewrite := func(id graph.NodeId) graph.NodeId {
		return rewriteBlockID(a, b.ID, newID, memo, id)
	}
	for off, node := range b.Memory {
		out.Memory[off] = rewrite(node)
	}
	out.Effects = make([]Effect, len(b.Effects))
	for i, e := range b.Effects {
		ne := Effect{Kind: e.Kind, GuardOffset: e.GuardOffset}
		if e.Output != nil {
			ne.Output = make([]graph.NodeId, len(e.Output))
			for j, v := range e.Output {
				ne.Output[j] = rewrite(v)
			}
		}
		if e.Kind == EffectInput {
			ne.InputNode = rewrite(e.InputNode)
		}
		out.Effects[i] = ne
	}
	return out
}

// rewriteBlockID rewrites every Copy(_, oldID) reachable from id to
// Copy(_, newID), re-interning composite nodes as needed. Other node
// kinds (Const, Input) and Copy nodes belonging to a different block are
// returned unchanged.
func rewriteBlockID(a *graph.Arena, oldID, newID graph.BlockId, memo map[graph.NodeId]graph.NodeId, id graph.NodeId) graph.NodeId {
	if v, ok := memo[id]; ok {
		return v
	}
	n := a.Get(id)
	var result graph.NodeId
	switch n.Kind {
	case graph.KindCopy:
		if n.BlockID() == oldID {
			result = a.InsertCopy(n.Offset(), newID)
		} else {
			result = id
		}
	case graph.KindConst, graph.KindInput:
		result = id
	case graph.KindAdd:
		l := rewriteBlockID(a, oldID, newID, memo, n.Left())
		r := rewriteBlockID(a, oldID, newID, memo, n.Right())
		result = a.InsertAdd(l, r)
	case graph.KindMul:
		l := rewriteBlockID(a, oldID, newID, memo, n.Left())
		r := rewriteBlockID(a, oldID, newID, memo, n.Right())
		result = a.InsertMul(l, r)
	default:
		result = id
	}
	memo[id] = result
	return result
}
