package block

import "bfc/internal/graph"

// cellEntry is a cell's pending state during construction: an optional
// materialized base node plus a byte-sized pending addend, combined
// lazily on read or at Finish. This is the "pending-addend trick": it
// deduplicates long runs of +/- into a single Add node.
type cellEntry struct {
	base    graph.NodeId
	hasBase bool
	addend  byte
}

// Builder folds a run of non-branching Brainfuck instructions (>, <, +,
// -, ., ,) into a Block, avoiding intermediate nodes for consecutive +/-
// runs. Construct with NewBuilder and call Shift/AddConst/Set/Output/Input as
// instructions are scanned; call Finish to obtain the completed Block and
// begin the next one under a fresh id.
type Builder struct {
	a       *graph.Arena
	block   *Block
	cells   map[int32]*cellEntry
	touched []int32 // first-touch order, for deterministic finalization
}

// NewBuilder constructs a builder for a fresh block allocated from a.
func NewBuilder(a *graph.Arena) *Builder {
	return &Builder{
		a:     a,
		block: New(a.FreshBlockID()),
		cells: make(map[int32]*cellEntry),
	}
}

func (bld *Builder) cellAt(offset int32) *cellEntry {
	c, ok := bld.cells[offset]
	if !ok {
		c = &cellEntry{}
		bld.cells[offset] = c
		bld.touched = append(bld.touched, offset)
	}
	return c
}

// Shift moves the cursor by delta and, if this extends the block's
// guarded range, appends a GuardShift effect.
func (bld *Builder) Shift(delta int32) {
	b := bld.block
	b.Offset += delta
	switch {
	case b.Offset < b.GuardedLeft:
		b.GuardedLeft = b.Offset
	case b.Offset > b.GuardedRight:
		b.GuardedRight = b.Offset
	default:
		return
	}
	b.Effects = append(b.Effects, Effect{Kind: EffectGuardShift, GuardOffset: b.Offset})
}

// Get materializes and returns the value at the current cursor offset,
// without disturbing the pending addend (a read is not a write).
func (bld *Builder) Get() graph.NodeId {
	offset := bld.block.Offset
	c := bld.cellAt(offset)
	base := bld.baseOf(offset, c)
	if c.addend != 0 {
		return bld.a.InsertAdd(base, bld.a.InsertConst(c.addend))
	}
	return base
}

func (bld *Builder) baseOf(offset int32, c *cellEntry) graph.NodeId {
	if c.hasBase {
		return c.base
	}
	return bld.a.InsertCopy(offset, bld.block.ID)
}

// Set overwrites the value at the current cursor offset.
func (bld *Builder) Set(node graph.NodeId) {
	c := bld.cellAt(bld.block.Offset)
	c.base = node
	c.hasBase = true
	c.addend = 0
}

// AddConst accumulates a constant addend (wrapping mod 256) at the
// current cursor offset, without forcing materialization.
func (bld *Builder) AddConst(delta byte) {
	c := bld.cellAt(bld.block.Offset)
	c.addend += delta
}

// Output materializes the current cell and appends it as an Output
// effect, extending a run of adjacent Output effects if the previous
// effect was also Output (this is a builder-time convenience; the
// canonical output-joining pass 4.5.6 still runs afterward so that
// adjacency created by block concatenation is also joined).
func (bld *Builder) Output() {
	v := bld.Get()
	b := bld.block
	if n := len(b.Effects); n > 0 && b.Effects[n-1].Kind == EffectOutput {
		b.Effects[n-1].Output = append(b.Effects[n-1].Output, v)
		return
	}
	b.Effects = append(b.Effects, Effect{Kind: EffectOutput, Output: []graph.NodeId{v}})
}

// Input reads a fresh input byte, sets the current cell to it, and
// appends an Input effect.
func (bld *Builder) Input() {
	id := bld.block.InputCount
	bld.block.InputCount++
	node := bld.a.InsertInput(id)
	bld.Set(node)
	bld.block.Effects = append(bld.block.Effects, Effect{Kind: EffectInput, InputNode: node})
}

// IsEmpty reports whether the block under construction has no effect.
func (bld *Builder) IsEmpty() bool {
	return len(bld.touched) == 0 && bld.block.IsEmpty()
}

// Finish materializes every touched cell with a pending non-zero addend
// into a concrete Add(base, Const(addend)) node, returns the completed
// block, and resets the builder onto a fresh block (with a fresh id)
// so construction can continue.
func (bld *Builder) Finish() *Block {
	b := bld.block
	for _, offset := range bld.touched {
		c := bld.cells[offset]
		switch {
		case c.addend != 0:
			base := bld.baseOf(offset, c)
			b.Memory[offset] = bld.a.InsertAdd(base, bld.a.InsertConst(c.addend))
		case c.hasBase:
			b.Memory[offset] = c.base
		}
	}
	bld.block = New(bld.a.FreshBlockID())
	bld.cells = make(map[int32]*cellEntry)
	bld.touched = nil
	return b
}
