package graph

import (
	"fmt"

	"github.com/google/uuid"
)

// binKey is the hash-consing key shared by every node kind: each kind's
// payload fits in the two int32 fields A, B (see Node).
type binKey struct {
	Kind Kind
	A, B int32
}

// Arena owns every expression node minted during a compilation. It is a
// single-writer, single-threaded, append-only structure: once interned, a
// node's payload never changes.
type Arena struct {
	// SessionID stamps this compilation run, surfaced in CLI diagnostics
	// and in invariant-violation panics so bug reports can be correlated.
	SessionID uuid.UUID

	nodes       []Node
	fixed       map[binKey]NodeId
	nextBlockID int32
}

// NewArena constructs an empty arena.
func NewArena() *Arena {
	return &Arena{
		SessionID: uuid.New(),
		fixed:     make(map[binKey]NodeId),
	}
}

// Get returns the node payload for id by value.
func (a *Arena) Get(id NodeId) Node {
	return a.nodes[id]
}

// Len returns the number of distinct nodes interned so far.
func (a *Arena) Len() int { return len(a.nodes) }

// FreshBlockID allocates a new, never-before-used block identity.
func (a *Arena) FreshBlockID() BlockId {
	id := BlockId(a.nextBlockID)
	a.nextBlockID++
	return id
}

// insertRaw hash-conses a fixed-arity node without applying idealization.
// Callers must already have normalized the node's operands; it is used by
// idealization's rebuild step, which constructs nodes that are known to
// already be in normal form.
func (a *Arena) insertRaw(n Node) NodeId {
	key := binKey{Kind: n.Kind, A: n.A, B: n.B}
	if id, ok := a.fixed[key]; ok {
		return id
	}
	id := NodeId(len(a.nodes))
	a.nodes = append(a.nodes, n)
	a.fixed[key] = id
	return id
}

// InsertCopy interns a Copy(offset, block) node. Copy nodes need no
// idealization: every (offset, block) pair is already in normal form.
func (a *Arena) InsertCopy(offset int32, block BlockId) NodeId {
	return a.insertRaw(copyNode(offset, block))
}

// InsertConst interns a Const(v) node.
func (a *Arena) InsertConst(v byte) NodeId {
	return a.insertRaw(constNode(v))
}

// InsertInput interns an Input(id) node. The id is allocated by the
// block builder that owns this read (see internal/block), not by the
// arena, since input ids are scoped per block and rebased on concat.
func (a *Arena) InsertInput(id int32) NodeId {
	return a.insertRaw(inputNode(id))
}

// InsertAdd interns Add(l, r), applying idealization so only normal-form
// nodes ever enter the table.
func (a *Arena) InsertAdd(l, r NodeId) NodeId {
	return a.idealizeAdd(l, r)
}

// InsertMul interns Mul(l, r), applying idealization.
func (a *Arena) InsertMul(l, r NodeId) NodeId {
	return a.idealizeMul(l, r)
}

// Find looks up a fixed-arity node without inserting it.
func (a *Arena) Find(n Node) (NodeId, bool) {
	key := binKey{Kind: n.Kind, A: n.A, B: n.B}
	id, ok := a.fixed[key]
	return id, ok
}

// InvariantViolation panics with a message naming the session, for
// programmer-error conditions that should abort the process immediately
// rather than produce a wrong answer. None of the optimization passes
// call it.
func (a *Arena) InvariantViolation(format string, args ...interface{}) {
	panic(fmt.Sprintf("internal invariant violation (session %s): %s", a.SessionID, fmt.Sprintf(format, args...)))
}
