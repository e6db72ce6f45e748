// Package graph implements the hash-consed, value-numbered expression
// graph: the arena of Node values with algebraic idealization on insertion.
package graph

import "fmt"

// NodeId identifies an expression node within one Arena. IDs are dense,
// monotonically assigned, and never reused.
type NodeId int32

// BlockId uniquely identifies a basic block within the graph that minted
// it, even across clones (see Arena.FreshBlockID).
type BlockId int32

// Kind is the tag of a Node's variant.
type Kind uint8

const (
	KindCopy Kind = iota
	KindConst
	KindInput
	KindAdd
	KindMul
)

func (k Kind) String() string {
	switch k {
	case KindCopy:
		return "Copy"
	case KindConst:
		return "Const"
	case KindInput:
		return "Input"
	case KindAdd:
		return "Add"
	case KindMul:
		return "Mul"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Node is a tagged variant over the expression node shapes this compiler
// produces. Fields A and B are reinterpreted per Kind:
//
//	Copy:  A = offset (int32, signed), B = block id
//	Const: A = byte value (0..255)
//	Input: A = input id
//	Add:   A = left operand NodeId,  B = right operand NodeId
//	Mul:   A = left operand NodeId,  B = right operand NodeId
type Node struct {
	Kind Kind
	A, B int32
}

// Offset returns the offset of a Copy node.
func (n Node) Offset() int32 { return n.A }

// BlockID returns the block id of a Copy node.
func (n Node) BlockID() BlockId { return BlockId(n.B) }

// ConstValue returns the byte value of a Const node.
func (n Node) ConstValue() byte { return byte(n.A) }

// InputID returns the input id of an Input node.
func (n Node) InputID() int32 { return n.A }

// Left returns the left operand of an Add/Mul node.
func (n Node) Left() NodeId { return NodeId(n.A) }

// Right returns the right operand of an Add/Mul node.
func (n Node) Right() NodeId { return NodeId(n.B) }

func copyNode(offset int32, block BlockId) Node {
	return Node{Kind: KindCopy, A: offset, B: int32(block)}
}

func constNode(v byte) Node {
	return Node{Kind: KindConst, A: int32(v)}
}

func inputNode(id int32) Node {
	return Node{Kind: KindInput, A: id}
}

func addNode(l, r NodeId) Node {
	return Node{Kind: KindAdd, A: int32(l), B: int32(r)}
}

func mulNode(l, r NodeId) Node {
	return Node{Kind: KindMul, A: int32(l), B: int32(r)}
}
