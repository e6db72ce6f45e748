// Package cfg implements the control-flow graph: a tagged tree of
// {Block, Seq, Loop, If} nodes, plus the sequence helpers that keep
// adjacent blocks concatenated and nested sequences flattened.
package cfg

import (
	"bfc/internal/block"
	"bfc/internal/graph"
)

// Cfg is one node of the control-flow tree.
type Cfg interface {
	cfgNode()
}

// BlockNode wraps a single basic block.
type BlockNode struct {
	Block *block.Block
}

func (*BlockNode) cfgNode() {}

// ConditionKind tags a Loop's exit condition.
type ConditionKind uint8

const (
	WhileNonZero ConditionKind = iota
	IfNonZero
	Count
)

// Condition is a loop's exit condition. CountNode is meaningful only when
// Kind == Count: the loop runs CountNode's value (mod 256) times.
type Condition struct {
	Kind      ConditionKind
	CountNode graph.NodeId
}

// Loop is a repeated execution of Body, gated by Cond.
type Loop struct {
	Body Cfg
	Cond Condition
}

func (*Loop) cfgNode() {}

// If executes Body at most once, when the current cell is non-zero.
type If struct {
	Body Cfg
}

func (*If) cfgNode() {}

// Seq is an ordered sequence of control-flow nodes.
type Seq struct {
	Items []Cfg
}

func (*Seq) cfgNode() {}

// NewBlockNode wraps b as a Cfg leaf.
func NewBlockNode(b *block.Block) *BlockNode { return &BlockNode{Block: b} }

// Empty returns a Cfg with no effect.
func Empty() Cfg { return &Seq{} }

// NewSeq builds a Seq from items, concatenating adjacent blocks and
// flattening nested sequences as it goes, then collapses a singleton
// result to its sole element.
func NewSeq(a *graph.Arena, items ...Cfg) Cfg {
	s := &Seq{}
	for _, it := range items {
		s.Push(a, it)
	}
	return s.IntoCfg()
}

// Push appends cfg to the sequence, concatenating it into the previous
// element if both are blocks, and splicing in a nested Seq's elements
// rather than nesting it.
func (s *Seq) Push(a *graph.Arena, c Cfg) {
	if nested, ok := c.(*Seq); ok {
		for _, item := range nested.Items {
			s.Push(a, item)
		}
		return
	}
	if n := len(s.Items); n > 0 {
		if prevBlock, ok := s.Items[n-1].(*BlockNode); ok {
			if newBlock, ok2 := c.(*BlockNode); ok2 {
				block.Concat(a, prevBlock.Block, newBlock.Block)
				return
			}
		}
	}
	s.Items = append(s.Items, c)
}

// Flatten concatenates adjacent Block children and splices nested Seq
// children into this one.
func (s *Seq) Flatten(a *graph.Arena) {
	if len(s.Items) == 0 {
		return
	}
	out := &Seq{Items: make([]Cfg, 0, len(s.Items))}
	for _, item := range s.Items {
		if nested, ok := item.(*Seq); ok {
			nested.Flatten(a)
			for _, inner := range nested.Items {
				out.Push(a, inner)
			}
			continue
		}
		out.Push(a, item)
	}
	s.Items = out.Items
}

// IntoCfg collapses a singleton sequence to its element; otherwise
// returns s unchanged (as a Cfg).
func (s *Seq) IntoCfg() Cfg {
	if len(s.Items) == 1 {
		return s.Items[0]
	}
	return s
}

// NetOffset sums block offsets along a straight-line Cfg. A Loop or If
// contributes 0 only when its body's own net offset is 0 (so the body
// can run any number of times, including zero, without changing the
// cursor); otherwise the overall net offset is unknown. An If is treated
// the same way as a Loop here, since an If body also may or may not
// execute.
func NetOffset(c Cfg) (int32, bool) {
	switch v := c.(type) {
	case *BlockNode:
		return v.Block.Offset, true
	case *Seq:
		var sum int32
		for _, item := range v.Items {
			off, ok := NetOffset(item)
			if !ok {
				return 0, false
			}
			sum += off
		}
		return sum, true
	case *Loop:
		off, ok := NetOffset(v.Body)
		if ok && off == 0 {
			return 0, true
		}
		return 0, false
	case *If:
		off, ok := NetOffset(v.Body)
		if ok && off == 0 {
			return 0, true
		}
		return 0, false
	default:
		return 0, false
	}
}
