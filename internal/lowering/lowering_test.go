package lowering

import (
	"testing"

	"bfc/internal/ast"
	"bfc/internal/cfg"
	"bfc/internal/graph"
)

func lower(t *testing.T, src string) (*graph.Arena, cfg.Cfg) {
	t.Helper()
	a := graph.NewArena()
	instrs, err := ast.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return a, Lower(a, instrs)
}

func TestLowerStraightLineIsOneBlock(t *testing.T) {
	_, c := lower(t, "+++>--<.")
	if _, ok := c.(*cfg.BlockNode); !ok {
		t.Fatalf("expected a single BlockNode, got %T", c)
	}
}

func TestLowerLoopProducesLoopNode(t *testing.T) {
	_, c := lower(t, "[-]")
	loop, ok := c.(*cfg.Loop)
	if !ok {
		t.Fatalf("expected a Loop, got %T", c)
	}
	if loop.Cond.Kind != cfg.WhileNonZero {
		t.Fatalf("expected WhileNonZero condition, got %v", loop.Cond.Kind)
	}
	if _, ok := loop.Body.(*cfg.BlockNode); !ok {
		t.Fatalf("expected loop body to collapse to a single block, got %T", loop.Body)
	}
}

func TestLowerSurroundingCodeProducesSeq(t *testing.T) {
	_, c := lower(t, "+[-]+")
	seq, ok := c.(*cfg.Seq)
	if !ok {
		t.Fatalf("expected a Seq of [block, loop, block], got %T", c)
	}
	if len(seq.Items) != 3 {
		t.Fatalf("expected 3 items, got %d: %v", len(seq.Items), seq.Items)
	}
	if _, ok := seq.Items[1].(*cfg.Loop); !ok {
		t.Fatalf("expected middle item to be a Loop, got %T", seq.Items[1])
	}
}

func TestLowerNestedLoops(t *testing.T) {
	_, c := lower(t, "[[-]]")
	outer, ok := c.(*cfg.Loop)
	if !ok {
		t.Fatalf("expected outer Loop, got %T", c)
	}
	if _, ok := outer.Body.(*cfg.Loop); !ok {
		t.Fatalf("expected inner Loop as body, got %T", outer.Body)
	}
}
