// Package lowering converts a parsed AST into a Cfg: runs of non-branching
// instructions fold into a single basic block via block.Builder;
// `[...]` recurses into a WhileNonZero Loop.
package lowering

import (
	"bfc/internal/ast"
	"bfc/internal/block"
	"bfc/internal/cfg"
	"bfc/internal/graph"
)

// Lower converts instrs into a Cfg, interning expression nodes into a as
// it folds instructions into blocks.
func Lower(a *graph.Arena, instrs []ast.Instr) cfg.Cfg {
	seq := &cfg.Seq{}
	lowerInto(a, instrs, seq)
	return seq.IntoCfg()
}

func lowerInto(a *graph.Arena, instrs []ast.Instr, seq *cfg.Seq) {
	bld := block.NewBuilder(a)
	flush := func() {
		if bld.IsEmpty() {
			return
		}
		seq.Push(a, cfg.NewBlockNode(bld.Finish()))
	}

	for _, instr := range instrs {
		switch instr.Kind {
		case ast.Right:
			bld.Shift(1)
		case ast.Left:
			bld.Shift(-1)
		case ast.Plus:
			bld.AddConst(1)
		case ast.Minus:
			bld.AddConst(255) // -1 mod 256
		case ast.Output:
			bld.Output()
		case ast.Input:
			bld.Input()
		case ast.Loop:
			flush()
			bodySeq := &cfg.Seq{}
			lowerInto(a, instr.Body, bodySeq)
			seq.Push(a, &cfg.Loop{Body: bodySeq.IntoCfg(), Cond: cfg.Condition{Kind: cfg.WhileNonZero}})
			bld = block.NewBuilder(a)
		}
	}
	flush()
}
