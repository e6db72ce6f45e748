// Package optimize implements the optimization pipeline: a sequence of
// Cfg-rewriting passes run to a fixpoint over the graph built by
// internal/lowering.
//
// Each pass has a Name/Description and an Apply method that, besides
// mutating nodes in place, returns the (possibly entirely replaced)
// root — a pass like closed-form conversion may turn a *cfg.Loop into a
// *cfg.If, which is a change of the interface value itself, not of a
// field — and Apply takes an explicit config.PassConfig instead of
// reading package state, so the pipeline carries no global mutable
// configuration. The pipeline itself prints nothing: it is a silent, pure
// component, with progress reporting left to internal/cli.
package optimize

import (
	"bfc/internal/cfg"
	"bfc/internal/config"
	"bfc/internal/graph"
)

// Pass is a single Cfg-rewriting optimization.
type Pass interface {
	Name() string
	Description() string

	// Apply runs this pass once over root, returning the (possibly new)
	// root and whether anything changed. Implementations may mutate Seq,
	// Loop, and If nodes reachable from root in place, but must not
	// assume root itself survives unchanged: callers must always use the
	// returned Cfg.
	Apply(a *graph.Arena, root cfg.Cfg, conf config.PassConfig) (cfg.Cfg, bool)
}

// Pipeline runs a sequence of passes to a fixpoint.
type Pipeline struct {
	passes []Pass
}

// NewPipeline constructs a pipeline with the default pass list.
// Concatenation/flattening and output joining bookend the structural
// passes so that adjacency either pass depends on or creates is always
// re-established before the next fixpoint check.
func NewPipeline() *Pipeline {
	p := &Pipeline{}
	p.AddPass(&ConcatFlatten{})
	p.AddPass(&ClosedFormAddLoop{})
	p.AddPass(&IfZeroLoop{})
	p.AddPass(&PeelInvariant{})
	p.AddPass(&ConstProp{})
	p.AddPass(&OutputJoin{})
	return p
}

// AddPass appends a pass to the pipeline.
func (p *Pipeline) AddPass(pass Pass) {
	p.passes = append(p.passes, pass)
}

// Run applies every pass in order, repeating the whole sequence until a full
// pass over the list makes no further change (a fixpoint), since later
// passes can expose opportunities for earlier ones (e.g. closed-form
// conversion replacing a Loop with a Block that is now adjacent to its
// neighbors and needs re-concatenation).
func (p *Pipeline) Run(a *graph.Arena, root cfg.Cfg, conf config.PassConfig) cfg.Cfg {
	for {
		changedAny := false
		for _, pass := range p.passes {
			newRoot, changed := pass.Apply(a, root, conf)
			root = newRoot
			if changed {
				changedAny = true
			}
		}
		if !changedAny {
			return root
		}
	}
}
