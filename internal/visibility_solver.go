package internal

import (
	"github.com/lychee-technology/formlogic"
	"go.uber.org/zap"
)

// solverOutcome is the terminal state of a visibility resolution.
type solverOutcome struct {
	visible   *Set[string]
	state     formlogic.SolverState
	passes    int
	prevented *compiledRule
}

// visibilitySolver iterates resolution passes to a fixed point.
type visibilitySolver struct {
	extraPasses int
}

func newVisibilitySolver(config formlogic.SolverConfig) *visibilitySolver {
	return &visibilitySolver{extraPasses: config.ExtraPasses}
}

// maxPasses bounds the number of passes. Each non-final pass reveals at
// least one field, so a terminating resolution needs at most one pass per
// field plus the confirming pass.
func (s *visibilitySolver) maxPasses(g *logicGraph) int {
	return max(len(g.form.Fields)+s.extraPasses, 1)
}

// solve runs passes until nothing new becomes visible, a PreventSubmit rule
// fires, or the pass cap is hit. After the first pass only rules reading a
// newly revealed field are evaluated again.
func (s *visibilitySolver) solve(g *logicGraph, responses map[string]*formlogic.ResponseItem) solverOutcome {
	out := solverOutcome{
		visible: g.initialVisibility(),
		state:   formlogic.SolverStateIterating,
	}
	limit := s.maxPasses(g)
	candidates := g.showRules

	for out.state == formlogic.SolverStateIterating {
		if out.passes >= limit {
			out.state = formlogic.SolverStateCycleBroken
			zap.S().Warnw("visibility solver hit pass cap, freezing visibility",
				"form_id", g.form.ID,
				"passes", out.passes,
				"limit", limit)
			break
		}

		result := resolveOnePass(g, candidates, responses, out.visible)
		out.passes++

		switch {
		case result.prevented != nil:
			out.state = formlogic.SolverStatePrevented
			out.prevented = result.prevented
		case len(result.newlyVisible) == 0:
			out.state = formlogic.SolverStateConverged
		default:
			out.visible = result.next
			candidates = g.rulesReading(result.newlyVisible)
		}
	}

	zap.S().Debugw("visibility resolved",
		"form_id", g.form.ID,
		"state", out.state,
		"passes", out.passes,
		"visible", out.visible.Size())
	return out
}
