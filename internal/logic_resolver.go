package internal

import (
	"github.com/lychee-technology/formlogic"
)

// passResult is the outcome of one resolution pass.
type passResult struct {
	next *Set[string]
	// newlyVisible lists fields revealed by this pass in form order.
	newlyVisible []string
	prevented    *compiledRule
}

// ruleSatisfied reports whether every condition of the rule holds. A
// condition whose source is currently hidden does not hold, so a hidden
// field never drives logic.
func ruleSatisfied(rule *compiledRule, responses map[string]*formlogic.ResponseItem, visible *Set[string]) bool {
	for _, cond := range rule.conditions {
		source := cond.condition.Field
		if !visible.Contains(source) {
			return false
		}
		if !evaluateCondition(cond.condition, cond.sourceType, responses[source]) {
			return false
		}
	}
	return true
}

// resolveOnePass checks PreventSubmit rules against the current visibility and
// applies the candidate ShowFields rules. Visibility only grows.
func resolveOnePass(g *logicGraph, candidates []*compiledRule, responses map[string]*formlogic.ResponseItem, current *Set[string]) passResult {
	for _, rule := range g.preventRules {
		if ruleSatisfied(rule, responses, current) {
			return passResult{next: current, prevented: rule}
		}
	}

	revealed := NewSet[string]()
	for _, rule := range candidates {
		if !ruleSatisfied(rule, responses, current) {
			continue
		}
		for _, target := range rule.targets {
			if !current.Contains(target) {
				revealed.Add(target)
			}
		}
	}
	if revealed.Size() == 0 {
		return passResult{next: current}
	}

	next := current.Clone()
	newly := make([]string, 0, revealed.Size())
	for _, field := range g.form.Fields {
		if revealed.Contains(field.ID) && next.Add(field.ID) {
			newly = append(newly, field.ID)
		}
	}
	return passResult{next: next, newlyVisible: newly}
}
