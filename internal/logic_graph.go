package internal

import (
	"strconv"

	"github.com/lychee-technology/formlogic"
	"go.uber.org/zap"
)

// compiledCondition is a condition whose source field exists on the form.
type compiledCondition struct {
	condition  formlogic.Condition
	sourceType formlogic.FieldType
}

// compiledRule is a logic rule stripped of dangling references.
type compiledRule struct {
	index      int
	rule       *formlogic.LogicRule
	conditions []compiledCondition
	// targets holds the existing fields a ShowFields rule reveals.
	targets []string
}

// ruleID returns the authored id, or a positional one for rules without an id.
func (r *compiledRule) ruleID() string {
	if r.rule.ID != "" {
		return r.rule.ID
	}
	return "logic-" + strconv.Itoa(r.index)
}

// logicGraph is the dependency structure of a form's logic, derived once per
// evaluation from the form definition.
type logicGraph struct {
	form   *formlogic.Form
	fields map[string]*formlogic.FieldDefinition

	showRules    []*compiledRule
	preventRules []*compiledRule

	// conditional holds every field targeted by some ShowFields rule. Such
	// fields start hidden; all others are always visible.
	conditional *Set[string]
	// dependents maps a source field to the ShowFields rules that read it.
	dependents map[string][]*compiledRule

	droppedConditions int
	skippedRules      int
}

func buildLogicGraph(form *formlogic.Form) *logicGraph {
	g := &logicGraph{
		form:        form,
		fields:      make(map[string]*formlogic.FieldDefinition, len(form.Fields)),
		conditional: NewSet[string](),
		dependents:  make(map[string][]*compiledRule),
	}
	for i := range form.Fields {
		field := &form.Fields[i]
		if _, exists := g.fields[field.ID]; !exists {
			g.fields[field.ID] = field
		}
	}

	for i := range form.Logic {
		rule := &form.Logic[i]
		if rule.LogicType == formlogic.LogicTypeShowFields {
			for _, target := range rule.Show {
				if _, exists := g.fields[target]; exists {
					g.conditional.Add(target)
				}
			}
		}

		compiled := &compiledRule{index: i, rule: rule}
		for _, cond := range rule.Conditions {
			source, exists := g.fields[cond.Field]
			if !exists {
				g.droppedConditions++
				continue
			}
			compiled.conditions = append(compiled.conditions, compiledCondition{
				condition:  cond,
				sourceType: source.FieldType,
			})
		}
		if len(compiled.conditions) == 0 {
			g.skippedRules++
			continue
		}

		switch rule.LogicType {
		case formlogic.LogicTypeShowFields:
			for _, target := range rule.Show {
				if _, exists := g.fields[target]; exists {
					compiled.targets = append(compiled.targets, target)
				}
			}
			if len(compiled.targets) == 0 {
				g.skippedRules++
				continue
			}
			g.showRules = append(g.showRules, compiled)
			sources := NewSet[string]()
			for _, cond := range compiled.conditions {
				if sources.Add(cond.condition.Field) {
					g.dependents[cond.condition.Field] = append(g.dependents[cond.condition.Field], compiled)
				}
			}
		case formlogic.LogicTypePreventSubmit:
			g.preventRules = append(g.preventRules, compiled)
		default:
			g.skippedRules++
		}
	}

	if g.droppedConditions > 0 || g.skippedRules > 0 {
		zap.S().Debugw("logic references ignored",
			"form_id", form.ID,
			"dropped_conditions", g.droppedConditions,
			"skipped_rules", g.skippedRules)
	}
	return g
}

// initialVisibility returns the fields visible before any rule fires.
func (g *logicGraph) initialVisibility() *Set[string] {
	visible := NewSet[string]()
	for _, field := range g.form.Fields {
		if !g.conditional.Contains(field.ID) {
			visible.Add(field.ID)
		}
	}
	return visible
}

// rulesReading returns the ShowFields rules that read any of the given
// fields, in declaration order.
func (g *logicGraph) rulesReading(fieldIDs []string) []*compiledRule {
	picked := make(map[int]*compiledRule)
	for _, id := range fieldIDs {
		for _, rule := range g.dependents[id] {
			picked[rule.index] = rule
		}
	}
	out := make([]*compiledRule, 0, len(picked))
	for _, rule := range g.showRules {
		if _, ok := picked[rule.index]; ok {
			out = append(out, rule)
		}
	}
	return out
}

// visibilityMap renders a visible set as a decision for every form field.
func (g *logicGraph) visibilityMap(visible *Set[string]) formlogic.VisibilityMap {
	out := make(formlogic.VisibilityMap, len(g.form.Fields))
	for _, field := range g.form.Fields {
		out[field.ID] = formlogic.FieldVisibility{Visible: visible.Contains(field.ID)}
	}
	return out
}
