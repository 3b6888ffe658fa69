package internal

import (
	"testing"

	"github.com/lychee-technology/formlogic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLogicGraph_DropsDanglingReferences(t *testing.T) {
	a, b, c := yesNoField("a"), textField("b"), textField("c")
	form := &formlogic.Form{
		ID:     "f",
		Fields: []formlogic.FieldDefinition{a, b, c},
		Logic: []formlogic.LogicRule{
			{
				ID:        "mixed",
				LogicType: formlogic.LogicTypeShowFields,
				Conditions: []formlogic.Condition{
					{Field: "deleted", State: formlogic.ConditionEquals, Value: "x"},
					{Field: "a", State: formlogic.ConditionEquals, Value: "Yes"},
				},
				Show: []string{"b", "gone"},
			},
			showRule("orphan", "deleted", "x", "c"),
		},
	}

	g := buildLogicGraph(form)

	require.Len(t, g.showRules, 1)
	assert.Equal(t, "mixed", g.showRules[0].rule.ID)
	assert.Len(t, g.showRules[0].conditions, 1)
	assert.Equal(t, []string{"b"}, g.showRules[0].targets)
	assert.Equal(t, 2, g.droppedConditions)
	assert.Equal(t, 1, g.skippedRules)

	// a rule left without conditions still marks its targets conditional
	assert.True(t, g.conditional.Contains("b"))
	assert.True(t, g.conditional.Contains("c"))
	assert.False(t, g.conditional.Contains("gone"))
	assert.Equal(t, []string{"a"}, g.initialVisibility().Sorted())
}

func TestLogicGraph_RulesReadingKeepsDeclarationOrder(t *testing.T) {
	form := &formlogic.Form{
		ID:     "f",
		Fields: []formlogic.FieldDefinition{yesNoField("a"), yesNoField("b"), textField("c"), textField("d")},
		Logic: []formlogic.LogicRule{
			showRule("r1", "b", "Yes", "c"),
			showRule("r2", "a", "Yes", "b"),
			showRule("r3", "b", "No", "d"),
		},
	}

	g := buildLogicGraph(form)
	rules := g.rulesReading([]string{"b"})

	require.Len(t, rules, 2)
	assert.Equal(t, "r1", rules[0].ruleID())
	assert.Equal(t, "r3", rules[1].ruleID())
	assert.Empty(t, g.rulesReading([]string{"c"}))
}

func TestCompiledRule_PositionalID(t *testing.T) {
	form := &formlogic.Form{
		ID:     "f",
		Fields: []formlogic.FieldDefinition{yesNoField("a"), textField("b")},
		Logic:  []formlogic.LogicRule{showRule("", "a", "Yes", "b")},
	}
	g := buildLogicGraph(form)
	require.Len(t, g.showRules, 1)
	assert.Equal(t, "logic-0", g.showRules[0].ruleID())
}
