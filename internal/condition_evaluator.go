package internal

import (
	"slices"
	"strconv"
	"strings"

	"github.com/lychee-technology/formlogic"
)

// evaluateCondition reports whether a condition holds for the given source
// answer. A missing or empty answer never satisfies a condition.
func evaluateCondition(cond formlogic.Condition, sourceType formlogic.FieldType, resp *formlogic.ResponseItem) bool {
	kind := lookupFieldKind(sourceType)
	answers := kind.conditionAnswers(resp)
	if len(answers) == 0 {
		return false
	}

	strategy := cond.IfValueType
	if strategy == "" {
		strategy = kind.semantics
	}

	switch cond.State {
	case formlogic.ConditionEither:
		values := cond.StringValues()
		for _, answer := range answers {
			if slices.Contains(values, answer) {
				return true
			}
		}
		return false
	case formlogic.ConditionGreaterThan, formlogic.ConditionLessThan,
		formlogic.ConditionGreaterEquals, formlogic.ConditionLessEquals:
		return compareNumeric(cond, answers[0])
	case formlogic.ConditionEquals, formlogic.ConditionNotEquals:
		equal := matchesValue(cond, strategy, answers)
		if cond.State == formlogic.ConditionNotEquals {
			return !equal
		}
		return equal
	default:
		return false
	}
}

// matchesValue applies equality under the given strategy. Multi-valued
// answers match when any selection equals the condition value.
func matchesValue(cond formlogic.Condition, strategy formlogic.ConditionValueType, answers []string) bool {
	switch strategy {
	case formlogic.ConditionValueNumber:
		want, ok := cond.NumberValue()
		if !ok {
			return false
		}
		got, err := parseNumber(answers[0])
		return err == nil && got == want
	case formlogic.ConditionValueMulti:
		values := cond.StringValues()
		for _, answer := range answers {
			if slices.Contains(values, answer) {
				return true
			}
		}
		return false
	default:
		want, ok := cond.StringValue()
		return ok && answers[0] == want
	}
}

// compareNumeric handles the ordering states. Non-numeric operands never
// satisfy the comparison.
func compareNumeric(cond formlogic.Condition, answer string) bool {
	want, ok := cond.NumberValue()
	if !ok {
		return false
	}
	got, err := parseNumber(answer)
	if err != nil {
		return false
	}
	switch cond.State {
	case formlogic.ConditionGreaterThan:
		return got > want
	case formlogic.ConditionLessThan:
		return got < want
	case formlogic.ConditionGreaterEquals:
		return got >= want
	case formlogic.ConditionLessEquals:
		return got <= want
	}
	return false
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
