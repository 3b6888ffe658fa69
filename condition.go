package formlogic

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ConditionState is the comparison a condition applies.
type ConditionState string

const (
	ConditionEquals        ConditionState = "is equals to"
	ConditionNotEquals     ConditionState = "is not equals to"
	ConditionGreaterThan   ConditionState = "is more than"
	ConditionLessThan      ConditionState = "is less than"
	ConditionGreaterEquals ConditionState = "is more than or equal to"
	ConditionLessEquals    ConditionState = "is less than or equal to"
	ConditionEither        ConditionState = "is either"
)

// ConditionValueType selects the comparison strategy for a condition.
type ConditionValueType string

const (
	ConditionValueSingle ConditionValueType = "SingleValue"
	ConditionValueMulti  ConditionValueType = "MultiValue"
	ConditionValueNumber ConditionValueType = "Number"
)

// Condition is one clause of a logic rule.
// Value holds a string, a number or a list of strings as authored.
type Condition struct {
	Field       string             `json:"field"`
	State       ConditionState     `json:"state"`
	Value       any                `json:"value"`
	IfValueType ConditionValueType `json:"ifValueType,omitempty"`
}

// UnmarshalJSON keeps numbers as json.Number so that numeric values survive
// without float rounding.
func (c *Condition) UnmarshalJSON(data []byte) error {
	type rawCondition struct {
		Field       string             `json:"field"`
		State       ConditionState     `json:"state"`
		Value       json.RawMessage    `json:"value"`
		IfValueType ConditionValueType `json:"ifValueType,omitempty"`
	}

	var raw rawCondition
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Field = raw.Field
	c.State = raw.State
	c.IfValueType = raw.IfValueType
	c.Value = nil

	if len(raw.Value) == 0 || string(raw.Value) == "null" {
		return nil
	}

	dec := json.NewDecoder(strings.NewReader(string(raw.Value)))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return fmt.Errorf("condition on field %q: invalid value: %w", raw.Field, err)
	}
	c.Value = value
	return nil
}

// StringValue returns the value as a single string. Numbers are formatted and
// a list yields its first element.
func (c Condition) StringValue() (string, bool) {
	switch v := c.Value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case []string:
		if len(v) > 0 {
			return v[0], true
		}
	case []any:
		if len(v) > 0 {
			return Condition{Value: v[0]}.StringValue()
		}
	}
	return "", false
}

// StringValues returns the value as a list of strings. A scalar yields a
// one-element list.
func (c Condition) StringValues() []string {
	switch v := c.Value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := (Condition{Value: item}).StringValue(); ok {
				out = append(out, s)
			}
		}
		return out
	}
	if s, ok := c.StringValue(); ok {
		return []string{s}
	}
	return nil
}

// NumberValue returns the value as a float64.
func (c Condition) NumberValue() (float64, bool) {
	switch v := c.Value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}
