package models

import "strings"

// Condition is the state an item was in when it came back.
type Condition string

const (
	ConditionExcellent Condition = "Excellent"
	ConditionGood      Condition = "Good"
	ConditionFair      Condition = "Fair"
	ConditionDamaged   Condition = "Damaged"
	ConditionLost      Condition = "Lost"
)

var Conditions = []Condition{
	ConditionExcellent,
	ConditionGood,
	ConditionFair,
	ConditionDamaged,
	ConditionLost,
}

// ParseCondition matches case-insensitively. An empty string means Good.
func ParseCondition(s string) (Condition, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ConditionGood, true
	}
	for _, c := range Conditions {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// Harmful reports whether the condition costs the borrower the damage penalty.
func (c Condition) Harmful() bool { return c == ConditionDamaged || c == ConditionLost }
