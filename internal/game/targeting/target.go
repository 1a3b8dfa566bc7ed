package targeting

import (
	"fmt"
	"strings"
)

// RuleType names the card attribute a FilterRule inspects.
type RuleType string

const (
	// RuleCost compares the printed energy cost.
	RuleCost RuleType = "cost"
	// RuleFaction compares the card faction.
	RuleFaction RuleType = "faction"
	// RuleCardType compares creature/spell.
	RuleCardType RuleType = "card_type"
	// RuleKeyword checks keyword presence.
	RuleKeyword RuleType = "keyword"
	// RuleAttack compares attack (effective attack on the field).
	RuleAttack RuleType = "attack"
	// RuleHealth compares current health. Field only.
	RuleHealth RuleType = "health"
	// RuleBranded checks the branded status. Field only.
	RuleBranded RuleType = "branded"
	// RuleStatus checks for an arbitrary status effect. Field only.
	RuleStatus RuleType = "status"
	// RuleProperty compares a named property for equality.
	RuleProperty RuleType = "property"
)

// Operator is the comparison applied by a rule.
type Operator string

const (
	OpEqual        Operator = "eq"
	OpNotEqual     Operator = "neq"
	OpGreater      Operator = "gt"
	OpGreaterEqual Operator = "gte"
	OpLess         Operator = "lt"
	OpLessEqual    Operator = "lte"
	OpRange        Operator = "range"
	OpIn           Operator = "in"
	OpHas          Operator = "has"
	OpNotHas       Operator = "not_has"
)

// FilterRule is one predicate over a card-like value. A rule set is the
// conjunction of its rules; an empty set matches everything.
type FilterRule struct {
	Type     RuleType `json:"type" yaml:"type"`
	Operator Operator `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty"`
	MinValue *int     `json:"minValue,omitempty" yaml:"min_value,omitempty"`
	MaxValue *int     `json:"maxValue,omitempty" yaml:"max_value,omitempty"`
	Property string   `json:"property,omitempty" yaml:"property,omitempty"`
}

// String renders the rule for log output.
func (r FilterRule) String() string {
	var b strings.Builder
	b.WriteString(string(r.Type))
	if r.Property != "" {
		b.WriteString("." + r.Property)
	}
	op := r.Operator
	if op == "" {
		op = OpEqual
	}
	b.WriteString(" " + string(op))
	if r.MinValue != nil || r.MaxValue != nil {
		fmt.Fprintf(&b, " [%s,%s]", boundString(r.MinValue), boundString(r.MaxValue))
	} else if r.Value != nil {
		fmt.Fprintf(&b, " %v", r.Value)
	}
	return b.String()
}

func boundString(v *int) string {
	if v == nil {
		return "*"
	}
	return fmt.Sprintf("%d", *v)
}

// Range builds a numeric between-rule with inclusive bounds.
func Range(ruleType RuleType, minValue, maxValue int) FilterRule {
	return FilterRule{Type: ruleType, Operator: OpRange, MinValue: &minValue, MaxValue: &maxValue}
}

// Equals builds an equality rule.
func Equals(ruleType RuleType, value any) FilterRule {
	return FilterRule{Type: ruleType, Operator: OpEqual, Value: value}
}

// Candidate is anything a rule can be evaluated against: deck, hand and
// graveyard cards as well as field cards.
type Candidate interface {
	CardCost() int
	CardFaction() string
	CardType() string
	CardAttack() int
	HasKeyword(keyword string) bool
	Property(name string) (any, bool)
}

// FieldCandidate is a Candidate with battlefield-only state. Rules that need
// it pass neutrally on plain Candidates.
type FieldCandidate interface {
	Candidate
	CurrentHP() int
	HasStatus(statusType string) bool
}
