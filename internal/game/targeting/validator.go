package targeting

import (
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// Evaluator applies filter rule sets to candidates.
type Evaluator struct {
	logger *zap.Logger
}

// NewEvaluator creates an evaluator. A nil logger discards warnings.
func NewEvaluator(logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{logger: logger}
}

// Filter returns the candidates matching every rule, preserving input order.
func Filter[T Candidate](ev *Evaluator, candidates []T, rules []FilterRule) []T {
	out := make([]T, 0, len(candidates))
	for _, c := range candidates {
		if ev.Matches(c, rules) {
			out = append(out, c)
		}
	}
	return out
}

// Matches reports whether the candidate satisfies all rules.
func (ev *Evaluator) Matches(c Candidate, rules []FilterRule) bool {
	for _, rule := range rules {
		if !ev.matchRule(c, rule) {
			return false
		}
	}
	return true
}

func (ev *Evaluator) matchRule(c Candidate, rule FilterRule) bool {
	switch rule.Type {
	case RuleCost:
		return compareInt(c.CardCost(), rule)
	case RuleAttack:
		return compareInt(c.CardAttack(), rule)
	case RuleFaction:
		return compareString(c.CardFaction(), rule)
	case RuleCardType:
		return compareString(c.CardType(), rule)
	case RuleKeyword:
		has := c.HasKeyword(cast.ToString(rule.Value))
		if rule.Operator == OpNotHas || rule.Operator == OpNotEqual {
			return !has
		}
		return has
	case RuleHealth:
		fc, ok := c.(FieldCandidate)
		if !ok {
			return true
		}
		return compareInt(fc.CurrentHP(), rule)
	case RuleBranded:
		fc, ok := c.(FieldCandidate)
		if !ok {
			return true
		}
		want := true
		if rule.Value != nil {
			want = cast.ToBool(rule.Value)
		}
		if rule.Operator == OpNotEqual || rule.Operator == OpNotHas {
			want = !want
		}
		return fc.HasStatus("branded") == want
	case RuleStatus:
		fc, ok := c.(FieldCandidate)
		if !ok {
			return true
		}
		has := fc.HasStatus(cast.ToString(rule.Value))
		if rule.Operator == OpNotHas || rule.Operator == OpNotEqual {
			return !has
		}
		return has
	case RuleProperty:
		value, ok := c.Property(rule.Property)
		if !ok {
			return rule.Operator == OpNotEqual
		}
		return compareString(cast.ToString(value), rule)
	default:
		ev.logger.Warn("ignoring unknown filter rule",
			zap.String("rule_type", string(rule.Type)),
			zap.Stringer("rule", rule),
		)
		return true
	}
}

func compareInt(actual int, rule FilterRule) bool {
	if rule.Operator == OpRange || (rule.Operator == "" && (rule.MinValue != nil || rule.MaxValue != nil)) {
		if rule.MinValue != nil && actual < *rule.MinValue {
			return false
		}
		if rule.MaxValue != nil && actual > *rule.MaxValue {
			return false
		}
		return true
	}
	if rule.Operator == OpIn {
		for _, v := range cast.ToIntSlice(rule.Value) {
			if v == actual {
				return true
			}
		}
		return false
	}
	expected, err := cast.ToIntE(rule.Value)
	if err != nil {
		return false
	}
	switch rule.Operator {
	case OpNotEqual:
		return actual != expected
	case OpGreater:
		return actual > expected
	case OpGreaterEqual:
		return actual >= expected
	case OpLess:
		return actual < expected
	case OpLessEqual:
		return actual <= expected
	default:
		return actual == expected
	}
}

func compareString(actual string, rule FilterRule) bool {
	switch rule.Operator {
	case OpIn:
		for _, v := range cast.ToStringSlice(rule.Value) {
			if strings.EqualFold(v, actual) {
				return true
			}
		}
		return false
	case OpNotEqual:
		return !strings.EqualFold(actual, cast.ToString(rule.Value))
	default:
		return strings.EqualFold(actual, cast.ToString(rule.Value))
	}
}
