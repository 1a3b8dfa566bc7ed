package effects

import "github.com/cardclash/battle-sim/internal/game/targeting"

// Builder provides a fluent API for assembling effect specs, mostly used by
// tests and the built-in starter catalog.
type Builder struct {
	spec Spec
}

// NewBuilder starts a spec of the given type with an on_play trigger.
func NewBuilder(t Type, value int) *Builder {
	return &Builder{spec: Spec{Type: t, Value: value, Trigger: OnPlay}}
}

// Deal starts a damage spec.
func Deal(amount int) *Builder { return NewBuilder(Damage, amount) }

// Restore starts a heal spec.
func Restore(amount int) *Builder { return NewBuilder(Heal, amount) }

// To sets the scope.
func (b *Builder) To(scope Scope) *Builder {
	b.spec.Scope = scope
	return b
}

// On sets the trigger.
func (b *Builder) On(trigger Trigger) *Builder {
	b.spec.Trigger = trigger
	return b
}

// Take limits the number of targets and sets the pick policy.
func (b *Builder) Take(count int, pick Pick) *Builder {
	b.spec.Count = count
	b.spec.Pick = pick
	return b
}

// Where appends filter rules.
func (b *Builder) Where(rules ...targeting.FilterRule) *Builder {
	b.spec.Filters = append(b.spec.Filters, rules...)
	return b
}

// For sets the buff duration.
func (b *Builder) For(d Duration) *Builder {
	b.spec.Duration = d
	return b
}

// OnKill chains a follow-up of the same type that fires when the previous
// application killed its target.
func (b *Builder) OnKill(value int) *Builder {
	b.spec.Chain = &Chain{Condition: ChainOnKill, Value: value}
	return b
}

// Then chains an arbitrary follow-up.
func (b *Builder) Then(chain Chain) *Builder {
	b.spec.Chain = &chain
	return b
}

// Build returns the assembled spec.
func (b *Builder) Build() Spec {
	return b.spec
}
