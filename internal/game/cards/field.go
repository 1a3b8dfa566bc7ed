package cards

import "github.com/cardclash/battle-sim/internal/game/status"

// FieldCard is a creature on the battlefield. Modifiers are split into the
// temporary ones granted by effects (AttackModifier, HealthModifier), the
// permanent ones that last while the creature stays on the field
// (BuffAttack, BuffHealth) and the passive ones recomputed from static auras
// whenever the field changes. The embedded Card keeps its printed stats.
type FieldCard struct {
	Card
	CurrentHealth         int         `json:"currentHealth"`
	AttackModifier        int         `json:"attackModifier"`
	HealthModifier        int         `json:"healthModifier"`
	BuffAttack            int         `json:"buffAttack"`
	BuffHealth            int         `json:"buffHealth"`
	PassiveAttackModifier int         `json:"passiveAttackModifier"`
	PassiveHealthModifier int         `json:"passiveHealthModifier"`
	Position              int         `json:"position"`
	SummonTurn            int         `json:"summonTurn"`
	HasAttacked           bool        `json:"hasAttacked"`
	IsStealthed           bool        `json:"isStealthed"`
	IsSilenced            bool        `json:"isSilenced"`
	StatusEffects         status.List `json:"statusEffects,omitempty"`
}

// NewFieldCard puts a creature card onto the field at the given position.
func NewFieldCard(c Card, position, turn int) FieldCard {
	return FieldCard{
		Card:          c.Clone(),
		CurrentHealth: c.Health,
		Position:      position,
		SummonTurn:    turn,
		IsStealthed:   c.Has(Stealth),
	}
}

// EffectiveAttack is the attack used in combat, never below zero.
func (f FieldCard) EffectiveAttack() int {
	atk := f.Attack + f.AttackModifier + f.BuffAttack + f.PassiveAttackModifier
	if atk < 0 {
		return 0
	}
	return atk
}

// MaxHealth is the health ceiling used when healing.
func (f FieldCard) MaxHealth() int {
	return f.Card.Health + f.HealthModifier + f.BuffHealth + f.PassiveHealthModifier
}

// IsDead reports whether the creature must be removed by the next sweep.
func (f FieldCard) IsDead() bool {
	return f.CurrentHealth <= 0
}

// HasKeyword hides printed keywords while the creature is silenced.
func (f FieldCard) HasKeyword(k string) bool {
	if f.IsSilenced {
		return false
	}
	return f.Card.HasKeyword(k)
}

// Has is the typed form of HasKeyword.
func (f FieldCard) Has(k Keyword) bool { return f.HasKeyword(string(k)) }

func (f FieldCard) CardAttack() int { return f.EffectiveAttack() }

// CurrentHP implements targeting.FieldCandidate.
func (f FieldCard) CurrentHP() int { return f.CurrentHealth }

// HasStatus implements targeting.FieldCandidate.
func (f FieldCard) HasStatus(t string) bool {
	switch t {
	case string(status.Silence):
		return f.IsSilenced
	case "stealth":
		return f.IsStealthed
	}
	return f.StatusEffects.Has(status.Type(t))
}

// Property extends Card.Property with battlefield attributes.
func (f FieldCard) Property(name string) (any, bool) {
	switch name {
	case "currentHealth", "current_health":
		return f.CurrentHealth, true
	case "position":
		return f.Position, true
	case "hasAttacked", "has_attacked":
		return f.HasAttacked, true
	case "summonTurn", "summon_turn":
		return f.SummonTurn, true
	}
	return f.Card.Property(name)
}

// ToCard strips battlefield state, buffs included, as when the creature goes
// to the graveyard.
func (f FieldCard) ToCard() Card {
	return f.Card.Clone()
}

// Clone returns a copy that shares no slices with f.
func (f FieldCard) Clone() FieldCard {
	out := f
	out.Card = f.Card.Clone()
	out.StatusEffects = f.StatusEffects.Clone()
	return out
}
