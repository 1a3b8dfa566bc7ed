// Package effects describes card effects as data. Resolution lives in the
// engine; this package only defines and validates specifications.
package effects

import (
	"errors"
	"fmt"

	"github.com/cardclash/battle-sim/internal/game/targeting"
)

// ErrInvalid marks an effect specification that cannot be resolved.
var ErrInvalid = errors.New("invalid effect specification")

// Type is the kind of change an effect applies.
type Type string

const (
	Damage     Type = "damage"
	Heal       Type = "heal"
	BuffAttack Type = "buff_attack"
	BuffHealth Type = "buff_health"
	Draw       Type = "draw"
	DeckSearch Type = "deck_search"
	Brand      Type = "brand"
	Poison     Type = "poison"
	Silence    Type = "silence"
	Destroy    Type = "destroy"
	GainEnergy Type = "gain_energy"
)

// Trigger decides when a card's effect fires.
type Trigger string

const (
	OnPlay      Trigger = "on_play"
	OnDeath     Trigger = "on_death"
	OnAllyDeath Trigger = "on_ally_death"
	OnAttack    Trigger = "on_attack"
	TurnEnd     Trigger = "turn_end"
	Static      Trigger = "static"
)

// Scope is the implicit candidate set an effect's filters narrow down.
type Scope string

const (
	Self           Scope = "self"
	EnemyCreatures Scope = "enemy_creatures"
	AllyCreatures  Scope = "ally_creatures"
	AllCreatures   Scope = "all_creatures"
	EnemyPlayer    Scope = "enemy_player"
	AllyPlayer     Scope = "ally_player"
	OwnDeck        Scope = "own_deck"
)

// Pick orders candidates before Count of them are taken.
type Pick string

const (
	PickFirst         Pick = "first"
	PickLowestHealth  Pick = "lowest_health"
	PickHighestAttack Pick = "highest_attack"
	PickRandom        Pick = "random"
)

// ChainCondition gates a follow-up application on the outcome of the
// previous one.
type ChainCondition string

const (
	ChainOnKill    ChainCondition = "on_kill"
	ChainOnSurvive ChainCondition = "on_survive"
	ChainAlways    ChainCondition = "always"
)

// Chain is the follow-up declared by an effect. Each link targets a
// creature that no earlier link of the same chain touched.
type Chain struct {
	Condition ChainCondition `json:"condition" yaml:"condition"`
	Type      Type           `json:"type,omitempty" yaml:"type,omitempty"`
	Value     int            `json:"value" yaml:"value"`
	Repeat    bool           `json:"repeat,omitempty" yaml:"repeat,omitempty"`
}

// Spec is a single effect of a card.
type Spec struct {
	Type     Type                   `json:"type" yaml:"type"`
	Trigger  Trigger                `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	Scope    Scope                  `json:"scope,omitempty" yaml:"scope,omitempty"`
	Value    int                    `json:"value,omitempty" yaml:"value,omitempty"`
	Count    int                    `json:"count,omitempty" yaml:"count,omitempty"`
	Pick     Pick                   `json:"pick,omitempty" yaml:"pick,omitempty"`
	Duration Duration               `json:"duration,omitempty" yaml:"duration,omitempty"`
	Filters  []targeting.FilterRule `json:"filters,omitempty" yaml:"filters,omitempty"`
	Chain    *Chain                 `json:"chain,omitempty" yaml:"chain,omitempty"`
}

// TriggerOrDefault returns the trigger, treating an empty one as on_play.
func (s Spec) TriggerOrDefault() Trigger {
	if s.Trigger == "" {
		return OnPlay
	}
	return s.Trigger
}

// PickOrDefault returns the pick policy, defaulting to first.
func (s Spec) PickOrDefault() Pick {
	if s.Pick == "" {
		return PickFirst
	}
	return s.Pick
}

// TargetsCreatures reports whether the scope resolves to field creatures.
func (s Spec) TargetsCreatures() bool {
	switch s.Scope {
	case Self, EnemyCreatures, AllyCreatures, AllCreatures:
		return true
	}
	return false
}

// TargetsPlayer reports whether the scope resolves to a player.
func (s Spec) TargetsPlayer() bool {
	return s.Scope == EnemyPlayer || s.Scope == AllyPlayer
}

// IsAura reports whether the effect is a static stat aura.
func (s Spec) IsAura() bool {
	return s.Trigger == Static && (s.Type == BuffAttack || s.Type == BuffHealth)
}

// Link derives the spec applied by the next chain link.
func (s Spec) Link() Spec {
	next := s
	next.Count = 1
	next.Chain = s.Chain
	if s.Chain != nil {
		next.Value = s.Chain.Value
		if s.Chain.Type != "" {
			next.Type = s.Chain.Type
		}
		if !s.Chain.Repeat {
			next.Chain = nil
		}
	}
	return next
}

var validScopes = map[Type][]Scope{
	Damage:     {Self, EnemyCreatures, AllyCreatures, AllCreatures, EnemyPlayer, AllyPlayer},
	Heal:       {Self, EnemyCreatures, AllyCreatures, AllCreatures, EnemyPlayer, AllyPlayer},
	BuffAttack: {Self, EnemyCreatures, AllyCreatures, AllCreatures},
	BuffHealth: {Self, EnemyCreatures, AllyCreatures, AllCreatures},
	Brand:      {Self, EnemyCreatures, AllyCreatures, AllCreatures},
	Poison:     {Self, EnemyCreatures, AllyCreatures, AllCreatures},
	Silence:    {Self, EnemyCreatures, AllyCreatures, AllCreatures},
	Destroy:    {Self, EnemyCreatures, AllyCreatures, AllCreatures},
	Draw:       {AllyPlayer, EnemyPlayer},
	GainEnergy: {AllyPlayer, EnemyPlayer},
	DeckSearch: {OwnDeck},
}

var validTriggers = map[Trigger]bool{
	OnPlay: true, OnDeath: true, OnAllyDeath: true, OnAttack: true, TurnEnd: true, Static: true,
}

// Validate checks that the spec names a known type, trigger, scope and chain.
func (s Spec) Validate() error {
	scopes, ok := validScopes[s.Type]
	if !ok {
		return fmt.Errorf("%w: unknown effect type %q", ErrInvalid, s.Type)
	}
	if !validTriggers[s.TriggerOrDefault()] {
		return fmt.Errorf("%w: unknown trigger %q for %s", ErrInvalid, s.Trigger, s.Type)
	}
	if s.Trigger == Static && !s.IsAura() {
		return fmt.Errorf("%w: static trigger only supports stat auras, got %s", ErrInvalid, s.Type)
	}
	allowed := false
	for _, sc := range scopes {
		if sc == s.Scope {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: scope %q not valid for %s", ErrInvalid, s.Scope, s.Type)
	}
	if s.Count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrInvalid, s.Count)
	}
	switch s.PickOrDefault() {
	case PickFirst, PickLowestHealth, PickHighestAttack, PickRandom:
	default:
		return fmt.Errorf("%w: unknown pick %q", ErrInvalid, s.Pick)
	}
	if s.Duration != "" && s.Duration != DurationTurn && s.Duration != DurationPermanent {
		return fmt.Errorf("%w: unknown duration %q", ErrInvalid, s.Duration)
	}
	if s.Chain != nil {
		switch s.Chain.Condition {
		case ChainOnKill, ChainOnSurvive, ChainAlways:
		default:
			return fmt.Errorf("%w: unknown chain condition %q", ErrInvalid, s.Chain.Condition)
		}
		if !s.TargetsCreatures() {
			return fmt.Errorf("%w: chains need a creature scope, got %q", ErrInvalid, s.Scope)
		}
		if s.Chain.Type != "" {
			if _, ok := validScopes[s.Chain.Type]; !ok {
				return fmt.Errorf("%w: unknown chain effect type %q", ErrInvalid, s.Chain.Type)
			}
		}
	}
	return nil
}
