// Package cards defines the card model shared by the engine, the AI and the
// catalog: immutable card instances and their battlefield counterpart.
package cards

import (
	"fmt"

	"github.com/cardclash/battle-sim/internal/game/effects"
)

// Kind distinguishes creatures from spells.
type Kind string

const (
	Creature Kind = "creature"
	Spell    Kind = "spell"
)

// Keyword is a static ability printed on a card.
type Keyword string

const (
	Guard     Keyword = "guard"
	Charge    Keyword = "charge"
	Stealth   Keyword = "stealth"
	Lifesteal Keyword = "lifesteal"
	Echo      Keyword = "echo"
	Formation Keyword = "formation"
)

// Faction is the deck faction of a player (and the printed faction of a card).
type Faction string

const (
	Necromancer Faction = "necromancer"
	Knight      Faction = "knight"
	Mage        Faction = "mage"
	Neutral     Faction = "neutral"
)

// Tactics selects the AI scoring profile of a player.
type Tactics string

const (
	Aggressive Tactics = "aggressive"
	Defensive  Tactics = "defensive"
	Balanced   Tactics = "balanced"
	Tempo      Tactics = "tempo"
)

// ParseFaction validates a faction name.
func ParseFaction(s string) (Faction, error) {
	switch f := Faction(s); f {
	case Necromancer, Knight, Mage, Neutral:
		return f, nil
	}
	return "", fmt.Errorf("unknown faction %q", s)
}

// ParseTactics validates a tactics profile name.
func ParseTactics(s string) (Tactics, error) {
	switch t := Tactics(s); t {
	case Aggressive, Defensive, Balanced, Tempo:
		return t, nil
	}
	return "", fmt.Errorf("unknown tactics %q", s)
}

// Card is a card instance in a deck, hand or graveyard. Everything except
// InstanceID comes from the template and never changes.
type Card struct {
	TemplateID string         `json:"templateId" yaml:"id"`
	InstanceID string         `json:"instanceId" yaml:"-"`
	Name       string         `json:"name" yaml:"name"`
	Kind       Kind           `json:"type" yaml:"type"`
	Faction    Faction        `json:"faction" yaml:"faction"`
	Cost       int            `json:"cost" yaml:"cost"`
	Attack     int            `json:"attack,omitempty" yaml:"attack,omitempty"`
	Health     int            `json:"health,omitempty" yaml:"health,omitempty"`
	Keywords   []Keyword      `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Effects    []effects.Spec `json:"effects,omitempty" yaml:"effects,omitempty"`
}

// IsCreature reports whether the card is a creature.
func (c Card) IsCreature() bool { return c.Kind == Creature }

// IsSpell reports whether the card is a spell.
func (c Card) IsSpell() bool { return c.Kind == Spell }

// HasKeyword reports whether the card prints the keyword.
func (c Card) HasKeyword(k string) bool {
	for _, kw := range c.Keywords {
		if string(kw) == k {
			return true
		}
	}
	return false
}

// Has is the typed form of HasKeyword.
func (c Card) Has(k Keyword) bool { return c.HasKeyword(string(k)) }

// EffectsFor returns the effects with the given trigger, in printed order.
func (c Card) EffectsFor(trigger effects.Trigger) []effects.Spec {
	var out []effects.Spec
	for _, e := range c.Effects {
		if e.TriggerOrDefault() == trigger {
			out = append(out, e)
		}
	}
	return out
}

func (c Card) CardCost() int       { return c.Cost }
func (c Card) CardFaction() string { return string(c.Faction) }
func (c Card) CardType() string    { return string(c.Kind) }
func (c Card) CardAttack() int     { return c.Attack }

// Property exposes named attributes to property filter rules.
func (c Card) Property(name string) (any, bool) {
	switch name {
	case "name":
		return c.Name, true
	case "templateId", "template_id":
		return c.TemplateID, true
	case "instanceId", "instance_id":
		return c.InstanceID, true
	case "health":
		return c.Health, true
	case "attack":
		return c.Attack, true
	case "cost":
		return c.Cost, true
	case "faction":
		return string(c.Faction), true
	case "type":
		return string(c.Kind), true
	}
	return nil, false
}

// Clone returns a copy that shares no slices with c.
func (c Card) Clone() Card {
	out := c
	if c.Keywords != nil {
		out.Keywords = append([]Keyword(nil), c.Keywords...)
	}
	if c.Effects != nil {
		out.Effects = make([]effects.Spec, len(c.Effects))
		for i, e := range c.Effects {
			out.Effects[i] = cloneSpec(e)
		}
	}
	return out
}

func cloneSpec(s effects.Spec) effects.Spec {
	out := s
	if s.Filters != nil {
		out.Filters = append(out.Filters[:0:0], s.Filters...)
	}
	if s.Chain != nil {
		chain := *s.Chain
		out.Chain = &chain
	}
	return out
}

var knownKeywords = map[Keyword]bool{
	Guard: true, Charge: true, Stealth: true, Lifesteal: true, Echo: true, Formation: true,
}

// Validate checks a card template before it enters a deck.
func (c Card) Validate() error {
	if c.TemplateID == "" {
		return fmt.Errorf("card %q has no template id", c.Name)
	}
	switch c.Kind {
	case Creature:
		if c.Health <= 0 {
			return fmt.Errorf("creature %s needs positive health, got %d", c.TemplateID, c.Health)
		}
		if c.Attack < 0 {
			return fmt.Errorf("creature %s has negative attack %d", c.TemplateID, c.Attack)
		}
	case Spell:
		if len(c.Effects) == 0 {
			return fmt.Errorf("spell %s has no effects", c.TemplateID)
		}
	default:
		return fmt.Errorf("card %s has unknown type %q", c.TemplateID, c.Kind)
	}
	if c.Cost < 0 {
		return fmt.Errorf("card %s has negative cost %d", c.TemplateID, c.Cost)
	}
	if _, err := ParseFaction(string(c.Faction)); err != nil {
		return fmt.Errorf("card %s: %w", c.TemplateID, err)
	}
	for _, k := range c.Keywords {
		if !knownKeywords[k] {
			return fmt.Errorf("card %s has unknown keyword %q", c.TemplateID, k)
		}
	}
	for i, spec := range c.Effects {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("card %s effect %d: %w", c.TemplateID, i, err)
		}
	}
	return nil
}
