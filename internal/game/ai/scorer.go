// Package ai holds the deterministic scoring heuristics the engine uses to
// pick plays and attack targets. Everything here is a pure function of its
// inputs.
package ai

import "github.com/cardclash/battle-sim/internal/game/cards"

// Faction bonus weights.
const (
	EchoBonusPerGraveyardCard = 3.0
	FormationBonusPerAlly     = 4.0
	GuardBonus                = 4.0
	MageSpellBonus            = 3.0
	SpellCostWeight           = 1.5
)

// State is the read-only view of a game the scorer needs.
type State interface {
	PlayerTactics(playerID string) cards.Tactics
	PlayerFaction(playerID string) cards.Faction
	GraveyardSize(playerID string) int
	FieldSize(playerID string) int
}

// Score rates playing card for playerID. Higher is better.
func Score(card cards.Card, state State, playerID string) float64 {
	return BaseScore(card, state.PlayerTactics(playerID)) + FactionBonus(card, state, playerID)
}

// BaseScore is the tactics-dependent part of Score.
func BaseScore(card cards.Card, tactics cards.Tactics) float64 {
	if card.IsSpell() {
		return float64(card.Cost) * SpellCostWeight
	}
	atk, hp, cost := float64(card.Attack), float64(card.Health), float64(card.Cost)
	switch tactics {
	case cards.Aggressive:
		return atk*2 + hp - cost
	case cards.Defensive:
		return hp*2 + atk - cost
	default:
		divisor := cost
		if divisor <= 0 {
			divisor = 1
		}
		return (atk + hp) / divisor
	}
}

// FactionBonus rewards cards that fit the player's faction.
func FactionBonus(card cards.Card, state State, playerID string) float64 {
	var bonus float64
	switch state.PlayerFaction(playerID) {
	case cards.Necromancer:
		if card.Has(cards.Echo) {
			bonus += EchoBonusPerGraveyardCard * float64(state.GraveyardSize(playerID))
		}
	case cards.Knight:
		if card.Has(cards.Formation) {
			bonus += FormationBonusPerAlly * float64(state.FieldSize(playerID))
		}
		if card.Has(cards.Guard) {
			bonus += GuardBonus
		}
	case cards.Mage:
		if card.IsSpell() {
			bonus += MageSpellBonus
		}
	}
	return bonus
}

// Choice is the outcome of BestPlay.
type Choice struct {
	HandIndex int
	Score     float64
}

// BestPlay returns the highest scoring affordable card in hand that playable
// accepts. Only positive scores are considered and ties keep the earliest
// hand index.
func BestPlay(hand []cards.Card, energy int, state State, playerID string, playable func(cards.Card) bool) (Choice, bool) {
	best := Choice{HandIndex: -1}
	for i, c := range hand {
		if c.Cost > energy {
			continue
		}
		s := Score(c, state, playerID)
		if s <= 0 {
			continue
		}
		if best.HandIndex >= 0 && s <= best.Score {
			continue
		}
		if playable != nil && !playable(c) {
			continue
		}
		best = Choice{HandIndex: i, Score: s}
	}
	return best, best.HandIndex >= 0
}
