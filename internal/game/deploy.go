package game

import (
	"go.uber.org/zap"

	"github.com/cardclash/battle-sim/internal/game/ai"
	"github.com/cardclash/battle-sim/internal/game/cards"
	"github.com/cardclash/battle-sim/internal/game/effects"
	"github.com/cardclash/battle-sim/internal/game/rules"
)

// runDeploy plays the AI's best beneficial card until none is left, then
// moves on to battle. Zero-cost cards stay playable with no energy left.
func (e *Engine) runDeploy(s *GameState) error {
	pid := s.CurrentPlayer
	for s.Result == nil {
		p := s.Players[pid]
		choice, ok := ai.BestPlay(p.Hand, p.Energy, s, pid, func(c cards.Card) bool {
			return e.playable(s, pid, c)
		})
		if !ok {
			break
		}
		if err := e.playCard(s, pid, choice); err != nil {
			return err
		}
	}
	if s.Result != nil {
		return nil
	}
	return e.advancePhase(s)
}

// playable reports whether playing c now would do anything: a creature
// needs a free slot and a spell needs an on_play effect with a target.
func (e *Engine) playable(s *GameState, playerID string, c cards.Card) bool {
	if c.IsCreature() {
		return len(s.Players[playerID].Field) < e.rules.MaxField
	}
	for _, spec := range c.EffectsFor(effects.OnPlay) {
		if e.hasTargets(s, spec, c, playerID) {
			return true
		}
	}
	return false
}

func (e *Engine) playCard(s *GameState, playerID string, choice ai.Choice) error {
	p := s.Players[playerID]
	card := p.Hand[choice.HandIndex].Clone()
	if err := e.updateStats(s, playerID, func(st *PlayerStats) { st.Energy -= card.Cost }); err != nil {
		return err
	}

	position := -1
	if card.IsCreature() {
		position = len(p.Field)
		if err := e.moveCard(s, playerID, ZoneHand, choice.HandIndex, ZoneField); err != nil {
			return err
		}
		if err := e.placeCreature(s, playerID, cards.NewFieldCard(card, position, s.TurnNumber)); err != nil {
			return err
		}
		if err := e.recomputeAuras(s); err != nil {
			return err
		}
	} else {
		if err := e.moveCard(s, playerID, ZoneHand, choice.HandIndex, ZoneGraveyard); err != nil {
			return err
		}
	}
	e.logAction(s, playerID, rules.CardPlayData{
		InstanceID: card.InstanceID,
		TemplateID: card.TemplateID,
		Name:       card.Name,
		CardType:   string(card.Kind),
		Cost:       card.Cost,
		Position:   position,
		EnergyLeft: p.Energy,
		Score:      choice.Score,
	})
	e.logger.Debug("card played",
		zap.String("game_id", s.GameID),
		zap.String("player_id", playerID),
		zap.String("card", card.Name),
		zap.Float64("score", choice.Score),
	)

	for _, spec := range card.EffectsFor(effects.OnPlay) {
		if err := e.ExecuteCardEffect(s, spec, card, playerID); err != nil {
			return err
		}
		if err := e.EvaluatePendingDeaths(s, "card_play", card.InstanceID); err != nil {
			return err
		}
		if over, err := e.checkGameOver(s); over || err != nil {
			return err
		}
	}
	return nil
}
