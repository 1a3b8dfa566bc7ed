package game

import (
	"github.com/cardclash/battle-sim/internal/game/cards"
	"github.com/cardclash/battle-sim/internal/game/effects"
	"github.com/cardclash/battle-sim/internal/game/rules"
	"github.com/cardclash/battle-sim/internal/game/status"
)

func (e *Engine) runDraw(s *GameState) error {
	if err := e.drawCard(s, s.CurrentPlayer); err != nil {
		return err
	}
	if over, err := e.checkGameOver(s); over || err != nil {
		return err
	}
	return e.advancePhase(s)
}

// drawCard draws the top card of playerID's deck and logs card_draw. An
// empty deck applies fatigue and a full hand burns the card.
func (e *Engine) drawCard(s *GameState, playerID string) error {
	p, err := s.Player(playerID)
	if err != nil {
		return err
	}
	if len(p.Deck) == 0 {
		fatigue := p.Fatigue + 1
		damage := fatigue * e.rules.FatigueDamage
		if err := e.updateStats(s, playerID, func(st *PlayerStats) {
			st.Fatigue = fatigue
			st.Life -= damage
		}); err != nil {
			return err
		}
		e.logAction(s, playerID, rules.CardDrawData{
			Fatigue:       true,
			FatigueDamage: damage,
			HandSize:      len(p.Hand),
		})
		return nil
	}

	top := p.Deck[0]
	data := rules.CardDrawData{InstanceID: top.InstanceID, TemplateID: top.TemplateID, Name: top.Name}
	to := ZoneHand
	if len(p.Hand) >= e.rules.MaxHand {
		to = ZoneGraveyard
		data.Burned = true
	}
	if err := e.moveCard(s, playerID, ZoneDeck, 0, to); err != nil {
		return err
	}
	data.DeckRemaining = len(p.Deck)
	data.HandSize = len(p.Hand)
	e.logAction(s, playerID, data)
	return nil
}

func (e *Engine) runEnergy(s *GameState) error {
	pid := s.CurrentPlayer
	p, err := s.Player(pid)
	if err != nil {
		return err
	}
	previous := p.MaxEnergy
	raised := previous + 1
	if raised > e.rules.EnergyCap {
		raised = e.rules.EnergyCap
	}
	if raised > previous {
		if err := e.updateStats(s, pid, func(st *PlayerStats) { st.MaxEnergy = raised }); err != nil {
			return err
		}
		e.logAction(s, pid, rules.EnergyUpdateData{Previous: previous, MaxEnergy: raised})
	}
	if err := e.updateStats(s, pid, func(st *PlayerStats) { st.Energy = st.MaxEnergy }); err != nil {
		return err
	}
	e.logAction(s, pid, rules.EnergyRefillData{Energy: p.Energy, MaxEnergy: p.MaxEnergy})
	return e.advancePhase(s)
}

// runEnd runs the end stages in order and passes the turn.
func (e *Engine) runEnd(s *GameState) error {
	stages := map[rules.EndStage]func(*GameState) error{
		rules.StageStatusTick:     e.statusTick,
		rules.StageCleanup:        e.cleanup,
		rules.StageTurnEndTrigger: e.turnEndTriggers,
	}
	for _, stage := range rules.EndStages {
		e.logAction(s, s.CurrentPlayer, rules.EndStageData{Stage: stage})
		if err := stages[stage](s); err != nil {
			return err
		}
		if over, err := e.checkGameOver(s); over || err != nil {
			return err
		}
	}
	return e.passTurn(s)
}

// statusTick resolves poison and counts status durations down on the
// active player's creatures.
func (e *Engine) statusTick(s *GameState) error {
	pid := s.CurrentPlayer
	for _, id := range fieldIDs(s.Players[pid]) {
		_, idx, ok := s.findField(id)
		if !ok {
			continue
		}
		fc := s.Players[pid].Field[idx]
		if poison, ok := fc.StatusEffects.Get(status.Poison); ok && !fc.IsDead() {
			if err := e.updateField(s, pid, idx, func(f *cards.FieldCard) { f.CurrentHealth -= poison.Stacks }); err != nil {
				return err
			}
			after := s.Players[pid].Field[idx]
			e.logAction(s, pid, rules.EffectTriggerData{
				EffectType: string(effects.Poison),
				Trigger:    string(rules.StageStatusTick),
				SourceID:   after.InstanceID,
				SourceName: after.Name,
				TargetID:   after.InstanceID,
				TargetKind: rules.TargetCreature,
				Value:      poison.Stacks,
				Result:     after.CurrentHealth,
			})
		}
		if len(s.Players[pid].Field[idx].StatusEffects) == 0 {
			continue
		}
		if err := e.updateField(s, pid, idx, func(f *cards.FieldCard) {
			var expired []status.Effect
			f.StatusEffects, expired = f.StatusEffects.Tick()
			for _, ex := range expired {
				if ex.Type == status.Silence {
					f.IsSilenced = false
				}
			}
		}); err != nil {
			return err
		}
	}
	if err := e.recomputeAuras(s); err != nil {
		return err
	}
	return e.EvaluatePendingDeaths(s, "status_tick", "")
}

// cleanup clears per-turn state on both fields.
func (e *Engine) cleanup(s *GameState) error {
	for _, pid := range s.PlayerOrder {
		for idx, fc := range s.Players[pid].Field {
			if !fc.HasAttacked && fc.AttackModifier == 0 && fc.HealthModifier == 0 {
				continue
			}
			if err := e.updateField(s, pid, idx, func(f *cards.FieldCard) {
				f.HasAttacked = false
				f.AttackModifier = 0
				f.HealthModifier = 0
				if ceiling := f.MaxHealth(); f.CurrentHealth > ceiling {
					f.CurrentHealth = ceiling
				}
			}); err != nil {
				return err
			}
		}
	}
	if len(s.PendingAttackers) > 0 {
		if err := e.setAttackQueue(s, nil); err != nil {
			return err
		}
	}
	return e.EvaluatePendingDeaths(s, "cleanup", "")
}

// turnEndTriggers fires turn_end effects of the active player's creatures
// in field order.
func (e *Engine) turnEndTriggers(s *GameState) error {
	pid := s.CurrentPlayer
	for _, id := range fieldIDs(s.Players[pid]) {
		owner, idx, ok := s.findField(id)
		if !ok || owner != pid {
			continue
		}
		fc := s.Players[pid].Field[idx]
		if fc.IsSilenced || fc.IsDead() {
			continue
		}
		for _, spec := range fc.EffectsFor(effects.TurnEnd) {
			if err := e.ExecuteCardEffect(s, spec, fc.Card, pid); err != nil {
				return err
			}
			if err := e.EvaluatePendingDeaths(s, "turn_end", fc.InstanceID); err != nil {
				return err
			}
			if over, err := e.checkGameOver(s); over || err != nil {
				return err
			}
		}
	}
	return nil
}

// passTurn hands the turn over, or ends the game at the turn limit.
func (e *Engine) passTurn(s *GameState) error {
	if s.TurnNumber >= e.rules.MaxTurns {
		p1, p2 := s.Players[s.PlayerOrder[0]], s.Players[s.PlayerOrder[1]]
		winner := ""
		switch {
		case p1.Life > p2.Life:
			winner = p1.ID
		case p2.Life > p1.Life:
			winner = p2.ID
		}
		return e.endGame(s, winner, ReasonTurnLimit)
	}
	return e.advancePhase(s)
}

func fieldIDs(p *PlayerState) []string {
	ids := make([]string, len(p.Field))
	for i, fc := range p.Field {
		ids[i] = fc.InstanceID
	}
	return ids
}
