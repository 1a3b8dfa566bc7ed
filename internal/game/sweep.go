package game

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cardclash/battle-sim/internal/game/cards"
	"github.com/cardclash/battle-sim/internal/game/effects"
	"github.com/cardclash/battle-sim/internal/game/rules"
)

// maxSweepRounds bounds death trigger cascades.
const maxSweepRounds = 64

type pendingDeath struct {
	owner string
	card  cards.FieldCard
}

// EvaluatePendingDeaths removes every creature at or below zero health,
// logging one creature_destroyed per removal in (position, owner) order,
// then resolves the on_death and on_ally_death triggers those removals
// caused. It repeats until no dead creature remains.
func (e *Engine) EvaluatePendingDeaths(state *GameState, cause, sourceID string) error {
	for round := 0; ; round++ {
		dead := collectDead(state)
		if len(dead) == 0 {
			return nil
		}
		if round >= maxSweepRounds {
			return fmt.Errorf("%w: death sweep did not settle after %d rounds", ErrInvariantViolation, round)
		}

		for _, d := range dead {
			owner, idx, ok := state.findField(d.card.InstanceID)
			if !ok {
				return fmt.Errorf("%w: dead creature %s vanished before removal", ErrInvariantViolation, d.card.InstanceID)
			}
			if err := state.commit(Patch{Kind: PatchFieldCard, PlayerID: owner, Field: &FieldChange{Op: FieldRemove, Index: idx}}); err != nil {
				return err
			}
			if err := e.recomputeAuras(state); err != nil {
				return err
			}
			e.logAction(state, owner, rules.CreatureDestroyedData{
				InstanceID: d.card.InstanceID,
				TemplateID: d.card.TemplateID,
				Name:       d.card.Name,
				Owner:      owner,
				Position:   d.card.Position,
				Cause:      cause,
				SourceID:   sourceID,
			})
		}

		// Once a player is out of life no further triggers resolve; the
		// remaining rounds only clear the field.
		queue := rules.NewTriggerQueue()
		for _, d := range dead {
			if state.defeated() {
				break
			}
			if !d.card.IsSilenced {
				queue.PushAll(d.card.ToCard(), d.owner, effects.OnDeath, cause)
			}
			for _, ally := range state.Players[d.owner].Field {
				if ally.IsSilenced || ally.IsDead() {
					continue
				}
				queue.PushAll(ally.ToCard(), d.owner, effects.OnAllyDeath, cause)
			}
		}
		if queue.Len() > 0 {
			e.logger.Debug("resolving death triggers",
				zap.String("game_id", state.GameID),
				zap.Int("round", round),
				zap.Int("triggers", queue.Len()),
			)
		}
		for !queue.IsEmpty() {
			if state.defeated() {
				e.logger.Debug("dropping death triggers after lethal damage",
					zap.String("game_id", state.GameID),
					zap.Int("dropped", queue.Len()),
				)
				break
			}
			t, _ := queue.Pop()
			if err := e.ExecuteCardEffect(state, t.Spec, t.Source, t.OwnerID); err != nil {
				return err
			}
		}
		cause = "death_trigger"
		sourceID = ""
	}
}

// collectDead returns the dead creatures ordered by position, then owner.
func collectDead(s *GameState) []pendingDeath {
	var dead []pendingDeath
	for _, pid := range s.PlayerOrder {
		for _, fc := range s.Players[pid].Field {
			if fc.IsDead() {
				dead = append(dead, pendingDeath{owner: pid, card: fc})
			}
		}
	}
	sort.SliceStable(dead, func(i, j int) bool {
		if dead[i].card.Position != dead[j].card.Position {
			return dead[i].card.Position < dead[j].card.Position
		}
		return s.ownerRank(dead[i].owner) < s.ownerRank(dead[j].owner)
	})
	return dead
}

// AssertNoLingeringDeadCreatures fails with ErrInvariantViolation when a
// creature at or below zero health sits on a field without a matching
// creature_destroyed entry.
func AssertNoLingeringDeadCreatures(state *GameState) error {
	destroyed := make(map[string]bool)
	for _, a := range state.ActionLog {
		if d, ok := a.Data.(rules.CreatureDestroyedData); ok {
			destroyed[d.InstanceID] = true
		}
	}
	for _, pid := range state.PlayerOrder {
		p, ok := state.Players[pid]
		if !ok {
			continue
		}
		for _, fc := range p.Field {
			if fc.IsDead() && !destroyed[fc.InstanceID] {
				return fmt.Errorf("%w: %s (%s) of %s at position %d has %d health and no destruction record",
					ErrInvariantViolation, fc.Name, fc.InstanceID, pid, fc.Position, fc.CurrentHealth)
			}
		}
	}
	return nil
}
