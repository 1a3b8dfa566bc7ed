package game

import (
	"github.com/cardclash/battle-sim/internal/game/cards"
	"github.com/cardclash/battle-sim/internal/game/effects"
)

type auraBonus struct {
	attack int
	health int
}

// recomputeAuras rebuilds every creature's passive modifiers from the static
// effects currently on the field. A change in passive health moves current
// health by the same amount, which can kill a creature whose aura source
// left; callers sweep afterwards.
func (e *Engine) recomputeAuras(s *GameState) error {
	want := make(map[string]auraBonus)
	for _, pid := range s.PlayerOrder {
		for _, src := range s.Players[pid].Field {
			if src.IsSilenced || src.IsDead() {
				continue
			}
			for _, spec := range src.EffectsFor(effects.Static) {
				if !spec.IsAura() {
					continue
				}
				var excluded map[string]bool
				if spec.Scope != effects.Self {
					excluded = map[string]bool{src.InstanceID: true}
				}
				for _, t := range e.creatureCandidates(s, spec, src.Card, pid, excluded) {
					b := want[t.InstanceID]
					if spec.Type == effects.BuffAttack {
						b.attack += spec.Value
					} else {
						b.health += spec.Value
					}
					want[t.InstanceID] = b
				}
			}
		}
	}

	for _, pid := range s.PlayerOrder {
		for idx, fc := range s.Players[pid].Field {
			b := want[fc.InstanceID]
			if fc.PassiveAttackModifier == b.attack && fc.PassiveHealthModifier == b.health {
				continue
			}
			if err := e.updateField(s, pid, idx, func(f *cards.FieldCard) {
				f.CurrentHealth += b.health - f.PassiveHealthModifier
				f.PassiveAttackModifier = b.attack
				f.PassiveHealthModifier = b.health
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
