package game

import (
	"github.com/cardclash/battle-sim/internal/game/ai"
	"github.com/cardclash/battle-sim/internal/game/cards"
	"github.com/cardclash/battle-sim/internal/game/effects"
	"github.com/cardclash/battle-sim/internal/game/rules"
)

// runBattle queues the active player's eligible attackers in field order.
func (e *Engine) runBattle(s *GameState) error {
	pid := s.CurrentPlayer
	var attackers []string
	for _, fc := range s.Players[pid].Field {
		if e.canAttack(s, fc) {
			attackers = append(attackers, fc.InstanceID)
		}
	}
	if err := e.setAttackQueue(s, attackers); err != nil {
		return err
	}
	if attackers == nil {
		attackers = []string{}
	}
	e.logAction(s, pid, rules.BattleStartData{Attackers: attackers})
	return e.advancePhase(s)
}

func (e *Engine) canAttack(s *GameState, fc cards.FieldCard) bool {
	if fc.IsDead() || fc.HasAttacked || fc.EffectiveAttack() <= 0 {
		return false
	}
	return fc.SummonTurn != s.TurnNumber || fc.Has(cards.Charge)
}

// runBattleAttack resolves the next queued attacker that can still attack.
// Once the queue is empty it moves on to the end phase.
func (e *Engine) runBattleAttack(s *GameState) error {
	pid := s.CurrentPlayer
	for len(s.PendingAttackers) > 0 {
		id := s.PendingAttackers[0]
		if err := e.setAttackQueue(s, s.PendingAttackers[1:]); err != nil {
			return err
		}
		owner, idx, ok := s.findField(id)
		if !ok || owner != pid || !e.canAttack(s, s.Players[pid].Field[idx]) {
			continue
		}
		return e.attack(s, pid, idx)
	}
	return e.advancePhase(s)
}

// legalAttackTargets lists what the attacker may hit: enemy guards when any
// are targetable, otherwise every non-stealthed enemy creature and the enemy
// player.
func (e *Engine) legalAttackTargets(s *GameState, playerID string) []ai.AttackTarget {
	enemy := s.Players[s.OpponentOf(playerID)]
	var guards, others []ai.AttackTarget
	for _, fc := range enemy.Field {
		if fc.IsDead() || fc.IsStealthed {
			continue
		}
		t := ai.AttackTarget{ID: fc.InstanceID, Attack: fc.EffectiveAttack(), Health: fc.CurrentHealth, Cost: fc.Cost}
		if fc.Has(cards.Guard) {
			guards = append(guards, t)
		}
		others = append(others, t)
	}
	if len(guards) > 0 {
		return guards
	}
	return append(others, ai.AttackTarget{ID: enemy.ID, IsPlayer: true, Life: enemy.Life})
}

func (e *Engine) attack(s *GameState, pid string, idx int) error {
	attacker := s.Players[pid].Field[idx]
	targets := e.legalAttackTargets(s, pid)
	choice := ai.ChooseAttackTarget(attacker, targets, s.Players[pid].Tactics)
	if choice < 0 {
		return nil
	}
	target := targets[choice]

	if err := e.updateField(s, pid, idx, func(f *cards.FieldCard) {
		f.HasAttacked = true
		f.IsStealthed = false
	}); err != nil {
		return err
	}
	kind := rules.TargetCreature
	if target.IsPlayer {
		kind = rules.TargetPlayer
	}
	e.logAction(s, pid, rules.CardAttackData{
		AttackerID:   attacker.InstanceID,
		AttackerName: attacker.Name,
		TargetID:     target.ID,
		TargetKind:   kind,
		Attack:       attacker.EffectiveAttack(),
	})

	if !attacker.IsSilenced {
		for _, spec := range attacker.EffectsFor(effects.OnAttack) {
			if err := e.ExecuteCardEffect(s, spec, attacker.Card, pid); err != nil {
				return err
			}
			if err := e.EvaluatePendingDeaths(s, "on_attack", attacker.InstanceID); err != nil {
				return err
			}
			if over, err := e.checkGameOver(s); over || err != nil {
				return err
			}
		}
	}

	owner, idx, ok := s.findField(attacker.InstanceID)
	if !ok || owner != pid {
		return nil
	}
	strike := e.strikeCreature
	if target.IsPlayer {
		strike = e.strikePlayer
	}
	if err := strike(s, pid, idx, target.ID); err != nil {
		return err
	}
	if err := e.EvaluatePendingDeaths(s, "combat", attacker.InstanceID); err != nil {
		return err
	}
	_, err := e.checkGameOver(s)
	return err
}

func (e *Engine) strikePlayer(s *GameState, pid string, idx int, enemyID string) error {
	attacker := s.Players[pid].Field[idx]
	damage := attacker.EffectiveAttack()
	if err := e.updateStats(s, enemyID, func(st *PlayerStats) { st.Life -= damage }); err != nil {
		return err
	}
	data := rules.CombatDamageData{
		SourceID:   attacker.InstanceID,
		TargetID:   enemyID,
		TargetKind: rules.TargetPlayer,
		Amount:     damage,
		Remaining:  s.Players[enemyID].Life,
	}
	if attacker.Has(cards.Lifesteal) && damage > 0 {
		healed, err := e.healPlayer(s, pid, damage)
		if err != nil {
			return err
		}
		data.Lifesteal = healed
	}
	e.logAction(s, pid, data)
	return nil
}

func (e *Engine) strikeCreature(s *GameState, pid string, idx int, defenderID string) error {
	enemy, didx, ok := s.findField(defenderID)
	if !ok || enemy == pid || s.Players[enemy].Field[didx].IsDead() {
		return nil
	}
	attacker := s.Players[pid].Field[idx]
	defender := s.Players[enemy].Field[didx]
	damage := attacker.EffectiveAttack()
	retaliation := defender.EffectiveAttack()

	if err := e.updateField(s, enemy, didx, func(f *cards.FieldCard) { f.CurrentHealth -= damage }); err != nil {
		return err
	}
	hit := rules.CombatDamageData{
		SourceID:   attacker.InstanceID,
		TargetID:   defender.InstanceID,
		TargetKind: rules.TargetCreature,
		Amount:     damage,
		Remaining:  s.Players[enemy].Field[didx].CurrentHealth,
	}
	if attacker.Has(cards.Lifesteal) && damage > 0 {
		healed, err := e.healPlayer(s, pid, damage)
		if err != nil {
			return err
		}
		hit.Lifesteal = healed
	}
	e.logAction(s, pid, hit)

	if err := e.updateField(s, pid, idx, func(f *cards.FieldCard) { f.CurrentHealth -= retaliation }); err != nil {
		return err
	}
	back := rules.CombatDamageData{
		SourceID:   defender.InstanceID,
		TargetID:   attacker.InstanceID,
		TargetKind: rules.TargetCreature,
		Amount:     retaliation,
		Remaining:  s.Players[pid].Field[idx].CurrentHealth,
		Retaliated: true,
	}
	if defender.Has(cards.Lifesteal) && retaliation > 0 {
		healed, err := e.healPlayer(s, enemy, retaliation)
		if err != nil {
			return err
		}
		back.Lifesteal = healed
	}
	e.logAction(s, enemy, back)
	return nil
}

// healPlayer restores life up to the starting life and returns the amount
// actually healed.
func (e *Engine) healPlayer(s *GameState, playerID string, amount int) (int, error) {
	p := s.Players[playerID]
	healed := amount
	if p.Life+healed > e.rules.StartingLife {
		healed = e.rules.StartingLife - p.Life
	}
	if healed <= 0 {
		return 0, nil
	}
	if err := e.updateStats(s, playerID, func(st *PlayerStats) { st.Life += healed }); err != nil {
		return 0, err
	}
	return healed, nil
}
