package game

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cardclash/battle-sim/internal/game/cards"
	"github.com/cardclash/battle-sim/internal/game/effects"
	"github.com/cardclash/battle-sim/internal/game/rules"
	"github.com/cardclash/battle-sim/internal/game/status"
	"github.com/cardclash/battle-sim/internal/game/targeting"
)

// ExecuteCardEffect resolves spec on behalf of source and actingPlayerID,
// following its chain. It mutates state in place and does not run the
// death sweep. An effect without targets is a silent no-op.
func (e *Engine) ExecuteCardEffect(state *GameState, spec effects.Spec, source cards.Card, actingPlayerID string) error {
	if state == nil {
		return fmt.Errorf("execute effect: nil state")
	}
	if _, err := state.Player(actingPlayerID); err != nil {
		return fmt.Errorf("execute %s effect of %s: %w", spec.Type, source.Name, err)
	}
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("execute %s effect of %s: %w", spec.Type, source.Name, err)
	}
	return e.resolve(state, spec, source, actingPlayerID, 0, make(map[string]bool))
}

// resolve applies one chain link. excluded accumulates every creature the
// chain has touched so no link hits the same instance twice.
func (e *Engine) resolve(s *GameState, spec effects.Spec, source cards.Card, pid string, depth int, excluded map[string]bool) error {
	if spec.Type == effects.DeckSearch {
		return e.deckSearch(s, spec, source, pid)
	}
	if spec.TargetsPlayer() {
		target := pid
		if spec.Scope == effects.EnemyPlayer {
			target = s.OpponentOf(pid)
		}
		return e.applyToPlayer(s, spec, source, pid, target, depth)
	}
	if !spec.TargetsCreatures() {
		return fmt.Errorf("%w: scope %q", ErrInvalidEffect, spec.Scope)
	}

	targets, err := e.pickTargets(s, spec, e.creatureCandidates(s, spec, source, pid, excluded))
	if err != nil || len(targets) == 0 {
		return err
	}
	for _, id := range targets {
		excluded[id] = true
	}

	var follow int
	for _, id := range targets {
		alive, applied, err := e.applyToCreature(s, spec, source, pid, id, depth)
		if err != nil {
			return err
		}
		if applied && spec.Chain != nil && chainHolds(spec.Chain.Condition, alive) {
			follow++
		}
	}
	if follow == 0 {
		return nil
	}
	if depth+1 > e.rules.MaxChainDepth {
		e.logger.Warn("chain depth limit reached",
			zap.String("game_id", s.GameID),
			zap.String("source", source.Name),
			zap.Int("depth", depth),
		)
		return nil
	}
	link := spec.Link()
	for i := 0; i < follow; i++ {
		if err := e.resolve(s, link, source, pid, depth+1, excluded); err != nil {
			return err
		}
	}
	return nil
}

func chainHolds(cond effects.ChainCondition, targetAlive bool) bool {
	switch cond {
	case effects.ChainOnKill:
		return !targetAlive
	case effects.ChainOnSurvive:
		return targetAlive
	case effects.ChainAlways:
		return true
	}
	return false
}

// creatureCandidates returns the living creatures in the spec's scope that
// pass its filters, in field order.
func (e *Engine) creatureCandidates(s *GameState, spec effects.Spec, source cards.Card, pid string, excluded map[string]bool) []cards.FieldCard {
	var pool []cards.FieldCard
	switch spec.Scope {
	case effects.Self:
		if owner, idx, ok := s.findField(source.InstanceID); ok && owner == pid {
			pool = append(pool, s.Players[owner].Field[idx])
		}
	case effects.EnemyCreatures:
		pool = append(pool, s.Players[s.OpponentOf(pid)].Field...)
	case effects.AllyCreatures:
		pool = append(pool, s.Players[pid].Field...)
	case effects.AllCreatures:
		for _, id := range s.PlayerOrder {
			pool = append(pool, s.Players[id].Field...)
		}
	}
	live := pool[:0]
	for _, fc := range pool {
		if fc.IsDead() || excluded[fc.InstanceID] {
			continue
		}
		live = append(live, fc)
	}
	return targeting.Filter(e.evaluator, live, spec.Filters)
}

// pickTargets orders candidates by the spec's pick policy and takes Count of
// them (all when Count is zero).
func (e *Engine) pickTargets(s *GameState, spec effects.Spec, candidates []cards.FieldCard) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	count := spec.Count
	if count <= 0 || count > len(candidates) {
		count = len(candidates)
	}
	switch spec.PickOrDefault() {
	case effects.PickLowestHealth:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].CurrentHealth < candidates[j].CurrentHealth
		})
	case effects.PickHighestAttack:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].EffectiveAttack() > candidates[j].EffectiveAttack()
		})
	case effects.PickRandom:
		if count < len(candidates) {
			remaining := append([]cards.FieldCard(nil), candidates...)
			picked := make([]string, 0, count)
			for len(picked) < count {
				idx, err := e.choose(s, len(remaining))
				if err != nil {
					return nil, err
				}
				picked = append(picked, remaining[idx].InstanceID)
				remaining = append(remaining[:idx], remaining[idx+1:]...)
			}
			return picked, nil
		}
	}
	ids := make([]string, count)
	for i := range ids {
		ids[i] = candidates[i].InstanceID
	}
	return ids, nil
}

// hasTargets reports whether resolving spec now would apply at least once.
func (e *Engine) hasTargets(s *GameState, spec effects.Spec, source cards.Card, pid string) bool {
	if spec.Validate() != nil {
		return false
	}
	switch {
	case spec.Type == effects.DeckSearch:
		p := s.Players[pid]
		return len(p.Hand) < e.rules.MaxHand && len(targeting.Filter(e.evaluator, p.Deck, spec.Filters)) > 0
	case spec.TargetsPlayer():
		return true
	case spec.TargetsCreatures():
		return len(e.creatureCandidates(s, spec, source, pid, nil)) > 0
	}
	return false
}

// applyToCreature applies one effect application and logs it. It reports
// whether the target is still alive afterwards.
func (e *Engine) applyToCreature(s *GameState, spec effects.Spec, source cards.Card, pid, instanceID string, depth int) (alive, applied bool, err error) {
	owner, idx, ok := s.findField(instanceID)
	if !ok {
		return false, false, nil
	}
	v := spec.Value
	temporary := spec.Duration.ExpiresAtCleanup()
	var mutate func(f *cards.FieldCard)
	switch spec.Type {
	case effects.Damage:
		mutate = func(f *cards.FieldCard) { f.CurrentHealth -= v }
	case effects.Heal:
		mutate = func(f *cards.FieldCard) {
			f.CurrentHealth += v
			if ceiling := f.MaxHealth(); f.CurrentHealth > ceiling {
				f.CurrentHealth = ceiling
			}
		}
	case effects.BuffAttack:
		mutate = func(f *cards.FieldCard) {
			if temporary {
				f.AttackModifier += v
			} else {
				f.BuffAttack += v
			}
		}
	case effects.BuffHealth:
		mutate = func(f *cards.FieldCard) {
			if temporary {
				f.HealthModifier += v
			} else {
				f.BuffHealth += v
			}
			f.CurrentHealth += v
		}
	case effects.Brand:
		mutate = func(f *cards.FieldCard) {
			f.StatusEffects = f.StatusEffects.Add(status.New(status.Branded, 1, 0))
		}
	case effects.Poison:
		ticks := 0
		if temporary {
			ticks = 1
		}
		mutate = func(f *cards.FieldCard) {
			f.StatusEffects = f.StatusEffects.Add(status.New(status.Poison, v, ticks))
		}
	case effects.Silence:
		mutate = func(f *cards.FieldCard) {
			f.IsSilenced = true
			f.IsStealthed = false
			f.StatusEffects = f.StatusEffects.Add(status.New(status.Silence, 1, v))
		}
	case effects.Destroy:
		mutate = func(f *cards.FieldCard) { f.CurrentHealth = 0 }
	default:
		return false, false, fmt.Errorf("%w: %s cannot target creatures", ErrInvalidEffect, spec.Type)
	}
	if err := e.updateField(s, owner, idx, mutate); err != nil {
		return false, false, err
	}
	if spec.Type == effects.Silence {
		if err := e.recomputeAuras(s); err != nil {
			return false, false, err
		}
		owner, idx, _ = s.findField(instanceID)
	}
	after := s.Players[owner].Field[idx]
	e.logAction(s, pid, rules.EffectTriggerData{
		EffectType: string(spec.Type),
		Trigger:    string(spec.TriggerOrDefault()),
		SourceID:   source.InstanceID,
		SourceName: source.Name,
		TargetID:   instanceID,
		TargetKind: rules.TargetCreature,
		Value:      v,
		Result:     after.CurrentHealth,
		ChainDepth: depth,
	})
	return !after.IsDead(), true, nil
}

func (e *Engine) applyToPlayer(s *GameState, spec effects.Spec, source cards.Card, pid, target string, depth int) error {
	v := spec.Value
	data := rules.EffectTriggerData{
		EffectType: string(spec.Type),
		Trigger:    string(spec.TriggerOrDefault()),
		SourceID:   source.InstanceID,
		SourceName: source.Name,
		TargetID:   target,
		TargetKind: rules.TargetPlayer,
		Value:      v,
		ChainDepth: depth,
	}
	p := s.Players[target]
	switch spec.Type {
	case effects.Damage:
		if err := e.updateStats(s, target, func(st *PlayerStats) { st.Life -= v }); err != nil {
			return err
		}
		data.Result = p.Life
	case effects.Heal:
		if _, err := e.healPlayer(s, target, v); err != nil {
			return err
		}
		data.Result = p.Life
	case effects.GainEnergy:
		if err := e.updateStats(s, target, func(st *PlayerStats) { st.Energy += v }); err != nil {
			return err
		}
		data.Result = p.Energy
	case effects.Draw:
		draws := v
		if draws <= 0 {
			draws = 1
		}
		data.Result = len(p.Hand)
		e.logAction(s, pid, data)
		for i := 0; i < draws; i++ {
			if err := e.drawCard(s, target); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %s cannot target players", ErrInvalidEffect, spec.Type)
	}
	e.logAction(s, pid, data)
	return nil
}

// deckSearch moves matching cards from the deck to the hand, chosen without
// replacement through the engine's chooser.
func (e *Engine) deckSearch(s *GameState, spec effects.Spec, source cards.Card, pid string) error {
	p := s.Players[pid]
	n := spec.Count
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		if len(p.Hand) >= e.rules.MaxHand {
			return nil
		}
		matches := targeting.Filter(e.evaluator, p.Deck, spec.Filters)
		if len(matches) == 0 {
			return nil
		}
		k, err := e.choose(s, len(matches))
		if err != nil {
			return err
		}
		found := matches[k]
		deckIdx := -1
		for j, c := range p.Deck {
			if c.InstanceID == found.InstanceID {
				deckIdx = j
				break
			}
		}
		if err := e.moveCard(s, pid, ZoneDeck, deckIdx, ZoneHand); err != nil {
			return err
		}
		e.logAction(s, pid, rules.EffectTriggerData{
			EffectType: string(spec.Type),
			Trigger:    string(spec.TriggerOrDefault()),
			SourceID:   source.InstanceID,
			SourceName: source.Name,
			TargetID:   found.InstanceID,
			TargetKind: rules.TargetCard,
			Value:      1,
			Result:     len(p.Hand),
		})
	}
	return nil
}
