package ai

import "github.com/cardclash/battle-sim/internal/game/cards"

// AttackTarget is one legal target offered to ChooseAttackTarget. Player
// targets only carry Life.
type AttackTarget struct {
	ID       string
	IsPlayer bool
	Attack   int
	Health   int
	Cost     int
	Life     int
}

const lethalScore = 1000.0

// ChooseAttackTarget returns the index of the preferred target for attacker,
// or -1 when targets is empty. Ties keep the earliest candidate.
func ChooseAttackTarget(attacker cards.FieldCard, targets []AttackTarget, tactics cards.Tactics) int {
	best, bestScore := -1, 0.0
	for i, t := range targets {
		s := targetScore(attacker, t, tactics)
		if best < 0 || s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

func targetScore(attacker cards.FieldCard, t AttackTarget, tactics cards.Tactics) float64 {
	atk := attacker.EffectiveAttack()
	if t.IsPlayer {
		if atk >= t.Life {
			return lethalScore
		}
		switch tactics {
		case cards.Aggressive:
			return 100 + float64(atk)
		case cards.Defensive:
			return float64(atk) / 2
		default:
			return float64(atk)
		}
	}

	kills := atk >= t.Health
	survives := attacker.CurrentHealth > t.Attack
	switch tactics {
	case cards.Aggressive:
		if kills && survives {
			return float64(t.Attack)
		}
		return 0
	case cards.Defensive:
		s := float64(t.Attack)
		if kills {
			s += 10
		}
		if survives {
			s += 5
		}
		return s
	default:
		switch {
		case kills && survives:
			return 20 + float64(t.Cost+t.Attack)
		case kills:
			return 8 + float64(t.Attack)
		}
		return 1
	}
}
