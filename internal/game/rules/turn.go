package rules

import "fmt"

// Phase is one stage of a turn.
type Phase string

const (
	PhaseDraw         Phase = "draw"
	PhaseEnergy       Phase = "energy"
	PhaseDeploy       Phase = "deploy"
	PhaseBattle       Phase = "battle"
	PhaseBattleAttack Phase = "battle_attack"
	PhaseEnd          Phase = "end"
	// PhaseGameOver is terminal and only reachable once a result is set.
	PhaseGameOver Phase = "game_over"
)

// turnSequence is the fixed cyclic order of a turn.
var turnSequence = []Phase{
	PhaseDraw,
	PhaseEnergy,
	PhaseDeploy,
	PhaseBattle,
	PhaseBattleAttack,
	PhaseEnd,
}

// Next returns the phase that follows p and whether moving there starts a
// new turn.
func (p Phase) Next() (Phase, bool, error) {
	for i, ph := range turnSequence {
		if ph != p {
			continue
		}
		if i == len(turnSequence)-1 {
			return turnSequence[0], true, nil
		}
		return turnSequence[i+1], false, nil
	}
	return "", false, fmt.Errorf("phase %q has no successor", p)
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	if p == PhaseGameOver {
		return true
	}
	for _, ph := range turnSequence {
		if ph == p {
			return true
		}
	}
	return false
}

// Sequence returns a copy of the cyclic phase order.
func Sequence() []Phase {
	out := make([]Phase, len(turnSequence))
	copy(out, turnSequence)
	return out
}

// EndStage is a sub-step of the end phase.
type EndStage string

const (
	StageStatusTick     EndStage = "status_tick"
	StageCleanup        EndStage = "cleanup"
	StageTurnEndTrigger EndStage = "turn_end_trigger"
)

// EndStages is the order the end phase runs its stages in. Status
// resolution always precedes trigger firing.
var EndStages = []EndStage{StageStatusTick, StageCleanup, StageTurnEndTrigger}
