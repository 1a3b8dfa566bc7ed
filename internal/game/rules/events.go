package rules

import (
	"encoding/json"
	"fmt"
)

// ActionType identifies the kind of a logged game action.
type ActionType string

const (
	ActionCardDraw          ActionType = "card_draw"
	ActionEnergyUpdate      ActionType = "energy_update"
	ActionEnergyRefill      ActionType = "energy_refill"
	ActionPhaseChange       ActionType = "phase_change"
	ActionCardPlay          ActionType = "card_play"
	ActionBattleStart       ActionType = "battle_start"
	ActionCardAttack        ActionType = "card_attack"
	ActionCombatDamage      ActionType = "combat_damage"
	ActionEffectTrigger     ActionType = "effect_trigger"
	ActionCreatureDestroyed ActionType = "creature_destroyed"
	ActionEndStage          ActionType = "end_stage"
	ActionGameOver          ActionType = "game_over"
)

// Target kinds used by attack, damage and effect payloads.
const (
	TargetCreature = "creature"
	TargetPlayer   = "player"
	TargetCard     = "card"
)

// Payload is the type-specific data carried by a logged action.
type Payload interface {
	ActionType() ActionType
}

// CardDrawData records a draw attempt. Exactly one of the outcome flags is
// set when the draw did not put a card into the hand.
type CardDrawData struct {
	InstanceID    string `json:"instanceId,omitempty"`
	TemplateID    string `json:"templateId,omitempty"`
	Name          string `json:"name,omitempty"`
	Fatigue       bool   `json:"fatigue,omitempty"`
	FatigueDamage int    `json:"fatigueDamage,omitempty"`
	Burned        bool   `json:"burned,omitempty"`
	DeckRemaining int    `json:"deckRemaining"`
	HandSize      int    `json:"handSize"`
}

func (CardDrawData) ActionType() ActionType { return ActionCardDraw }

type EnergyUpdateData struct {
	Previous  int `json:"previous"`
	MaxEnergy int `json:"maxEnergy"`
}

func (EnergyUpdateData) ActionType() ActionType { return ActionEnergyUpdate }

type EnergyRefillData struct {
	Energy    int `json:"energy"`
	MaxEnergy int `json:"maxEnergy"`
}

func (EnergyRefillData) ActionType() ActionType { return ActionEnergyRefill }

// PhaseChangeData announces a transition. Turn and Player describe the
// state after the transition.
type PhaseChangeData struct {
	From   Phase  `json:"from"`
	To     Phase  `json:"to"`
	Turn   int    `json:"turn"`
	Player string `json:"player"`
}

func (PhaseChangeData) ActionType() ActionType { return ActionPhaseChange }

// CardPlayData records a card leaving the hand. Position is -1 for spells.
type CardPlayData struct {
	InstanceID string  `json:"instanceId"`
	TemplateID string  `json:"templateId"`
	Name       string  `json:"name"`
	CardType   string  `json:"cardType"`
	Cost       int     `json:"cost"`
	Position   int     `json:"position"`
	EnergyLeft int     `json:"energyLeft"`
	Score      float64 `json:"score"`
}

func (CardPlayData) ActionType() ActionType { return ActionCardPlay }

type BattleStartData struct {
	Attackers []string `json:"attackers"`
}

func (BattleStartData) ActionType() ActionType { return ActionBattleStart }

type CardAttackData struct {
	AttackerID   string `json:"attackerId"`
	AttackerName string `json:"attackerName"`
	TargetID     string `json:"targetId"`
	TargetKind   string `json:"targetKind"`
	Attack       int    `json:"attack"`
}

func (CardAttackData) ActionType() ActionType { return ActionCardAttack }

// CombatDamageData records one side of a combat exchange. Remaining is the
// target's health or life after the hit.
type CombatDamageData struct {
	SourceID   string `json:"sourceId"`
	TargetID   string `json:"targetId"`
	TargetKind string `json:"targetKind"`
	Amount     int    `json:"amount"`
	Remaining  int    `json:"remaining"`
	Lifesteal  int    `json:"lifesteal,omitempty"`
	Retaliated bool   `json:"retaliated,omitempty"`
}

func (CombatDamageData) ActionType() ActionType { return ActionCombatDamage }

// EffectTriggerData records one discrete application of an effect.
type EffectTriggerData struct {
	EffectType string `json:"effectType"`
	Trigger    string `json:"trigger"`
	SourceID   string `json:"sourceId"`
	SourceName string `json:"sourceName"`
	TargetID   string `json:"targetId"`
	TargetKind string `json:"targetKind"`
	Value      int    `json:"value"`
	Result     int    `json:"result"`
	ChainDepth int    `json:"chainDepth,omitempty"`
}

func (EffectTriggerData) ActionType() ActionType { return ActionEffectTrigger }

type CreatureDestroyedData struct {
	InstanceID string `json:"instanceId"`
	TemplateID string `json:"templateId"`
	Name       string `json:"name"`
	Owner      string `json:"owner"`
	Position   int    `json:"position"`
	Cause      string `json:"cause"`
	SourceID   string `json:"sourceId,omitempty"`
}

func (CreatureDestroyedData) ActionType() ActionType { return ActionCreatureDestroyed }

// EndStageData announces an end phase stage before it runs.
type EndStageData struct {
	Stage EndStage `json:"stage"`
}

func (EndStageData) ActionType() ActionType { return ActionEndStage }

type GameOverData struct {
	Winner     string         `json:"winner,omitempty"`
	Reason     string         `json:"reason"`
	TotalTurns int            `json:"totalTurns"`
	FinalLife  map[string]int `json:"finalLife"`
}

func (GameOverData) ActionType() ActionType { return ActionGameOver }

// DecodePayload unmarshals raw into the payload struct registered for t.
func DecodePayload(t ActionType, raw []byte) (Payload, error) {
	var p Payload
	switch t {
	case ActionCardDraw:
		p = &CardDrawData{}
	case ActionEnergyUpdate:
		p = &EnergyUpdateData{}
	case ActionEnergyRefill:
		p = &EnergyRefillData{}
	case ActionPhaseChange:
		p = &PhaseChangeData{}
	case ActionCardPlay:
		p = &CardPlayData{}
	case ActionBattleStart:
		p = &BattleStartData{}
	case ActionCardAttack:
		p = &CardAttackData{}
	case ActionCombatDamage:
		p = &CombatDamageData{}
	case ActionEffectTrigger:
		p = &EffectTriggerData{}
	case ActionCreatureDestroyed:
		p = &CreatureDestroyedData{}
	case ActionEndStage:
		p = &EndStageData{}
	case ActionGameOver:
		p = &GameOverData{}
	default:
		return nil, fmt.Errorf("unknown action type %q", t)
	}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", t, err)
		}
	}
	return deref(p), nil
}

// deref returns the value form so decoded payloads compare equal to the
// ones the engine logged.
func deref(p Payload) Payload {
	switch v := p.(type) {
	case *CardDrawData:
		return *v
	case *EnergyUpdateData:
		return *v
	case *EnergyRefillData:
		return *v
	case *PhaseChangeData:
		return *v
	case *CardPlayData:
		return *v
	case *BattleStartData:
		return *v
	case *CardAttackData:
		return *v
	case *CombatDamageData:
		return *v
	case *EffectTriggerData:
		return *v
	case *CreatureDestroyedData:
		return *v
	case *EndStageData:
		return *v
	case *GameOverData:
		return *v
	}
	return p
}
