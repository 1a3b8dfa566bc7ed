package game

import (
	"fmt"

	"github.com/cardclash/battle-sim/internal/game/cards"
	"github.com/cardclash/battle-sim/internal/game/rules"
)

// PatchKind identifies the type of a journal entry.
type PatchKind string

const (
	// PatchPlayerStats replaces a player's life, energy and fatigue.
	PatchPlayerStats PatchKind = "player_stats"
	// PatchMoveCard moves a card between deck, hand and graveyard.
	PatchMoveCard PatchKind = "move_card"
	// PatchFieldCard writes or removes a field slot.
	PatchFieldCard PatchKind = "field_card"
	// PatchPhase sets turn, phase and active player.
	PatchPhase PatchKind = "phase"
	// PatchResult records the game result.
	PatchResult PatchKind = "result"
	// PatchAttackQueue replaces the pending attackers.
	PatchAttackQueue PatchKind = "attack_queue"
	// PatchRNG advances the generator state.
	PatchRNG PatchKind = "rng"
)

// Zone names a card container of a player.
type Zone string

const (
	ZoneDeck      Zone = "deck"
	ZoneHand      Zone = "hand"
	ZoneField     Zone = "field"
	ZoneGraveyard Zone = "graveyard"
)

// FieldOp is the operation of a field patch.
type FieldOp string

const (
	// FieldSet writes Card at Index, appending when Index equals the field
	// length.
	FieldSet FieldOp = "set"
	// FieldRemove takes the creature at Index to the graveyard and renumbers
	// the remaining positions.
	FieldRemove FieldOp = "remove"
)

// PlayerStats is the scalar resource block of a player.
type PlayerStats struct {
	Life      int `json:"life"`
	Energy    int `json:"energy"`
	MaxEnergy int `json:"maxEnergy"`
	Fatigue   int `json:"fatigue"`
}

// CardMove takes the card at Index out of From and appends it to To. A move
// to ZoneField only removes it; the field patch that follows places it.
type CardMove struct {
	From  Zone `json:"from"`
	Index int  `json:"index"`
	To    Zone `json:"to"`
}

type FieldChange struct {
	Op    FieldOp          `json:"op"`
	Index int              `json:"index"`
	Card  *cards.FieldCard `json:"card,omitempty"`
}

type TurnInfo struct {
	Turn          int         `json:"turn"`
	Phase         rules.Phase `json:"phase"`
	CurrentPlayer string      `json:"currentPlayer"`
}

// Patch is one state mutation. Every change the engine makes goes through a
// patch, and the patches staged since the previous action are attached to
// the next logged action. Folding the patches over the initial snapshot
// reproduces the live state.
type Patch struct {
	Kind      PatchKind    `json:"kind"`
	PlayerID  string       `json:"playerId,omitempty"`
	Stats     *PlayerStats `json:"stats,omitempty"`
	Move      *CardMove    `json:"move,omitempty"`
	Field     *FieldChange `json:"field,omitempty"`
	Turn      *TurnInfo    `json:"turn,omitempty"`
	Result    *Result      `json:"result,omitempty"`
	Attackers []string     `json:"attackers,omitempty"`
	RNGState  uint64       `json:"rngState,omitempty"`
}

func (p Patch) String() string {
	return fmt.Sprintf("%s(%s)", p.Kind, p.PlayerID)
}

// commit applies p to the live state and stages it for the next action.
func (s *GameState) commit(p Patch) error {
	if err := p.apply(s); err != nil {
		return err
	}
	s.pending = append(s.pending, p)
	return nil
}

// apply mutates s. It is the only code path that changes game state, both
// live and during reconstruction.
func (p Patch) apply(s *GameState) error {
	switch p.Kind {
	case PatchPlayerStats:
		pl, err := p.player(s)
		if err != nil {
			return err
		}
		if p.Stats == nil {
			return p.malformed("missing stats")
		}
		pl.Life = p.Stats.Life
		pl.Energy = p.Stats.Energy
		pl.MaxEnergy = p.Stats.MaxEnergy
		pl.Fatigue = p.Stats.Fatigue
	case PatchMoveCard:
		pl, err := p.player(s)
		if err != nil {
			return err
		}
		if p.Move == nil {
			return p.malformed("missing move")
		}
		return applyMove(pl, *p.Move)
	case PatchFieldCard:
		pl, err := p.player(s)
		if err != nil {
			return err
		}
		if p.Field == nil {
			return p.malformed("missing field change")
		}
		return applyField(pl, *p.Field)
	case PatchPhase:
		if p.Turn == nil {
			return p.malformed("missing turn info")
		}
		s.TurnNumber = p.Turn.Turn
		s.Phase = p.Turn.Phase
		s.CurrentPlayer = p.Turn.CurrentPlayer
	case PatchResult:
		if p.Result == nil {
			return p.malformed("missing result")
		}
		r := *p.Result
		s.Result = &r
	case PatchAttackQueue:
		s.PendingAttackers = cloneStrings(p.Attackers)
	case PatchRNG:
		s.RNGState = p.RNGState
	default:
		return p.malformed("unknown kind")
	}
	return nil
}

func (p Patch) player(s *GameState) (*PlayerState, error) {
	pl, ok := s.Players[p.PlayerID]
	if !ok {
		return nil, fmt.Errorf("%w: patch %s targets unknown player", ErrInvariantViolation, p)
	}
	return pl, nil
}

func (p Patch) malformed(reason string) error {
	return fmt.Errorf("%w: patch %s: %s", ErrInvariantViolation, p, reason)
}

func zoneOf(pl *PlayerState, z Zone) (*[]cards.Card, error) {
	switch z {
	case ZoneDeck:
		return &pl.Deck, nil
	case ZoneHand:
		return &pl.Hand, nil
	case ZoneGraveyard:
		return &pl.Graveyard, nil
	}
	return nil, fmt.Errorf("%w: zone %q holds no cards", ErrInvariantViolation, z)
}

func applyMove(pl *PlayerState, m CardMove) error {
	from, err := zoneOf(pl, m.From)
	if err != nil {
		return err
	}
	if m.Index < 0 || m.Index >= len(*from) {
		return fmt.Errorf("%w: %s index %d out of range for %s", ErrInvariantViolation, m.From, m.Index, pl.ID)
	}
	card := (*from)[m.Index]
	*from = append((*from)[:m.Index], (*from)[m.Index+1:]...)
	if m.To == ZoneField {
		return nil
	}
	to, err := zoneOf(pl, m.To)
	if err != nil {
		return err
	}
	*to = append(*to, card)
	return nil
}

func applyField(pl *PlayerState, f FieldChange) error {
	switch f.Op {
	case FieldSet:
		if f.Card == nil {
			return fmt.Errorf("%w: field set without card", ErrInvariantViolation)
		}
		switch {
		case f.Index >= 0 && f.Index < len(pl.Field):
			pl.Field[f.Index] = f.Card.Clone()
		case f.Index == len(pl.Field):
			pl.Field = append(pl.Field, f.Card.Clone())
		default:
			return fmt.Errorf("%w: field index %d out of range for %s", ErrInvariantViolation, f.Index, pl.ID)
		}
	case FieldRemove:
		if f.Index < 0 || f.Index >= len(pl.Field) {
			return fmt.Errorf("%w: field index %d out of range for %s", ErrInvariantViolation, f.Index, pl.ID)
		}
		dead := pl.Field[f.Index]
		pl.Field = append(pl.Field[:f.Index], pl.Field[f.Index+1:]...)
		for i := range pl.Field {
			pl.Field[i].Position = i
		}
		pl.Graveyard = append(pl.Graveyard, dead.ToCard())
	default:
		return fmt.Errorf("%w: unknown field op %q", ErrInvariantViolation, f.Op)
	}
	return nil
}
