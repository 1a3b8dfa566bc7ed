package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cardclash/battle-sim/internal/game/cards"
)

// Checksum hashes a canonical rendering of the observable game state. Two
// states with equal checksums agree on every zone, stat and status, the
// generator state and the log length, regardless of how they were produced.
func Checksum(state *GameState) (string, error) {
	if state == nil {
		return "", fmt.Errorf("checksum of nil state")
	}
	hash := sha256.New()
	if _, err := hash.Write([]byte(canonicalState(state))); err != nil {
		return "", fmt.Errorf("failed to compute hash: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// canonicalState renders the state line by line. Zone order is significant
// and kept; players follow PlayerOrder.
func canonicalState(s *GameState) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%s|%s|%d|%d|%s|%s\n",
		s.GameID,
		s.RandomSeed,
		s.RNGState,
		s.TurnNumber,
		s.Phase,
		s.CurrentPlayer,
	)
	if s.Result != nil {
		fmt.Fprintf(&buf, "RESULT:%s|%s|%d\n", s.Result.Winner, s.Result.Reason, s.Result.TotalTurns)
	}
	fmt.Fprintf(&buf, "LOG:%d\n", len(s.ActionLog))
	buf.WriteString("ATTACKERS:")
	buf.WriteString(strings.Join(s.PendingAttackers, ","))
	buf.WriteString("\n")

	for _, pid := range s.PlayerOrder {
		p, ok := s.Players[pid]
		if !ok {
			continue
		}
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%s|%d|%d|%d|%d\n",
			p.ID, p.Faction, p.Tactics, p.Life, p.Energy, p.MaxEnergy, p.Fatigue)
		writeZone(&buf, "DECK", p.Deck)
		writeZone(&buf, "HAND", p.Hand)
		writeZone(&buf, "GRAVEYARD", p.Graveyard)
		for _, fc := range p.Field {
			fmt.Fprintf(&buf, "  FIELD:%d|%s|%s|%d/%d|%d|%d,%d|%d,%d|%d,%d|%d|%t|%t|%t\n",
				fc.Position,
				fc.InstanceID,
				fc.TemplateID,
				fc.Attack,
				fc.Card.Health,
				fc.CurrentHealth,
				fc.AttackModifier,
				fc.HealthModifier,
				fc.BuffAttack,
				fc.BuffHealth,
				fc.PassiveAttackModifier,
				fc.PassiveHealthModifier,
				fc.SummonTurn,
				fc.HasAttacked,
				fc.IsStealthed,
				fc.IsSilenced,
			)
			for _, st := range fc.StatusEffects {
				fmt.Fprintf(&buf, "    STATUS:%s|%d|%d\n", st.Type, st.Stacks, st.Remaining)
			}
		}
	}
	return buf.String()
}

func writeZone(buf *bytes.Buffer, name string, zone []cards.Card) {
	ids := make([]string, len(zone))
	for i, c := range zone {
		ids[i] = c.InstanceID
	}
	fmt.Fprintf(buf, "  %s:%s\n", name, strings.Join(ids, ","))
}
