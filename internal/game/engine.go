package game

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardclash/battle-sim/internal/game/cards"
	"github.com/cardclash/battle-sim/internal/game/rules"
	"github.com/cardclash/battle-sim/internal/game/targeting"
)

// Player ids assigned by CreateInitialGameState.
const (
	Player1 = "player1"
	Player2 = "player2"
)

// instanceNamespace scopes the name-based UUIDs given to card instances.
var instanceNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("battle-sim/card-instance"))

// Rules are the tunable constants of a match.
type Rules struct {
	StartingLife  int `json:"startingLife" mapstructure:"starting_life"`
	StartingHand  int `json:"startingHand" mapstructure:"starting_hand"`
	MaxHand       int `json:"maxHand" mapstructure:"max_hand"`
	MaxField      int `json:"maxField" mapstructure:"max_field"`
	EnergyCap     int `json:"energyCap" mapstructure:"energy_cap"`
	FatigueDamage int `json:"fatigueDamage" mapstructure:"fatigue_damage"`
	MaxChainDepth int `json:"maxChainDepth" mapstructure:"max_chain_depth"`
	MaxTurns      int `json:"maxTurns" mapstructure:"max_turns"`
}

// DefaultRules returns the standard constants.
func DefaultRules() Rules {
	return Rules{
		StartingLife:  30,
		StartingHand:  3,
		MaxHand:       7,
		MaxField:      5,
		EnergyCap:     10,
		FatigueDamage: 1,
		MaxChainDepth: 5,
		MaxTurns:      60,
	}
}

// Validate rejects constants the engine cannot run with.
func (r Rules) Validate() error {
	switch {
	case r.StartingLife <= 0:
		return fmt.Errorf("starting life must be positive, got %d", r.StartingLife)
	case r.MaxHand <= 0 || r.StartingHand < 0 || r.StartingHand > r.MaxHand:
		return fmt.Errorf("hand limits invalid: starting %d, max %d", r.StartingHand, r.MaxHand)
	case r.MaxField <= 0:
		return fmt.Errorf("max field must be positive, got %d", r.MaxField)
	case r.EnergyCap <= 0:
		return fmt.Errorf("energy cap must be positive, got %d", r.EnergyCap)
	case r.FatigueDamage < 0:
		return fmt.Errorf("fatigue damage must not be negative, got %d", r.FatigueDamage)
	case r.MaxChainDepth < 0:
		return fmt.Errorf("max chain depth must not be negative, got %d", r.MaxChainDepth)
	case r.MaxTurns <= 0:
		return fmt.Errorf("max turns must be positive, got %d", r.MaxTurns)
	}
	return nil
}

// Engine runs matches. It holds no per-game state, so one Engine can step
// any number of games.
type Engine struct {
	logger    *zap.Logger
	rules     Rules
	clock     Clock
	chooser   Chooser
	evaluator *targeting.Evaluator
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules overrides the default rules.
func WithRules(r Rules) Option {
	return func(e *Engine) { e.rules = r }
}

// WithClock overrides the logical clock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithChooser overrides how random picks and deck searches choose.
func WithChooser(c Chooser) Option {
	return func(e *Engine) {
		if c != nil {
			e.chooser = c
		}
	}
}

// NewEngine creates an engine.
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:  logger,
		rules:   DefaultRules(),
		clock:   LogicalClock,
		chooser: RandomChooser,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.evaluator = targeting.NewEvaluator(logger)
	return e
}

// Rules returns the engine's constants.
func (e *Engine) Rules() Rules { return e.rules }

// CreateInitialGameState shuffles both decks with the seeded generator,
// deals starting hands and returns a state in the draw phase of turn 1.
func (e *Engine) CreateInitialGameState(gameID string, deck1, deck2 []cards.Card, faction1, faction2 cards.Faction, tactics1, tactics2 cards.Tactics, seed string) (*GameState, error) {
	if err := e.rules.Validate(); err != nil {
		return nil, fmt.Errorf("create game %s: %w", gameID, err)
	}
	s := &GameState{
		GameID:        gameID,
		RandomSeed:    seed,
		RNGState:      SeedState(seed),
		TurnNumber:    1,
		Phase:         rules.PhaseDraw,
		CurrentPlayer: Player1,
		PlayerOrder:   [2]string{Player1, Player2},
		Players:       make(map[string]*PlayerState, 2),
	}
	rng := NewRNG(s.RNGState)

	setups := []struct {
		id      string
		deck    []cards.Card
		faction cards.Faction
		tactics cards.Tactics
	}{
		{Player1, deck1, faction1, tactics1},
		{Player2, deck2, faction2, tactics2},
	}
	for _, setup := range setups {
		p, err := e.newPlayer(gameID, setup.id, setup.deck, setup.faction, setup.tactics)
		if err != nil {
			return nil, fmt.Errorf("create game %s: %w", gameID, err)
		}
		rng.Shuffle(len(p.Deck), func(i, j int) { p.Deck[i], p.Deck[j] = p.Deck[j], p.Deck[i] })
		deal := e.rules.StartingHand
		if deal > len(p.Deck) {
			deal = len(p.Deck)
		}
		p.Hand = append(p.Hand, p.Deck[:deal]...)
		p.Deck = append([]cards.Card(nil), p.Deck[deal:]...)
		s.Players[setup.id] = p
	}
	s.RNGState = rng.State()
	s.initial = s.Clone()

	e.logger.Info("game created",
		zap.String("game_id", gameID),
		zap.String("seed", seed),
		zap.String("faction1", string(faction1)),
		zap.String("faction2", string(faction2)),
		zap.Int("deck1", len(deck1)),
		zap.Int("deck2", len(deck2)),
	)
	return s, nil
}

func (e *Engine) newPlayer(gameID, playerID string, deck []cards.Card, faction cards.Faction, tactics cards.Tactics) (*PlayerState, error) {
	if _, err := cards.ParseFaction(string(faction)); err != nil {
		return nil, fmt.Errorf("player %s: %w", playerID, err)
	}
	if _, err := cards.ParseTactics(string(tactics)); err != nil {
		return nil, fmt.Errorf("player %s: %w", playerID, err)
	}
	p := &PlayerState{
		ID:        playerID,
		Life:      e.rules.StartingLife,
		Faction:   faction,
		Tactics:   tactics,
		DeckList:  make([]string, 0, len(deck)),
		Deck:      make([]cards.Card, 0, len(deck)),
		Hand:      []cards.Card{},
		Field:     []cards.FieldCard{},
		Graveyard: []cards.Card{},
	}
	for i, c := range deck {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("player %s deck slot %d: %w", playerID, i, err)
		}
		inst := c.Clone()
		inst.InstanceID = uuid.NewSHA1(instanceNamespace, []byte(fmt.Sprintf("%s/%s/%d", gameID, playerID, i))).String()
		p.DeckList = append(p.DeckList, c.TemplateID)
		p.Deck = append(p.Deck, inst)
	}
	return p, nil
}

// ProcessGameStep advances the game by one phase unit and returns the new
// state. The input is left untouched. Stepping a finished game returns an
// unchanged copy.
func (e *Engine) ProcessGameStep(state *GameState) (*GameState, error) {
	if state == nil {
		return nil, errors.New("process step: nil state")
	}
	finished := state.Result != nil
	if finished != (state.Phase == rules.PhaseGameOver) {
		return nil, fmt.Errorf("%w: phase %s, result set %t", ErrPhaseMismatch, state.Phase, finished)
	}
	if finished {
		return state.Clone(), nil
	}
	if len(state.pending) > 0 {
		return nil, fmt.Errorf("%w: input state has %d unattached patches", ErrInvariantViolation, len(state.pending))
	}

	s := state.Clone()
	var err error
	switch s.Phase {
	case rules.PhaseDraw:
		err = e.runDraw(s)
	case rules.PhaseEnergy:
		err = e.runEnergy(s)
	case rules.PhaseDeploy:
		err = e.runDeploy(s)
	case rules.PhaseBattle:
		err = e.runBattle(s)
	case rules.PhaseBattleAttack:
		err = e.runBattleAttack(s)
	case rules.PhaseEnd:
		err = e.runEnd(s)
	default:
		err = fmt.Errorf("%w: unknown phase %q", ErrPhaseMismatch, s.Phase)
	}
	if err != nil {
		return nil, fmt.Errorf("game %s turn %d %s: %w", s.GameID, state.TurnNumber, state.Phase, err)
	}
	if len(s.pending) > 0 {
		return nil, fmt.Errorf("%w: step ended with %d unattached patches", ErrInvariantViolation, len(s.pending))
	}
	if err := AssertNoLingeringDeadCreatures(s); err != nil {
		return nil, err
	}
	return s, nil
}

// RunToCompletion steps until the game has a result or maxSteps is reached.
func (e *Engine) RunToCompletion(state *GameState, maxSteps int) (*GameState, error) {
	s := state
	for i := 0; i < maxSteps && !s.IsFinished(); i++ {
		next, err := e.ProcessGameStep(s)
		if err != nil {
			return s, err
		}
		s = next
	}
	if !s.IsFinished() {
		return s, fmt.Errorf("game %s unfinished after %d steps", s.GameID, maxSteps)
	}
	return s, nil
}

// updateStats journals a change to a player's resources.
func (e *Engine) updateStats(s *GameState, playerID string, mutate func(st *PlayerStats)) error {
	p, err := s.Player(playerID)
	if err != nil {
		return err
	}
	st := PlayerStats{Life: p.Life, Energy: p.Energy, MaxEnergy: p.MaxEnergy, Fatigue: p.Fatigue}
	mutate(&st)
	if st.Life < 0 {
		st.Life = 0
	}
	if st.MaxEnergy < 0 {
		st.MaxEnergy = 0
	}
	if st.Energy > st.MaxEnergy {
		st.Energy = st.MaxEnergy
	}
	if st.Energy < 0 {
		st.Energy = 0
	}
	return s.commit(Patch{Kind: PatchPlayerStats, PlayerID: playerID, Stats: &st})
}

// updateField journals a change to the creature at index.
func (e *Engine) updateField(s *GameState, playerID string, index int, mutate func(fc *cards.FieldCard)) error {
	p, err := s.Player(playerID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(p.Field) {
		return fmt.Errorf("%w: field index %d out of range for %s", ErrInvariantViolation, index, playerID)
	}
	fc := p.Field[index].Clone()
	mutate(&fc)
	return s.commit(Patch{Kind: PatchFieldCard, PlayerID: playerID, Field: &FieldChange{Op: FieldSet, Index: index, Card: &fc}})
}

func (e *Engine) placeCreature(s *GameState, playerID string, fc cards.FieldCard) error {
	fc = fc.Clone()
	return s.commit(Patch{Kind: PatchFieldCard, PlayerID: playerID, Field: &FieldChange{Op: FieldSet, Index: fc.Position, Card: &fc}})
}

func (e *Engine) moveCard(s *GameState, playerID string, from Zone, index int, to Zone) error {
	return s.commit(Patch{Kind: PatchMoveCard, PlayerID: playerID, Move: &CardMove{From: from, Index: index, To: to}})
}

func (e *Engine) setTurn(s *GameState, turn int, phase rules.Phase, player string) error {
	return s.commit(Patch{Kind: PatchPhase, Turn: &TurnInfo{Turn: turn, Phase: phase, CurrentPlayer: player}})
}

func (e *Engine) setAttackQueue(s *GameState, attackers []string) error {
	return s.commit(Patch{Kind: PatchAttackQueue, Attackers: cloneStrings(attackers)})
}

// choose runs the chooser against the game's generator and journals the
// generator state when it advanced.
func (e *Engine) choose(s *GameState, n int) (int, error) {
	rng := NewRNG(s.RNGState)
	idx := e.chooser(rng, n)
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("%w: chooser returned %d for %d candidates", ErrInvariantViolation, idx, n)
	}
	if rng.State() != s.RNGState {
		if err := s.commit(Patch{Kind: PatchRNG, RNGState: rng.State()}); err != nil {
			return 0, err
		}
	}
	return idx, nil
}

// advancePhase moves to the next phase of the current turn.
func (e *Engine) advancePhase(s *GameState) error {
	from := s.Phase
	next, newTurn, err := from.Next()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPhaseMismatch, err)
	}
	turn, player := s.TurnNumber, s.CurrentPlayer
	if newTurn {
		turn++
		player = s.OpponentOf(player)
	}
	if err := e.setTurn(s, turn, next, player); err != nil {
		return err
	}
	e.logAction(s, player, rules.PhaseChangeData{From: from, To: next, Turn: turn, Player: player})
	return nil
}

// defeated reports whether a player is out of life, before checkGameOver
// has recorded the result.
func (s *GameState) defeated() bool {
	for _, p := range s.Players {
		if p.Life <= 0 {
			return true
		}
	}
	return false
}

// checkGameOver ends the game when a player is out of life. It reports
// whether the game is over.
func (e *Engine) checkGameOver(s *GameState) (bool, error) {
	if s.Result != nil {
		return true, nil
	}
	p1, p2 := s.Players[s.PlayerOrder[0]], s.Players[s.PlayerOrder[1]]
	switch {
	case p1.Life <= 0 && p2.Life <= 0:
		return true, e.endGame(s, "", ReasonBothDefeated)
	case p1.Life <= 0:
		return true, e.endGame(s, p2.ID, ReasonLifeDepleted)
	case p2.Life <= 0:
		return true, e.endGame(s, p1.ID, ReasonLifeDepleted)
	}
	return false, nil
}

func (e *Engine) endGame(s *GameState, winner, reason string) error {
	result := &Result{Winner: winner, Reason: reason, TotalTurns: s.TurnNumber}
	if err := s.commit(Patch{Kind: PatchResult, Result: result}); err != nil {
		return err
	}
	if err := e.setTurn(s, s.TurnNumber, rules.PhaseGameOver, s.CurrentPlayer); err != nil {
		return err
	}
	finalLife := make(map[string]int, len(s.Players))
	for id, p := range s.Players {
		finalLife[id] = p.Life
	}
	e.logAction(s, winner, rules.GameOverData{
		Winner:     winner,
		Reason:     reason,
		TotalTurns: s.TurnNumber,
		FinalLife:  finalLife,
	})
	e.logger.Info("game over",
		zap.String("game_id", s.GameID),
		zap.String("winner", winner),
		zap.String("reason", reason),
		zap.Int("turns", s.TurnNumber),
		zap.Int("actions", len(s.ActionLog)),
	)
	return nil
}
