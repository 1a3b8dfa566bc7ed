package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardclash/battle-sim/internal/archive"
	"github.com/cardclash/battle-sim/internal/catalog"
	"github.com/cardclash/battle-sim/internal/config"
	"github.com/cardclash/battle-sim/internal/game"
	"github.com/cardclash/battle-sim/internal/game/rules"
)

var (
	configPath = flag.String("config", "", "path to configuration file")
	deck1      = flag.String("deck1", "", "deck for player1 (overrides config)")
	deck2      = flag.String("deck2", "", "deck for player2 (overrides config)")
	seed       = flag.String("seed", "", "match seed (overrides config)")
	gameID     = flag.String("game-id", "", "game id; random when empty")
	verify     = flag.String("verify", "", "rebuild a replay file and check its checksum instead of playing")
	listDecks  = flag.Bool("decks", false, "list catalog decks and exit")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("battlesim failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	engine := game.NewEngine(logger, game.WithRules(cfg.Rules))

	if *listDecks {
		for _, name := range cat.DeckNames() {
			d, _ := cat.Deck(name)
			fmt.Printf("%-12s %-12s %-10s %d cards\n", d.Name, d.Faction, d.Tactics, d.Size())
		}
		return nil
	}
	if *verify != "" {
		return verifyReplay(engine, cat, *verify)
	}

	match := cfg.Match
	if *deck1 != "" {
		match.Deck1 = *deck1
	}
	if *deck2 != "" {
		match.Deck2 = *deck2
	}
	if *seed != "" {
		match.Seed = *seed
	}
	id := *gameID
	if id == "" {
		id = "match-" + uuid.NewString()
	}

	logger.Info("starting match",
		zap.String("version", version),
		zap.String("game_id", id),
		zap.String("deck1", match.Deck1),
		zap.String("deck2", match.Deck2),
		zap.String("seed", match.Seed),
	)

	d1, cards1, err := cat.BuildDeck(match.Deck1)
	if err != nil {
		return err
	}
	d2, cards2, err := cat.BuildDeck(match.Deck2)
	if err != nil {
		return err
	}
	state, err := engine.CreateInitialGameState(id, cards1, cards2, d1.Faction, d2.Faction, d1.Tactics, d2.Tactics, match.Seed)
	if err != nil {
		return err
	}
	state, err = engine.RunToCompletion(state, match.MaxSteps)
	if err != nil {
		return err
	}
	if err := game.AssertNoLingeringDeadCreatures(state); err != nil {
		return err
	}

	replay, err := engine.NewReplay(state)
	if err != nil {
		return err
	}
	printSummary(replay, state.ActionLog)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Archive.Timeout)
	defer cancel()
	store, err := archive.Open(ctx, cfg.Archive, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	locations, err := store.Store(ctx, replay)
	for _, loc := range locations {
		fmt.Printf("replay: %s\n", loc)
	}
	return err
}

func loadCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	if cfg.Path == "" {
		return catalog.Starter()
	}
	return catalog.Load(cfg.Path)
}

func verifyReplay(engine *game.Engine, cat *catalog.Catalog, path string) error {
	r, err := game.LoadReplayFile(path)
	if err != nil {
		return err
	}
	state, err := engine.RebuildFromReplay(r, cat)
	if err != nil {
		return err
	}
	printSummary(r, state.ActionLog)
	fmt.Printf("checksum: %s (verified)\n", r.Checksum)
	return nil
}

func printSummary(r *game.Replay, log []game.GameAction) {
	fmt.Printf("game:    %s (seed %q)\n", r.GameID, r.Seed)
	for _, p := range r.Players {
		fmt.Printf("%-8s %s/%s life=%d\n", p.ID+":", p.Faction, p.Tactics, r.Summary.FinalLife[p.ID])
	}
	winner := r.Summary.Winner
	if winner == "" {
		winner = "draw"
	}
	fmt.Printf("result:  %s (%s) after %d turns\n", winner, r.Summary.Reason, r.Summary.TotalTurns)

	counts := make(map[rules.ActionType]int)
	for _, a := range log {
		counts[a.Type]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)
	fmt.Printf("actions: %d\n", len(log))
	for _, t := range types {
		fmt.Printf("  %-20s %d\n", t, counts[rules.ActionType(t)])
	}
}
