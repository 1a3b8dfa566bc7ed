// Package archive stores finished match replays.
package archive

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/cardclash/battle-sim/internal/game"
)

// ErrNotFound is returned when a sink holds no replay for a game id.
var ErrNotFound = errors.New("replay not found")

// Sink persists replays.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string
	// Store saves r and returns where it was written.
	Store(ctx context.Context, r *game.Replay) (string, error)
}

// Source reads replays back.
type Source interface {
	Load(ctx context.Context, gameID string) (*game.Replay, error)
	List(ctx context.Context) ([]string, error)
}

// Store is a sink that can also be read.
type Store interface {
	Sink
	Source
}

// Archive fans a replay out to every configured sink.
type Archive struct {
	sinks  []Sink
	logger *zap.Logger
}

// New creates an archive writing to sinks.
func New(logger *zap.Logger, sinks ...Sink) *Archive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archive{sinks: sinks, logger: logger}
}

// Len is the number of sinks.
func (a *Archive) Len() int { return len(a.sinks) }

// Store writes r to every sink and returns the locations that succeeded.
// A failing sink does not stop the others; all failures are returned
// together.
func (a *Archive) Store(ctx context.Context, r *game.Replay) ([]string, error) {
	var (
		locations []string
		errs      error
	)
	for _, s := range a.sinks {
		loc, err := s.Store(ctx, r)
		if err != nil {
			a.logger.Error("failed to archive replay",
				zap.String("sink", s.Name()),
				zap.String("game_id", r.GameID),
				zap.Error(err),
			)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		a.logger.Info("replay archived",
			zap.String("sink", s.Name()),
			zap.String("game_id", r.GameID),
			zap.String("location", loc),
		)
		locations = append(locations, loc)
	}
	return locations, errs
}
