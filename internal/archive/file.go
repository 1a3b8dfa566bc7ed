package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cardclash/battle-sim/internal/game"
)

// FileSink keeps replays as JSON files in a directory.
type FileSink struct {
	dir      string
	compress bool
}

// NewFileSink creates a sink writing into dir.
func NewFileSink(dir string, compress bool) *FileSink {
	return &FileSink{dir: dir, compress: compress}
}

func (f *FileSink) Name() string { return "file" }

func (f *FileSink) Store(_ context.Context, r *game.Replay) (string, error) {
	return game.SaveReplayFile(f.dir, r, f.compress)
}

// Load reads the replay of gameID, compressed or not.
func (f *FileSink) Load(_ context.Context, gameID string) (*game.Replay, error) {
	for _, compress := range []bool{f.compress, !f.compress} {
		path := filepath.Join(f.dir, game.ReplayFileName(gameID, compress))
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		return game.LoadReplayFile(path)
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, gameID, f.dir)
}

// List returns the stored game ids in name order.
func (f *FileSink) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	seen := make(map[string]bool)
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := gameIDFromFile(e.Name())
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func gameIDFromFile(name string) (string, bool) {
	for _, suffix := range []string{game.ReplayFileName("", true), game.ReplayFileName("", false)} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix), true
		}
	}
	return "", false
}
