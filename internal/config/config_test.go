package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/cardclash/battle-sim/internal/game"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, game.DefaultRules(), cfg.Rules)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "necromancer", cfg.Match.Deck1)
	assert.Equal(t, 400*time.Millisecond, cfg.Stream.StepInterval)
	assert.True(t, cfg.Archive.Gzip)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
  format: json
rules:
  starting_life: 20
  max_chain_depth: 2
match:
  deck1: mage
  seed: fixed
archive:
  dir: /tmp/replays
  timeout: 5s
stream:
  step_interval: 1s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 20, cfg.Rules.StartingLife)
	assert.Equal(t, 2, cfg.Rules.MaxChainDepth)
	assert.Equal(t, game.DefaultRules().MaxTurns, cfg.Rules.MaxTurns)
	assert.Equal(t, "mage", cfg.Match.Deck1)
	assert.Equal(t, "knight", cfg.Match.Deck2)
	assert.Equal(t, 5*time.Second, cfg.Archive.Timeout)
	assert.Equal(t, time.Second, cfg.Stream.StepInterval)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BATTLESIM_RULES_MAX_TURNS", "12")
	t.Setenv("BATTLESIM_MATCH_SEED", "from-env")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Rules.MaxTurns)
	assert.Equal(t, "from-env", cfg.Match.Seed)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"level": "logging:\n  level: loud\n",
		"rules": "rules:\n  starting_life: 0\n",
		"steps": "match:\n  max_steps: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger(LoggingConfig{Level: "warn", Format: "console"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}
