package game

import (
	"errors"

	"github.com/cardclash/battle-sim/internal/game/effects"
)

// Fatal errors. They indicate an engine bug or a corrupted log and are never
// retried.
var (
	ErrInvariantViolation = errors.New("invariant violation")
	ErrPhaseMismatch      = errors.New("phase does not match result")
	ErrSequenceGap        = errors.New("action log sequence gap")
)

// Data errors surfaced from content.
var (
	// ErrInvalidEffect wraps effect specs that cannot be resolved.
	ErrInvalidEffect = effects.ErrInvalid
	ErrUnknownPlayer = errors.New("unknown player")
)
