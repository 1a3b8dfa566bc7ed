package effects

// Duration is how long a stat buff lasts.
type Duration string

const (
	// DurationTurn buffs go into the temporary modifiers and are cleared in
	// the cleanup stage of the end phase.
	DurationTurn Duration = "turn"
	// DurationPermanent buffs raise the creature's stats until it leaves the
	// field.
	DurationPermanent Duration = "permanent"
)

// ExpiresAtCleanup reports whether a buff with this duration is removed by
// the end-phase cleanup stage. Unset durations count as permanent.
func (d Duration) ExpiresAtCleanup() bool {
	return d == DurationTurn
}
