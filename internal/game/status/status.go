// Package status models the status effects carried by creatures on the field.
package status

// Type names a status effect.
type Type string

const (
	// Poison deals Stacks damage at every status tick while it lasts.
	Poison Type = "poison"
	// Silence suppresses keywords, auras and triggers while it lasts.
	Silence Type = "silence"
	// Branded is a permanent tag used by targeting rules.
	Branded Type = "branded"
)

// Effect is one status on a creature. Remaining counts status ticks left;
// zero means the effect never expires.
type Effect struct {
	Type      Type `json:"type"`
	Stacks    int  `json:"stacks"`
	Remaining int  `json:"remaining,omitempty"`
}

// List is an ordered set of status effects, at most one per Type, in the
// order they were first applied.
type List []Effect

// New creates a status effect, normalising non-positive stacks to one.
func New(t Type, stacks, duration int) Effect {
	if stacks <= 0 {
		stacks = 1
	}
	if duration < 0 {
		duration = 0
	}
	return Effect{Type: t, Stacks: stacks, Remaining: duration}
}

// Has reports whether a status of the given type is present.
func (l List) Has(t Type) bool {
	_, ok := l.Get(t)
	return ok
}

// Get returns the status of the given type.
func (l List) Get(t Type) (Effect, bool) {
	for _, e := range l {
		if e.Type == t {
			return e, true
		}
	}
	return Effect{}, false
}

// Add merges e into the list and returns the new list. Stacks accumulate and
// the longer duration wins; a permanent effect stays permanent.
func (l List) Add(e Effect) List {
	out := l.Clone()
	for i := range out {
		if out[i].Type != e.Type {
			continue
		}
		out[i].Stacks += e.Stacks
		if out[i].Remaining != 0 && (e.Remaining == 0 || e.Remaining > out[i].Remaining) {
			out[i].Remaining = e.Remaining
		}
		return out
	}
	return append(out, e)
}

// Remove drops the status of the given type.
func (l List) Remove(t Type) List {
	out := make(List, 0, len(l))
	for _, e := range l {
		if e.Type != t {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Tick counts one status tick down. It returns the surviving list and the
// effects that expired on this tick.
func (l List) Tick() (List, []Effect) {
	var (
		kept    List
		expired []Effect
	)
	for _, e := range l {
		if e.Remaining == 0 {
			kept = append(kept, e)
			continue
		}
		e.Remaining--
		if e.Remaining == 0 {
			expired = append(expired, e)
			continue
		}
		kept = append(kept, e)
	}
	return kept, expired
}

// Clone returns a copy that shares no backing array with l.
func (l List) Clone() List {
	if len(l) == 0 {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Types lists the status types present, in application order.
func (l List) Types() []string {
	out := make([]string, 0, len(l))
	for _, e := range l {
		out = append(out, string(e.Type))
	}
	return out
}
