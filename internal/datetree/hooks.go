package datetree

import (
	"sort"

	"github.com/starford/daybook/internal/calendar"
)

// PlaceFunc is called with the target day of a refile placement.
type PlaceFunc func(target calendar.Key)

type hook struct {
	name     string
	priority int
	seq      int
	fn       PlaceFunc
}

// Hooks is an ordered callback registry. Callbacks run in ascending priority;
// equal priorities run in registration order.
type Hooks struct {
	entries []hook
	seq     int
}

// Register adds fn under name. Registering an existing name replaces it.
func (h *Hooks) Register(name string, priority int, fn PlaceFunc) {
	h.Remove(name)
	h.seq++
	h.entries = append(h.entries, hook{name: name, priority: priority, seq: h.seq, fn: fn})
	sort.SliceStable(h.entries, func(i, j int) bool {
		if h.entries[i].priority != h.entries[j].priority {
			return h.entries[i].priority < h.entries[j].priority
		}
		return h.entries[i].seq < h.entries[j].seq
	})
}

// Remove drops the callback registered under name and reports whether there
// was one.
func (h *Hooks) Remove(name string) bool {
	for i, e := range h.entries {
		if e.name == name {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Names lists registered callbacks in invocation order.
func (h *Hooks) Names() []string {
	out := make([]string, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.name
	}
	return out
}

// Len returns the number of registered callbacks.
func (h *Hooks) Len() int { return len(h.entries) }

func (h *Hooks) run(target calendar.Key) {
	for _, e := range h.entries {
		e.fn(target)
	}
}
