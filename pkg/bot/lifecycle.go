package bot

import (
	"time"

	"grandmaster/pkg/broker"
)

// LifecycleTracker owns the per-symbol open-time bookkeeping. It is the
// only writer of both registries and runs on the single cycle goroutine,
// so no locking is needed.
type LifecycleTracker struct {
	openedAt map[string]time.Time
	timedOut map[string]bool
}

func NewLifecycleTracker() *LifecycleTracker {
	return &LifecycleTracker{
		openedAt: make(map[string]time.Time),
		timedOut: make(map[string]bool),
	}
}

// Reconcile aligns the registries with the live positions: symbols seen
// for the first time get stamped with now, symbols gone from the book
// lose both entries. Covers manual exits as well as bot-driven ones.
// Must run before any exit logic each cycle.
func (t *LifecycleTracker) Reconcile(positions []broker.Position, now time.Time) {
	live := make(map[string]bool, len(positions))
	for _, p := range positions {
		live[p.Symbol] = true
		if _, ok := t.openedAt[p.Symbol]; !ok {
			t.openedAt[p.Symbol] = now
		}
	}
	for sym := range t.openedAt {
		if !live[sym] {
			delete(t.openedAt, sym)
			delete(t.timedOut, sym)
		}
	}
}

// OpenedAt returns when the symbol was first observed open.
func (t *LifecycleTracker) OpenedAt(symbol string) (time.Time, bool) {
	at, ok := t.openedAt[symbol]
	return at, ok
}

// TimedOut reports whether a time-exit has already been submitted for
// this holding episode.
func (t *LifecycleTracker) TimedOut(symbol string) bool {
	return t.timedOut[symbol]
}

// MarkTimedOut flags the symbol's current holding episode. The flag is
// cleared by Reconcile when the symbol leaves the book.
func (t *LifecycleTracker) MarkTimedOut(symbol string) {
	t.timedOut[symbol] = true
}

// TrackedCount returns the number of symbols with an open-time entry.
func (t *LifecycleTracker) TrackedCount() int {
	return len(t.openedAt)
}
