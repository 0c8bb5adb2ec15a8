// Package live keeps streamed split results consistent with the latest
// change to a bill.
package live

import "sync/atomic"

// Tracker hands out increasing generation numbers for recomputations.
// Only the result of the most recently started generation may be delivered.
type Tracker struct {
	latest atomic.Uint64
}

// Next starts a new generation and returns its number.
func (t *Tracker) Next() uint64 {
	return t.latest.Add(1)
}

// IsLatest reports whether gen is still the newest generation issued.
func (t *Tracker) IsLatest(gen uint64) bool {
	return t.latest.Load() == gen
}
