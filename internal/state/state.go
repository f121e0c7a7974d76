// Package state holds the canonical series produced by the most recent
// successful fetch cycle.
package state

import (
	"sync/atomic"
	"time"

	"TrendSentinel/internal/model"
)

// Snapshot is one complete fetch cycle result. It is never modified after
// being stored.
type Snapshot struct {
	CycleID   string
	Symbol    string
	Series    model.Series
	StartedAt time.Time
	FetchedAt time.Time
}

// AnalyzerState is safe for concurrent use. Writers replace the whole
// snapshot, so readers always see a single cycle.
type AnalyzerState struct {
	current atomic.Pointer[Snapshot]
}

// New returns an empty state.
func New() *AnalyzerState {
	return &AnalyzerState{}
}

// Replace stores a copy of snap as the current snapshot unless the stored
// one comes from a cycle that started later. It reports whether snap was stored.
func (s *AnalyzerState) Replace(snap Snapshot) bool {
	snap.Series = snap.Series.Clone()
	for {
		cur := s.current.Load()
		if cur != nil && cur.StartedAt.After(snap.StartedAt) {
			return false
		}
		if s.current.CompareAndSwap(cur, &snap) {
			return true
		}
	}
}

// Load returns the current snapshot, or false when no cycle has succeeded yet.
func (s *AnalyzerState) Load() (Snapshot, bool) {
	p := s.current.Load()
	if p == nil {
		return Snapshot{}, false
	}
	snap := *p
	snap.Series = p.Series.Clone()
	return snap, true
}

// Series returns the current canonical series, or nil.
func (s *AnalyzerState) Series() model.Series {
	snap, ok := s.Load()
	if !ok {
		return nil
	}
	return snap.Series
}
