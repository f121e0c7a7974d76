package recorder

import (
	"time"

	"TrendSentinel/internal/model"
)

// FetchEvent is one fetch cycle with its per-provider outcomes.
type FetchEvent struct {
	CycleID    string
	Symbol     string
	Trigger    model.TriggerType
	Status     string // "ok" or "no_data"
	Bars       int    // canonical bars, 0 on failure
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []model.ProviderResult
}

// TrendSnapshot is a trend report produced after a cycle.
type TrendSnapshot struct {
	CycleID string
	Report  model.TrendReport
}

// Recorder journals fetch cycles and trend reports. The journal is
// write-only; nothing reads it back into the pipeline.
type Recorder interface {
	RecordFetch(evt *FetchEvent) error
	RecordTrend(snap *TrendSnapshot) error
	Close() error
}
