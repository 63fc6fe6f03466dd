package state

import (
	"time"

	"matscribe/internal/media"
	"matscribe/internal/stage"
)

// Record is the durable per-item processing state. It survives restarts and
// is the authority on which stages completed, subject to the fingerprint
// still matching the source file.
type Record struct {
	ItemID       string
	SourcePath   string
	DisplayTitle string
	CurrentStage stage.Stage
	Completed    []stage.Stage
	StageTimes   map[stage.Stage]time.Time
	Fingerprint  media.Fingerprint
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewRecord seeds state for a freshly discovered item.
func NewRecord(item media.Item) *Record {
	now := time.Now().UTC()
	return &Record{
		ItemID:       item.ID,
		SourcePath:   item.SourcePath,
		DisplayTitle: item.DisplayTitle,
		CurrentStage: stage.Discovered,
		StageTimes:   map[stage.Stage]time.Time{},
		Fingerprint:  item.Fingerprint,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasCompleted reports whether the record marks the given stage done.
func (r *Record) HasCompleted(s stage.Stage) bool {
	for _, done := range r.Completed {
		if done == s {
			return true
		}
	}
	return false
}

// MarkCompleted records a finished stage, advances the current stage, and
// stamps the completion time. Marking an already-completed stage is a no-op.
func (r *Record) MarkCompleted(s stage.Stage) {
	if !r.HasCompleted(s) {
		r.Completed = append(r.Completed, s)
	}
	if r.StageTimes == nil {
		r.StageTimes = map[stage.Stage]time.Time{}
	}
	r.StageTimes[s] = time.Now().UTC()
	r.CurrentStage = s
	r.LastError = ""
}

// MarkFailed moves the record into the failed stage with the error detail.
func (r *Record) MarkFailed(detail string) {
	r.CurrentStage = stage.Failed
	r.LastError = detail
	if r.StageTimes == nil {
		r.StageTimes = map[stage.Stage]time.Time{}
	}
	r.StageTimes[stage.Failed] = time.Now().UTC()
}

// EffectiveCompleted returns the stages that may be trusted for resume. A
// fingerprint mismatch means the source file changed since the record was
// written, so nothing carries over; the record itself is preserved for
// inspection until the next successful save overwrites it.
func (r *Record) EffectiveCompleted(current media.Fingerprint) []stage.Stage {
	if r.Fingerprint != current {
		return nil
	}
	return r.Completed
}
