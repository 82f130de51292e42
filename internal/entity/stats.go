package entity

import (
	"time"

	"github.com/google/uuid"
)

// SystemStats is the current aggregate-counters snapshot.
// AccuracyRate is fixed-point: value/100 = percent.
type SystemStats struct {
	ID             uuid.UUID `json:"id"`
	TotalAnalyzed  int       `json:"totalAnalyzed"`
	FlaggedContent int       `json:"flaggedContent"`
	QueueLength    int       `json:"queueLength"`
	AccuracyRate   int       `json:"accuracyRate"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// StatsDelta is the change one concluding submission contributes to the snapshot.
type StatsDelta struct {
	TotalAnalyzed  int
	FlaggedContent int
	QueueLength    int
}

// CompletionDelta is the delta for a submission completed with the given risk.
func CompletionDelta(risk RiskLevel) StatsDelta {
	d := StatsDelta{TotalAnalyzed: 1, QueueLength: -1}
	if risk != RiskSafe {
		d.FlaggedContent = 1
	}
	return d
}

// Apply derives the next snapshot values from s. Identity and timestamp are left
// to the store writing the snapshot.
func (s SystemStats) Apply(d StatsDelta) SystemStats {
	next := s
	next.TotalAnalyzed += d.TotalAnalyzed
	next.FlaggedContent += d.FlaggedContent
	next.QueueLength += d.QueueLength
	if next.QueueLength < 0 {
		next.QueueLength = 0
	}
	return next
}
