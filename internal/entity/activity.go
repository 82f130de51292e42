package entity

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityFlag    ActivityType = "flag"
	ActivityWarning ActivityType = "warning"
	ActivitySuccess ActivityType = "success"
	ActivityInfo    ActivityType = "info"
)

// ActivityLog is an append-only record of a significant lifecycle event.
type ActivityLog struct {
	ID          uuid.UUID      `json:"id"`
	Type        ActivityType   `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type NewActivity struct {
	Type        ActivityType
	Title       string
	Description string
	Metadata    map[string]any
}

// ActivityTypeFor maps a risk verdict onto the activity feed severity.
func ActivityTypeFor(risk RiskLevel) ActivityType {
	switch risk {
	case RiskHigh:
		return ActivityFlag
	case RiskMedium:
		return ActivityWarning
	default:
		return ActivitySuccess
	}
}

// CloneMetadata copies m so stored entries never share maps with callers.
func CloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
