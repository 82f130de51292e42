package entity

import (
	"time"

	"github.com/google/uuid"
)

type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
	ContentAudio ContentType = "audio"
)

// Valid reports whether t is one of the four accepted content kinds.
func (t ContentType) Valid() bool {
	switch t {
	case ContentText, ContentImage, ContentVideo, ContentAudio:
		return true
	}
	return false
}

type SubmissionStatus string

const (
	StatusPending    SubmissionStatus = "pending"
	StatusProcessing SubmissionStatus = "processing"
	StatusCompleted  SubmissionStatus = "completed"
	StatusFailed     SubmissionStatus = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s SubmissionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition is the single source of truth for the submission state machine.
// pending -> processing -> completed|failed; pending -> failed is the failure exit
// for a submission whose processing step could not be persisted.
func CanTransition(from, to SubmissionStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusFailed
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

type RiskLevel string

const (
	RiskSafe   RiskLevel = "safe"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Severity orders risk levels so the highest match wins.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// Submission is a unit of content accepted for moderation analysis.
type Submission struct {
	ID              uuid.UUID        `json:"id"`
	ContentType     ContentType      `json:"contentType"`
	Content         string           `json:"content"`
	Status          SubmissionStatus `json:"status"`
	RiskLevel       *RiskLevel       `json:"riskLevel"`
	DetectedIssues  []string         `json:"detectedIssues"`
	ConfidenceScore *int             `json:"confidenceScore"`
	ProcessingTime  *int             `json:"processingTime"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Verdict is the output of the classification step.
type Verdict struct {
	RiskLevel       RiskLevel `json:"riskLevel"`
	DetectedIssues  []string  `json:"detectedIssues"`
	ConfidenceScore int       `json:"confidenceScore"`
	ProcessingTime  int       `json:"processingTime"`
}

// NewSubmission is the input for creating a pending submission. Activity, when set,
// is stored in the same transaction with the new id added to its metadata.
type NewSubmission struct {
	ContentType ContentType
	Content     string
	Activity    *NewActivity
}

// SubmissionUpdate moves a submission to Status. Verdict is merged only when
// completing; Activity is appended atomically with the update.
type SubmissionUpdate struct {
	Status   SubmissionStatus
	Verdict  *Verdict
	Activity *NewActivity
}

// ApplyVerdict merges classification fields into s.
func (s *Submission) ApplyVerdict(v Verdict) {
	risk := v.RiskLevel
	confidence := v.ConfidenceScore
	elapsed := v.ProcessingTime
	s.RiskLevel = &risk
	s.DetectedIssues = append([]string{}, v.DetectedIssues...)
	s.ConfidenceScore = &confidence
	s.ProcessingTime = &elapsed
}

// NextUpdatedAt returns a timestamp strictly after prev, using now when it already is.
func NextUpdatedAt(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}
