package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"moderation-service/internal/entity"
)

// SubmissionRepository is the submission half of the Persistence Store
// (implementations: postgresql.SubmissionRepository, memory.Store).
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, in entity.NewSubmission) (*entity.Submission, error)
	UpdateSubmission(ctx context.Context, id uuid.UUID, upd entity.SubmissionUpdate) (*entity.Submission, error)
	GetSubmission(ctx context.Context, id uuid.UUID) (*entity.Submission, error)
	RecentSubmissions(ctx context.Context, limit int) ([]entity.Submission, error)
	ListSubmissionsByStatus(ctx context.Context, status entity.SubmissionStatus) ([]entity.Submission, error)
}

type ActivityRepository interface {
	AppendActivity(ctx context.Context, in entity.NewActivity) (*entity.ActivityLog, error)
	RecentActivity(ctx context.Context, limit int) ([]entity.ActivityLog, error)
}

// StatsRepository stores the current SystemStats snapshot. ApplyStats must be
// atomic with respect to concurrent callers.
type StatsRepository interface {
	CurrentStats(ctx context.Context) (*entity.SystemStats, error)
	WriteStats(ctx context.Context, snap entity.SystemStats) (*entity.SystemStats, error)
	ApplyStats(ctx context.Context, d entity.StatsDelta) (*entity.SystemStats, error)
}

// Publisher delivers lifecycle events to live clients. It never fails the caller.
type Publisher interface {
	Publish(ctx context.Context, ev entity.Event)
}

// Dispatcher starts the background continuation for a pending submission.
type Dispatcher interface {
	Dispatch(sub entity.Submission)
}

// LifecycleRecorder receives lifecycle counters (implementation: telemetry.Lifecycle).
type LifecycleRecorder interface {
	Started(ctx context.Context, contentType entity.ContentType)
	Completed(ctx context.Context, risk entity.RiskLevel, took time.Duration)
	Failed(ctx context.Context)
}

type NopRecorder struct{}

func (NopRecorder) Started(context.Context, entity.ContentType)                {}
func (NopRecorder) Completed(context.Context, entity.RiskLevel, time.Duration) {}
func (NopRecorder) Failed(context.Context)                                     {}
