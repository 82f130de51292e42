package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"moderation-service/internal/entity"
)

type SubmissionService struct {
	repo       SubmissionRepository
	events     Publisher
	dispatcher Dispatcher
	metrics    LifecycleRecorder
}

func NewSubmissionService(repo SubmissionRepository, events Publisher, dispatcher Dispatcher, metrics LifecycleRecorder) *SubmissionService {
	if metrics == nil {
		metrics = NopRecorder{}
	}
	return &SubmissionService{repo: repo, events: events, dispatcher: dispatcher, metrics: metrics}
}

type SubmitRequest struct {
	ContentType entity.ContentType
	Content     string
}

func (r SubmitRequest) validate() error {
	if !r.ContentType.Valid() {
		return fmt.Errorf("%w: unknown content type %q", ErrValidation, r.ContentType)
	}
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}
	if len(r.Content) > MaxContentBytes {
		return fmt.Errorf("%w: content exceeds %d bytes", ErrValidation, MaxContentBytes)
	}
	return nil
}

// Submit persists a pending submission together with its "analysis initiated"
// activity entry, publishes analysis_started and hands the submission to the
// dispatcher. The returned record is the pending snapshot.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (*entity.Submission, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	sub, err := s.repo.CreateSubmission(ctx, entity.NewSubmission{
		ContentType: req.ContentType,
		Content:     req.Content,
		Activity: &entity.NewActivity{
			Type:        entity.ActivityInfo,
			Title:       "New content analysis started",
			Description: fmt.Sprintf("%s analysis initiated", req.ContentType),
		},
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[service] analysis_id=%s content_type=%s status=%s", sub.ID, sub.ContentType, sub.Status)

	s.metrics.Started(ctx, sub.ContentType)
	s.events.Publish(ctx, entity.StartedEvent(*sub))
	s.dispatcher.Dispatch(*sub)

	return sub, nil
}

func (s *SubmissionService) Get(ctx context.Context, id uuid.UUID) (*entity.Submission, error) {
	return s.repo.GetSubmission(ctx, id)
}

func (s *SubmissionService) Recent(ctx context.Context, limit int) ([]entity.Submission, error) {
	return s.repo.RecentSubmissions(ctx, ClampLimit(limit))
}

// Queue returns pending submissions, oldest first.
func (s *SubmissionService) Queue(ctx context.Context) ([]entity.Submission, error) {
	return s.repo.ListSubmissionsByStatus(ctx, entity.StatusPending)
}
