package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"moderation-service/internal/classifier"
	"moderation-service/internal/entity"
	"moderation-service/internal/repository"
	"moderation-service/internal/service"
)

var ErrClassification = errors.New("classification failed")

type Processor struct {
	repo       service.SubmissionRepository
	stats      service.StatsRepository
	classifier classifier.Classifier
	events     service.Publisher
	metrics    service.LifecycleRecorder
}

func NewProcessor(
	repo service.SubmissionRepository,
	stats service.StatsRepository,
	cls classifier.Classifier,
	events service.Publisher,
	metrics service.LifecycleRecorder,
) *Processor {
	if metrics == nil {
		metrics = service.NopRecorder{}
	}
	return &Processor{repo: repo, stats: stats, classifier: cls, events: events, metrics: metrics}
}

// Process drives a pending submission to completed or failed.
func (p *Processor) Process(ctx context.Context, sub entity.Submission) error {
	start := time.Now()

	cur, err := p.repo.UpdateSubmission(ctx, sub.ID, entity.SubmissionUpdate{Status: entity.StatusProcessing})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) || errors.Is(err, repository.ErrNotFound) {
			// already picked up or gone; nothing to terminate
			log.Printf("[worker] analysis_id=%s skip error=%v", sub.ID, err)
			return nil
		}
		p.Fail(ctx, sub.ID, err)
		return err
	}
	p.events.Publish(ctx, entity.ProcessingEvent(sub.ID))
	log.Printf("[worker] analysis_id=%s content_type=%s status=processing", sub.ID, cur.ContentType)

	verdict, err := p.classify(ctx, *cur)
	if err != nil {
		p.Fail(ctx, sub.ID, err)
		return err
	}

	done, err := p.repo.UpdateSubmission(ctx, sub.ID, entity.SubmissionUpdate{
		Status:   entity.StatusCompleted,
		Verdict:  &verdict,
		Activity: resultActivity(sub.ID, verdict),
	})
	if err != nil {
		p.Fail(ctx, sub.ID, err)
		return err
	}

	// the record is terminal from here on
	if _, err := p.stats.ApplyStats(ctx, entity.CompletionDelta(verdict.RiskLevel)); err != nil {
		log.Printf("[worker] analysis_id=%s apply_stats error=%v", sub.ID, err)
	}

	p.metrics.Completed(ctx, verdict.RiskLevel, time.Since(start))
	p.events.Publish(ctx, entity.CompletedEvent(*done))

	log.Printf("[worker] analysis_id=%s status=completed risk=%s issues=%d duration_ms=%d",
		sub.ID, verdict.RiskLevel, len(verdict.DetectedIssues), time.Since(start).Milliseconds(),
	)
	return nil
}

func (p *Processor) classify(ctx context.Context, sub entity.Submission) (v entity.Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrClassification, r)
		}
	}()

	v, err = p.classifier.Classify(ctx, sub.ContentType, sub.Content)
	if err != nil {
		return entity.Verdict{}, fmt.Errorf("%w: %v", ErrClassification, err)
	}
	if v.RiskLevel.Severity() == 0 && v.RiskLevel != entity.RiskSafe {
		return entity.Verdict{}, fmt.Errorf("%w: unknown risk level %q", ErrClassification, v.RiskLevel)
	}
	return v, nil
}

const (
	failWriteAttempts = 3
	failWriteBackoff  = 50 * time.Millisecond
)

// Fail persists failed for id and publishes analysis_failed. The write is
// retried a few times before the event goes out. A submission that already
// reached a terminal state is left alone and nothing is published.
func (p *Processor) Fail(ctx context.Context, id uuid.UUID, cause error) {
	log.Printf("[worker] analysis_id=%s status=failed error=%v", id, cause)

	for attempt := 1; ; attempt++ {
		_, err := p.repo.UpdateSubmission(ctx, id, entity.SubmissionUpdate{Status: entity.StatusFailed})
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrInvalidTransition) || errors.Is(err, repository.ErrNotFound) {
			log.Printf("[worker] analysis_id=%s set_failed skip error=%v", id, err)
			return
		}
		log.Printf("[worker] analysis_id=%s set_failed attempt=%d error=%v", id, attempt, err)
		if attempt == failWriteAttempts {
			break
		}
		time.Sleep(time.Duration(attempt) * failWriteBackoff)
	}

	p.metrics.Failed(ctx)
	p.events.Publish(ctx, entity.FailedEvent(id))
}

// Recover settles work left behind by a previous process: submissions stuck in
// processing are failed, pending ones are handed to d again.
func (p *Processor) Recover(ctx context.Context, d service.Dispatcher) error {
	stuck, err := p.repo.ListSubmissionsByStatus(ctx, entity.StatusProcessing)
	if err != nil {
		return fmt.Errorf("list processing: %w", err)
	}
	for _, sub := range stuck {
		_, err := p.repo.UpdateSubmission(ctx, sub.ID, entity.SubmissionUpdate{
			Status: entity.StatusFailed,
			Activity: &entity.NewActivity{
				Type:        entity.ActivityInfo,
				Title:       "Analysis interrupted",
				Description: fmt.Sprintf("%s analysis did not finish before restart", sub.ContentType),
				Metadata:    map[string]any{"analysisId": sub.ID.String()},
			},
		})
		if err != nil {
			log.Printf("[worker] recover analysis_id=%s set_failed error=%v", sub.ID, err)
			continue
		}
		p.metrics.Failed(ctx)
		p.events.Publish(ctx, entity.FailedEvent(sub.ID))
	}

	pending, err := p.repo.ListSubmissionsByStatus(ctx, entity.StatusPending)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}
	for _, sub := range pending {
		d.Dispatch(sub)
	}

	log.Printf("[worker] recover failed=%d redispatched=%d", len(stuck), len(pending))
	return nil
}

func resultActivity(id uuid.UUID, v entity.Verdict) *entity.NewActivity {
	desc := "Clean content detected"
	if len(v.DetectedIssues) > 0 {
		desc = fmt.Sprintf("%s risk detected: %s", v.RiskLevel, strings.Join(v.DetectedIssues, ", "))
	}
	return &entity.NewActivity{
		Type:        entity.ActivityTypeFor(v.RiskLevel),
		Title:       "Content analysis completed",
		Description: desc,
		Metadata: map[string]any{
			"analysisId": id.String(),
			"riskLevel":  string(v.RiskLevel),
		},
	}
}
