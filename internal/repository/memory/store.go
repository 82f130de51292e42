// Package memory is an in-process Persistence Store used when no database is
// configured and as the store behind the service and worker tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"moderation-service/internal/entity"
	"moderation-service/internal/repository"
)

// Store keeps submissions, activity entries and stats snapshots in insertion
// order. Reads return copies.
type Store struct {
	mu sync.RWMutex

	submissions map[uuid.UUID]entity.Submission
	order       []uuid.UUID
	activity    []entity.ActivityLog
	stats       []entity.SystemStats

	lastStamp time.Time
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		submissions: make(map[uuid.UUID]entity.Submission),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// stamp returns a strictly increasing timestamp; callers hold mu.
func (s *Store) stamp() time.Time {
	s.lastStamp = entity.NextUpdatedAt(s.lastStamp, s.now())
	return s.lastStamp
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateSubmission(_ context.Context, in entity.NewSubmission) (*entity.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.stamp()
	sub := entity.Submission{
		ID:             uuid.New(),
		ContentType:    in.ContentType,
		Content:        in.Content,
		Status:         entity.StatusPending,
		DetectedIssues: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.submissions[sub.ID] = sub
	s.order = append(s.order, sub.ID)

	if in.Activity != nil {
		s.appendLocked(withAnalysisID(*in.Activity, sub.ID))
	}
	out := clone(sub)
	return &out, nil
}

func (s *Store) UpdateSubmission(_ context.Context, id uuid.UUID, upd entity.SubmissionUpdate) (*entity.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !entity.CanTransition(sub.Status, upd.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", repository.ErrInvalidTransition, sub.Status, upd.Status)
	}

	sub.Status = upd.Status
	if upd.Verdict != nil {
		sub.ApplyVerdict(*upd.Verdict)
	}
	sub.UpdatedAt = entity.NextUpdatedAt(sub.UpdatedAt, s.stamp())
	s.submissions[id] = sub

	if upd.Activity != nil {
		s.appendLocked(*upd.Activity)
	}
	out := clone(sub)
	return &out, nil
}

func (s *Store) GetSubmission(_ context.Context, id uuid.UUID) (*entity.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clone(sub)
	return &out, nil
}

func (s *Store) RecentSubmissions(_ context.Context, limit int) ([]entity.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		return []entity.Submission{}, nil
	}
	out := make([]entity.Submission, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, clone(s.submissions[s.order[i]]))
	}
	return out, nil
}

func (s *Store) ListSubmissionsByStatus(_ context.Context, status entity.SubmissionStatus) ([]entity.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []entity.Submission{}
	for _, id := range s.order {
		if sub := s.submissions[id]; sub.Status == status {
			out = append(out, clone(sub))
		}
	}
	return out, nil
}

func (s *Store) AppendActivity(_ context.Context, in entity.NewActivity) (*entity.ActivityLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.appendLocked(in)
	return &entry, nil
}

func (s *Store) appendLocked(in entity.NewActivity) entity.ActivityLog {
	entry := entity.ActivityLog{
		ID:          uuid.New(),
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		Metadata:    entity.CloneMetadata(in.Metadata),
		CreatedAt:   s.stamp(),
	}
	s.activity = append(s.activity, entry)
	return entry
}

func (s *Store) RecentActivity(_ context.Context, limit int) ([]entity.ActivityLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		return []entity.ActivityLog{}, nil
	}
	out := make([]entity.ActivityLog, 0, min(limit, len(s.activity)))
	for i := len(s.activity) - 1; i >= 0 && len(out) < limit; i-- {
		entry := s.activity[i]
		entry.Metadata = entity.CloneMetadata(entry.Metadata)
		out = append(out, entry)
	}
	return out, nil
}

func (s *Store) CurrentStats(context.Context) (*entity.SystemStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.stats) == 0 {
		return nil, repository.ErrNotFound
	}
	cur := s.stats[len(s.stats)-1]
	return &cur, nil
}

func (s *Store) WriteStats(_ context.Context, snap entity.SystemStats) (*entity.SystemStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.writeStatsLocked(snap)
	return &out, nil
}

// ApplyStats reads the current snapshot and writes the derived one under a single
// lock, so concurrent completions never lose increments.
func (s *Store) ApplyStats(_ context.Context, d entity.StatsDelta) (*entity.SystemStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur entity.SystemStats
	if len(s.stats) > 0 {
		cur = s.stats[len(s.stats)-1]
	}
	out := s.writeStatsLocked(cur.Apply(d))
	return &out, nil
}

func (s *Store) writeStatsLocked(snap entity.SystemStats) entity.SystemStats {
	snap.ID = uuid.New()
	snap.UpdatedAt = s.stamp()
	s.stats = append(s.stats, snap)
	return snap
}

func withAnalysisID(a entity.NewActivity, id uuid.UUID) entity.NewActivity {
	a.Metadata = entity.CloneMetadata(a.Metadata)
	a.Metadata["analysisId"] = id.String()
	return a
}

func clone(s entity.Submission) entity.Submission {
	s.DetectedIssues = append([]string{}, s.DetectedIssues...)
	if s.RiskLevel != nil {
		r := *s.RiskLevel
		s.RiskLevel = &r
	}
	if s.ConfidenceScore != nil {
		c := *s.ConfidenceScore
		s.ConfidenceScore = &c
	}
	if s.ProcessingTime != nil {
		p := *s.ProcessingTime
		s.ProcessingTime = &p
	}
	return s
}
