package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"moderation-service/internal/classifier"
	"moderation-service/internal/entity"
	"moderation-service/internal/repository"
	"moderation-service/internal/repository/memory"
	"moderation-service/internal/worker"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev entity.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []entity.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]entity.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeClassifier struct {
	verdict entity.Verdict
	err     error
	panics  bool
}

func (c fakeClassifier) Classify(context.Context, entity.ContentType, string) (entity.Verdict, error) {
	if c.panics {
		panic("model crashed")
	}
	return c.verdict, c.err
}

type collectDispatcher struct {
	subs []entity.Submission
}

func (d *collectDispatcher) Dispatch(sub entity.Submission) { d.subs = append(d.subs, sub) }

func newPending(t *testing.T, store *memory.Store, content string) entity.Submission {
	t.Helper()
	sub, err := store.CreateSubmission(context.Background(), entity.NewSubmission{ContentType: entity.ContentText, Content: content})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return *sub
}

func sameTypes(got, want []entity.EventType) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestProcessor_KeywordScenarios(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantRisk   entity.RiskLevel
		wantIssues []string
		wantType   entity.ActivityType
		wantDesc   string
	}{
		{
			name:       "clean text",
			content:    "hello world",
			wantRisk:   entity.RiskSafe,
			wantIssues: []string{},
			wantType:   entity.ActivitySuccess,
			wantDesc:   "Clean content detected",
		},
		{
			name:       "violent text",
			content:    "this is a weapon threat, I will kill",
			wantRisk:   entity.RiskHigh,
			wantIssues: []string{"Violence or threats"},
			wantType:   entity.ActivityFlag,
			wantDesc:   "high risk detected: Violence or threats",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.NewStore()
			pub := &recordingPublisher{}
			p := worker.NewProcessor(store, store, classifier.NewKeywordClassifier(classifier.DefaultRules, 0), pub, nil)

			sub := newPending(t, store, tt.content)
			if err := p.Process(ctx, sub); err != nil {
				t.Fatalf("process: %v", err)
			}

			got, err := store.GetSubmission(ctx, sub.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Status != entity.StatusCompleted || got.RiskLevel == nil || *got.RiskLevel != tt.wantRisk {
				t.Fatalf("expected completed/%s, got %s/%v", tt.wantRisk, got.Status, got.RiskLevel)
			}
			if len(got.DetectedIssues) != len(tt.wantIssues) {
				t.Fatalf("expected issues %v, got %v", tt.wantIssues, got.DetectedIssues)
			}
			for i := range tt.wantIssues {
				if got.DetectedIssues[i] != tt.wantIssues[i] {
					t.Fatalf("expected issues %v, got %v", tt.wantIssues, got.DetectedIssues)
				}
			}
			if !got.UpdatedAt.After(got.CreatedAt) {
				t.Fatalf("expected updatedAt after createdAt")
			}

			if want := []entity.EventType{entity.EventProcessing, entity.EventCompleted}; !sameTypes(pub.types(), want) {
				t.Fatalf("expected events %v, got %v", want, pub.types())
			}

			logs, _ := store.RecentActivity(ctx, 10)
			if len(logs) != 1 || logs[0].Type != tt.wantType || logs[0].Description != tt.wantDesc {
				t.Fatalf("unexpected activity: %#v", logs)
			}
			if logs[0].Metadata["analysisId"] != sub.ID.String() || logs[0].Metadata["riskLevel"] != string(tt.wantRisk) {
				t.Fatalf("unexpected activity metadata: %v", logs[0].Metadata)
			}
		})
	}
}

func TestProcessor_ClassifierFaultFailsSubmission(t *testing.T) {
	tests := []struct {
		name string
		cls  fakeClassifier
	}{
		{"error", fakeClassifier{err: errors.New("model unavailable")}},
		{"panic", fakeClassifier{panics: true}},
		{"unknown risk", fakeClassifier{verdict: entity.Verdict{RiskLevel: "extreme"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.NewStore()
			pub := &recordingPublisher{}
			p := worker.NewProcessor(store, store, tt.cls, pub, nil)

			sub := newPending(t, store, "anything")
			err := p.Process(ctx, sub)
			if !errors.Is(err, worker.ErrClassification) {
				t.Fatalf("expected ErrClassification, got %v", err)
			}

			got, _ := store.GetSubmission(ctx, sub.ID)
			if got.Status != entity.StatusFailed {
				t.Fatalf("expected failed, got %s", got.Status)
			}
			if want := []entity.EventType{entity.EventProcessing, entity.EventFailed}; !sameTypes(pub.types(), want) {
				t.Fatalf("expected events %v, got %v", want, pub.types())
			}
			if pub.events[1].Error != "Processing failed" || *pub.events[1].AnalysisID != sub.ID {
				t.Fatalf("unexpected failed event: %+v", pub.events[1])
			}

			if _, err := store.CurrentStats(ctx); !errors.Is(err, repository.ErrNotFound) {
				t.Fatalf("failed submission must not touch stats, got %v", err)
			}
			if logs, _ := store.RecentActivity(ctx, 10); len(logs) != 0 {
				t.Fatalf("failed submission must not log activity, got %d", len(logs))
			}
		})
	}
}

func TestProcessor_SkipsSubmissionAlreadyTerminal(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	p := worker.NewProcessor(store, store, fakeClassifier{verdict: entity.Verdict{RiskLevel: entity.RiskSafe}}, pub, nil)

	sub := newPending(t, store, "hi")
	if err := p.Process(ctx, sub); err != nil {
		t.Fatalf("first process: %v", err)
	}
	if err := p.Process(ctx, sub); err != nil {
		t.Fatalf("second process: %v", err)
	}

	got, _ := store.GetSubmission(ctx, sub.ID)
	if got.Status != entity.StatusCompleted {
		t.Fatalf("terminal record rewritten to %s", got.Status)
	}
	if len(pub.types()) != 2 {
		t.Fatalf("expected no events for the second run, got %v", pub.types())
	}
}

func TestProcessor_SequentialStatsCountExactly(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	p := worker.NewProcessor(store, store, classifier.NewKeywordClassifier(classifier.DefaultRules, 0), &recordingPublisher{}, nil)

	if _, err := store.WriteStats(ctx, entity.SystemStats{TotalAnalyzed: 5, FlaggedContent: 2, QueueLength: 3, AccuracyRate: 9750}); err != nil {
		t.Fatalf("seed stats: %v", err)
	}

	contents := []string{"hello", "buy now", "nice day", "you idiot", "bomb", "ok", "fine"}
	flagged := 3
	for _, c := range contents {
		if err := p.Process(ctx, newPending(t, store, c)); err != nil {
			t.Fatalf("process %q: %v", c, err)
		}
	}

	st, err := store.CurrentStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalAnalyzed != 5+len(contents) || st.FlaggedContent != 2+flagged {
		t.Fatalf("expected total=%d flagged=%d, got %+v", 5+len(contents), 2+flagged, st)
	}
	if st.QueueLength != 0 || st.AccuracyRate != 9750 {
		t.Fatalf("expected queue floored at 0 and accuracy kept, got %+v", st)
	}
}

func TestProcessor_Recover(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	p := worker.NewProcessor(store, store, fakeClassifier{}, pub, nil)

	stuck := newPending(t, store, "stuck")
	if _, err := store.UpdateSubmission(ctx, stuck.ID, entity.SubmissionUpdate{Status: entity.StatusProcessing}); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	waiting := newPending(t, store, "waiting")

	disp := &collectDispatcher{}
	if err := p.Recover(ctx, disp); err != nil {
		t.Fatalf("recover: %v", err)
	}

	got, _ := store.GetSubmission(ctx, stuck.ID)
	if got.Status != entity.StatusFailed {
		t.Fatalf("expected stuck submission failed, got %s", got.Status)
	}
	if len(disp.subs) != 1 || disp.subs[0].ID != waiting.ID {
		t.Fatalf("expected pending submission re-dispatched, got %v", disp.subs)
	}
	if want := []entity.EventType{entity.EventFailed}; !sameTypes(pub.types(), want) {
		t.Fatalf("expected %v, got %v", want, pub.types())
	}
	logs, _ := store.RecentActivity(ctx, 10)
	if len(logs) != 1 || logs[0].Title != "Analysis interrupted" {
		t.Fatalf("unexpected activity: %#v", logs)
	}
}

// flakyFailRepo rejects the first n writes to failed.
type flakyFailRepo struct {
	*memory.Store
	mu sync.Mutex
	n  int
}

func (r *flakyFailRepo) UpdateSubmission(ctx context.Context, id uuid.UUID, upd entity.SubmissionUpdate) (*entity.Submission, error) {
	if upd.Status == entity.StatusFailed {
		r.mu.Lock()
		if r.n > 0 {
			r.n--
			r.mu.Unlock()
			return nil, errors.New("connection reset")
		}
		r.mu.Unlock()
	}
	return r.Store.UpdateSubmission(ctx, id, upd)
}

// statusAtPublish records the stored status when each failed event goes out.
type statusAtPublish struct {
	store *memory.Store
	mu    sync.Mutex
	seen  []entity.SubmissionStatus
}

func (p *statusAtPublish) Publish(ctx context.Context, ev entity.Event) {
	if ev.Type != entity.EventFailed {
		return
	}
	sub, _ := p.store.GetSubmission(ctx, *ev.AnalysisID)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, sub.Status)
}

func TestProcessor_FailRetriesWriteBeforePublishing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo := &flakyFailRepo{Store: store, n: 2}
	pub := &statusAtPublish{store: store}
	p := worker.NewProcessor(repo, store, fakeClassifier{err: errors.New("model unavailable")}, pub, nil)

	sub := newPending(t, store, "anything")
	if err := p.Process(ctx, sub); !errors.Is(err, worker.ErrClassification) {
		t.Fatalf("expected ErrClassification, got %v", err)
	}

	if len(pub.seen) != 1 || pub.seen[0] != entity.StatusFailed {
		t.Fatalf("expected failed persisted before publish, got %v", pub.seen)
	}
}

func TestProcessor_FailLeavesTerminalSubmissionAlone(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	p := worker.NewProcessor(store, store, fakeClassifier{verdict: entity.Verdict{RiskLevel: entity.RiskSafe}}, pub, nil)

	sub := newPending(t, store, "hi")
	if err := p.Process(ctx, sub); err != nil {
		t.Fatalf("process: %v", err)
	}
	p.Fail(ctx, sub.ID, errors.New("late"))

	got, _ := store.GetSubmission(ctx, sub.ID)
	if got.Status != entity.StatusCompleted {
		t.Fatalf("completed submission rewritten to %s", got.Status)
	}
	if want := []entity.EventType{entity.EventProcessing, entity.EventCompleted}; !sameTypes(pub.types(), want) {
		t.Fatalf("expected no failed event, got %v", pub.types())
	}
}
