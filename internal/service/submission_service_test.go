package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"moderation-service/internal/entity"
	"moderation-service/internal/repository/memory"
	"moderation-service/internal/service"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []entity.Event
}

func (p *fakePublisher) Publish(_ context.Context, ev entity.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

type fakeDispatcher struct {
	dispatched []entity.Submission
}

func (d *fakeDispatcher) Dispatch(sub entity.Submission) {
	d.dispatched = append(d.dispatched, sub)
}

// failingRepo fails every create; the other methods are never reached.
type failingRepo struct {
	service.SubmissionRepository
	err error
}

func (r failingRepo) CreateSubmission(context.Context, entity.NewSubmission) (*entity.Submission, error) {
	return nil, r.err
}

func TestSubmissionService_Submit_PublishesStartedAndDispatches(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pub := &fakePublisher{}
	disp := &fakeDispatcher{}
	svc := service.NewSubmissionService(store, pub, disp, nil)

	sub, err := svc.Submit(ctx, service.SubmitRequest{ContentType: entity.ContentText, Content: "hello world"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if sub.Status != entity.StatusPending {
		t.Fatalf("expected pending, got %s", sub.Status)
	}

	if len(pub.events) != 1 || pub.events[0].Type != entity.EventStarted || pub.events[0].Analysis.ID != sub.ID {
		t.Fatalf("expected one analysis_started event, got %#v", pub.events)
	}
	if len(disp.dispatched) != 1 || disp.dispatched[0].ID != sub.ID {
		t.Fatalf("expected dispatch of %s, got %#v", sub.ID, disp.dispatched)
	}

	logs, _ := store.RecentActivity(ctx, 10)
	if len(logs) != 1 || logs[0].Type != entity.ActivityInfo || logs[0].Description != "text analysis initiated" {
		t.Fatalf("unexpected activity: %#v", logs)
	}
}

func TestSubmissionService_Submit_ValidationLeavesNoState(t *testing.T) {
	tests := []struct {
		name string
		req  service.SubmitRequest
	}{
		{"empty image content", service.SubmitRequest{ContentType: entity.ContentImage, Content: ""}},
		{"whitespace content", service.SubmitRequest{ContentType: entity.ContentText, Content: "   \n"}},
		{"unknown type", service.SubmitRequest{ContentType: "pdf", Content: "x"}},
		{"too large", service.SubmitRequest{ContentType: entity.ContentText, Content: strings.Repeat("a", service.MaxContentBytes+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.NewStore()
			pub := &fakePublisher{}
			disp := &fakeDispatcher{}
			svc := service.NewSubmissionService(store, pub, disp, nil)

			_, err := svc.Submit(ctx, tt.req)
			if !errors.Is(err, service.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}

			recent, _ := store.RecentSubmissions(ctx, 10)
			if len(recent) != 0 {
				t.Fatalf("expected no submission, got %d", len(recent))
			}
			if len(pub.events) != 0 || len(disp.dispatched) != 0 {
				t.Fatalf("expected no events/dispatch, got %d/%d", len(pub.events), len(disp.dispatched))
			}
		})
	}
}

func TestSubmissionService_Submit_PersistenceErrorReturned(t *testing.T) {
	boom := errors.New("db down")
	pub := &fakePublisher{}
	disp := &fakeDispatcher{}
	svc := service.NewSubmissionService(failingRepo{err: boom}, pub, disp, nil)

	_, err := svc.Submit(context.Background(), service.SubmitRequest{ContentType: entity.ContentText, Content: "hi"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected db error, got %v", err)
	}
	if len(pub.events) != 0 || len(disp.dispatched) != 0 {
		t.Fatal("nothing may be published or dispatched after a failed create")
	}
}

func TestSubmissionService_RecentAndQueue(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := service.NewSubmissionService(store, &fakePublisher{}, &fakeDispatcher{}, nil)

	var ids []uuid.UUID
	for i := 0; i < 12; i++ {
		sub, err := svc.Submit(ctx, service.SubmitRequest{ContentType: entity.ContentText, Content: "item"})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		ids = append(ids, sub.ID)
	}

	recent, err := svc.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != service.DefaultListLimit || recent[0].ID != ids[11] {
		t.Fatalf("expected %d most recent first, got %d", service.DefaultListLimit, len(recent))
	}

	queue, err := svc.Queue(ctx)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(queue) != 12 || queue[0].ID != ids[0] {
		t.Fatalf("expected 12 pending oldest first, got %d", len(queue))
	}
}

func TestClampLimit(t *testing.T) {
	tests := map[int]int{-1: 10, 0: 10, 5: 5, 100: 100, 1000: 100}
	for in, want := range tests {
		if got := service.ClampLimit(in); got != want {
			t.Errorf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
