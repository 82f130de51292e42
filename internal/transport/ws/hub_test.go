package ws_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"

	"moderation-service/internal/entity"
	"moderation-service/internal/transport/ws"
)

type fakeSubscriber struct {
	id string

	mu     sync.Mutex
	msgs   [][]byte
	err    error
	closes int
}

func newFake(id string) *fakeSubscriber { return &fakeSubscriber{id: id} }

func (f *fakeSubscriber) ID() string { return f.id }

func (f *fakeSubscriber) Deliver(msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeSubscriber) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
}

func (f *fakeSubscriber) types(t *testing.T) []entity.EventType {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.EventType, 0, len(f.msgs))
	for _, m := range f.msgs {
		var ev entity.Event
		if err := json.Unmarshal(m, &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		out = append(out, ev.Type)
	}
	return out
}

func TestHub_JoinGreetsOnlyNewMember(t *testing.T) {
	hub := ws.NewHub()
	a, b := newFake("a"), newFake("b")

	if err := hub.Join(a); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if err := hub.Join(b); err != nil {
		t.Fatalf("join b: %v", err)
	}

	if got := a.types(t); len(got) != 1 || got[0] != entity.EventConnected {
		t.Fatalf("a expected only its own greeting, got %v", got)
	}
	if hub.Count() != 2 {
		t.Fatalf("expected 2 members, got %d", hub.Count())
	}
}

func TestHub_LeaveIsIdempotent(t *testing.T) {
	hub := ws.NewHub()
	a := newFake("a")
	_ = hub.Join(a)

	hub.Leave("a")
	hub.Leave("a")
	hub.Leave("never-joined")

	if hub.Count() != 0 {
		t.Fatalf("expected empty hub, got %d", hub.Count())
	}
	if a.closes != 1 {
		t.Fatalf("expected one close, got %d", a.closes)
	}
}

func TestHub_PublishReachesOnlyCurrentMembers(t *testing.T) {
	hub := ws.NewHub()
	early, late := newFake("early"), newFake("late")
	_ = hub.Join(early)

	id := uuid.New()
	hub.Publish(context.Background(), entity.ProcessingEvent(id))
	_ = hub.Join(late)
	hub.Publish(context.Background(), entity.FailedEvent(id))

	wantEarly := []entity.EventType{entity.EventConnected, entity.EventProcessing, entity.EventFailed}
	wantLate := []entity.EventType{entity.EventConnected, entity.EventFailed}
	if got := early.types(t); !equal(got, wantEarly) {
		t.Fatalf("early: expected %v, got %v", wantEarly, got)
	}
	if got := late.types(t); !equal(got, wantLate) {
		t.Fatalf("late: expected %v, got %v", wantLate, got)
	}
}

func TestHub_PublishDropsFailingMember(t *testing.T) {
	hub := ws.NewHub()
	ok, slow := newFake("ok"), newFake("slow")
	_ = hub.Join(ok)
	_ = hub.Join(slow)

	slow.mu.Lock()
	slow.err = ws.ErrSlowConsumer
	slow.mu.Unlock()

	hub.Publish(context.Background(), entity.ProcessingEvent(uuid.New()))

	if hub.Count() != 1 {
		t.Fatalf("expected slow member dropped, got %d members", hub.Count())
	}
	if slow.closes != 1 {
		t.Fatalf("expected slow member closed once, got %d", slow.closes)
	}
	if got := ok.types(t); len(got) != 2 {
		t.Fatalf("healthy member should still get the event, got %v", got)
	}
}

func TestHub_ConcurrentJoinLeavePublish(t *testing.T) {
	hub := ws.NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := uuid.NewString()
		go func() {
			defer wg.Done()
			_ = hub.Join(newFake(id))
			hub.Leave(id)
		}()
		go func() {
			defer wg.Done()
			hub.Publish(context.Background(), entity.ProcessingEvent(uuid.New()))
		}()
	}
	wg.Wait()

	if hub.Count() != 0 {
		t.Fatalf("expected empty hub, got %d", hub.Count())
	}
}

func equal(a, b []entity.EventType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
