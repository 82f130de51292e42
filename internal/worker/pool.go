package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"moderation-service/internal/entity"
)

// Handler runs the background continuation for one submission.
type Handler interface {
	Process(ctx context.Context, sub entity.Submission) error
}

// Failer terminates a submission whose handler panicked.
type Failer interface {
	Fail(ctx context.Context, id uuid.UUID, cause error)
}

// Pool runs one goroutine per dispatched submission and tracks them so shutdown
// can wait for every in-flight submission to reach a terminal state.
type Pool struct {
	ctx     context.Context
	handler Handler

	wg       sync.WaitGroup
	inflight atomic.Int64
}

// NewPool detaches work from ctx cancellation: a submission that has been
// dispatched always runs to completion.
func NewPool(ctx context.Context, handler Handler) *Pool {
	return &Pool{
		ctx:     context.WithoutCancel(ctx),
		handler: handler,
	}
}

func (p *Pool) Dispatch(sub entity.Submission) {
	p.wg.Add(1)
	p.inflight.Add(1)

	go func() {
		defer p.wg.Done()
		defer p.inflight.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[worker] analysis_id=%s panic=%v", sub.ID, r)
				p.failAfterPanic(sub.ID, r)
			}
		}()

		if err := p.handler.Process(p.ctx, sub); err != nil {
			log.Printf("[worker] analysis_id=%s process error=%v", sub.ID, err)
		}
	}()
}

func (p *Pool) failAfterPanic(id uuid.UUID, r any) {
	f, ok := p.handler.(Failer)
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[worker] analysis_id=%s fail panic=%v", id, r)
		}
	}()
	f.Fail(p.ctx, id, fmt.Errorf("panic: %v", r))
}

func (p *Pool) InFlight() int64 {
	return p.inflight.Load()
}

// Wait blocks until every dispatched submission has finished or ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
