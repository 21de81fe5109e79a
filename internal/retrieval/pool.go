package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/m3rciful/vidgate/core/logger"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("retrieval: pool closed")

// Pool runs jobs in the background with at most n of them active.
type Pool struct {
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	active atomic.Int64
	queued atomic.Int64

	mu     sync.RWMutex
	closed bool
}

func NewPool(n int) *Pool {
	if n <= 0 {
		n = 2
	}
	return &Pool{sem: semaphore.NewWeighted(int64(n))}
}

// Submit schedules job and returns at once. The job waits for a free slot and
// receives ctx detached from the caller's cancellation.
func (p *Pool) Submit(ctx context.Context, job func(context.Context)) error {
	if job == nil {
		return fmt.Errorf("retrieval: nil job")
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	jobCtx := context.WithoutCancel(ctx)
	p.wg.Add(1)
	p.queued.Add(1)
	go func() {
		defer p.wg.Done()
		// Acquire only fails on a cancelled context, which jobCtx never is.
		_ = p.sem.Acquire(jobCtx, 1)
		p.queued.Add(-1)
		p.active.Add(1)
		defer func() {
			p.active.Add(-1)
			p.sem.Release(1)
		}()
		defer func() {
			if r := recover(); r != nil {
				logger.Error(jobCtx, logger.CompRetrieval, "job.panic",
					slog.String("status", "fail"),
					slog.String("err", fmt.Sprint(r)),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		job(jobCtx)
	}()
	return nil
}

// Active is the number of running jobs.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Queued is the number of jobs waiting for a slot.
func (p *Pool) Queued() int { return int(p.queued.Load()) }

// Close rejects new jobs and waits for submitted ones, or for ctx.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("retrieval: waiting for jobs: %w", ctx.Err())
	}
}

// Wait blocks until every submitted job has finished.
func (p *Pool) Wait() { p.wg.Wait() }
