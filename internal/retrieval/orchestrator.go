// Package retrieval downloads a chosen variant into a private workspace,
// delivers it and removes the workspace afterwards.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/vidgate/core/logger"
	"github.com/m3rciful/vidgate/internal/failure"
	"github.com/m3rciful/vidgate/internal/quality"
)

const op = "retrieval.fetch_and_deliver"

// Fetcher downloads one selection of url into dir and returns the file path.
type Fetcher interface {
	Fetch(ctx context.Context, url, selector, dir string) (string, error)
}

// Recipient is the user side of a delivery.
type Recipient interface {
	Acknowledge(ctx context.Context, text string) error
	SendVideo(ctx context.Context, path, caption string) error
}

// Options configures an Orchestrator.
type Options struct {
	// Dir is the parent of the per-job workspaces.
	Dir          string
	FetchTimeout time.Duration
	Progress     func(quality.Directive) string
	Caption      func(quality.Directive) string
}

// Report describes a finished FetchAndDeliver call. Err is nil on success and
// otherwise a *failure.Error.
type Report struct {
	JobID    string
	Quality  string
	Bytes    int64
	Duration time.Duration
	Err      error
}

// Orchestrator runs fetch and delivery for one directive at a time per call.
type Orchestrator struct {
	fetcher Fetcher
	opts    Options
}

func NewOrchestrator(fetcher Fetcher, opts Options) *Orchestrator {
	if opts.Dir == "" {
		opts.Dir = filepath.Join(os.TempDir(), "vidgate")
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Minute
	}
	if opts.Progress == nil {
		opts.Progress = func(d quality.Directive) string { return "⏳ " + d.Quality }
	}
	if opts.Caption == nil {
		opts.Caption = func(d quality.Directive) string { return d.Quality }
	}
	return &Orchestrator{fetcher: fetcher, opts: opts}
}

// FetchAndDeliver never retries. The workspace is removed on every return
// path, panics included.
func (o *Orchestrator) FetchAndDeliver(ctx context.Context, to Recipient, d quality.Directive) (rep Report) {
	start := time.Now()
	rep.JobID = uuid.NewString()
	rep.Quality = d.Quality
	ctx = logger.WithJobID(ctx, rep.JobID)

	defer func() {
		if r := recover(); r != nil {
			rep.Err = failure.New(failure.Unexpected, op, fmt.Errorf("panic: %v", r))
		}
		rep.Duration = logger.Took(start)
		logDone(ctx, rep)
	}()

	if err := to.Acknowledge(ctx, o.opts.Progress(d)); err != nil {
		logger.Warn(ctx, logger.CompRetrieval, "ack.failed",
			slog.String("status", "skip"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}

	workspace := filepath.Join(o.opts.Dir, rep.JobID)
	if err := os.MkdirAll(workspace, 0o750); err != nil {
		rep.Err = failure.New(failure.RetrievalFailed, op, fmt.Errorf("create workspace: %w", err))
		return rep
	}
	defer cleanup(ctx, workspace)

	fetchCtx, cancel := context.WithTimeout(ctx, o.opts.FetchTimeout)
	path, err := o.fetcher.Fetch(fetchCtx, d.SourceURL, d.Selector, workspace)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("fetch timed out after %s: %w", o.opts.FetchTimeout, err)
		}
		rep.Err = failure.New(failure.RetrievalFailed, op, err)
		return rep
	}
	if fi, statErr := os.Stat(path); statErr == nil {
		rep.Bytes = fi.Size()
	}

	if err := to.SendVideo(ctx, path, o.opts.Caption(d)); err != nil {
		rep.Err = failure.New(failure.RetrievalFailed, op, fmt.Errorf("deliver: %w", err))
		return rep
	}
	return rep
}

func cleanup(ctx context.Context, workspace string) {
	if err := os.RemoveAll(workspace); err != nil {
		logger.Error(ctx, logger.CompRetrieval, "workspace.cleanup",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

func logDone(ctx context.Context, rep Report) {
	attrs := []slog.Attr{
		slog.String("status", logger.Status(rep.Err)),
		slog.String("quality", rep.Quality),
		slog.Int64("bytes", rep.Bytes),
		slog.Duration("duration", rep.Duration),
	}
	if rep.Err != nil {
		// the Reporter logs the cause at ERROR
		logger.Warn(ctx, logger.CompRetrieval, "retrieval.done", attrs...)
		return
	}
	logger.Info(ctx, logger.CompRetrieval, "retrieval.done", attrs...)
}
