// Package interaction is the per-user state machine behind the bot: gating,
// URL submission, quality choice and the hand-off to retrieval. It knows
// nothing about Telegram; replies go through a Replier.
package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/m3rciful/vidgate/core/logger"
	"github.com/m3rciful/vidgate/core/telegram/format"
	"github.com/m3rciful/vidgate/internal/extraction"
	"github.com/m3rciful/vidgate/internal/failure"
	"github.com/m3rciful/vidgate/internal/gate"
	"github.com/m3rciful/vidgate/internal/media"
	"github.com/m3rciful/vidgate/internal/quality"
	"github.com/m3rciful/vidgate/internal/retrieval"
)

// User identifies the person behind an event.
type User struct {
	ID        int64
	FirstName string
	Username  string
}

// Replier sends answers back to the user the event came from.
type Replier interface {
	retrieval.Recipient
	Text(ctx context.Context, text string) error
	Markdown(ctx context.Context, text string) error
	Prompt(ctx context.Context, p gate.Prompt) error
	Choices(ctx context.Context, text string, rows [][]quality.Choice) error
}

// Prober lists the formats behind a URL.
type Prober interface {
	Probe(ctx context.Context, url string) (media.Info, error)
}

// Deliverer fetches a directive and sends the file.
type Deliverer interface {
	FetchAndDeliver(ctx context.Context, to retrieval.Recipient, d quality.Directive) retrieval.Report
}

// Jobs runs work off the update path.
type Jobs interface {
	Submit(ctx context.Context, job func(context.Context)) error
	Active() int
	Queued() int
}

// Counter reports how many users have passed the gate.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Gate         *gate.Gate
	Cache        *extraction.Cache
	Prober       Prober
	Deliverer    Deliverer
	Jobs         Jobs
	Counter      Counter
	Reporter     *failure.Reporter
	Texts        Texts
	ProbeTimeout time.Duration
}

// Service handles user events. It is safe for concurrent use.
type Service struct {
	deps     Deps
	resolver *quality.Resolver
}

func New(deps Deps) (*Service, error) {
	switch {
	case deps.Gate == nil:
		return nil, errors.New("interaction: gate is required")
	case deps.Cache == nil:
		return nil, errors.New("interaction: cache is required")
	case deps.Prober == nil:
		return nil, errors.New("interaction: prober is required")
	case deps.Deliverer == nil:
		return nil, errors.New("interaction: deliverer is required")
	case deps.Jobs == nil:
		return nil, errors.New("interaction: jobs is required")
	}
	if deps.Reporter == nil {
		deps.Reporter = failure.NewReporter(failure.DefaultLocale)
	}
	if deps.Texts.ChooseQuality == "" {
		deps.Texts = TextsFor(failure.DefaultLocale)
	}
	if deps.ProbeTimeout <= 0 {
		deps.ProbeTimeout = 60 * time.Second
	}
	return &Service{deps: deps, resolver: quality.NewResolver(deps.Cache)}, nil
}

// Texts exposes the active catalog to the transport layer.
func (s *Service) Texts() Texts { return s.deps.Texts }

// admit runs the gate. It returns false when the caller must stop, after the
// prompt or an error message has been sent.
func (s *Service) admit(ctx context.Context, user User, r Replier, op string) (bool, error) {
	d, err := s.deps.Gate.Check(ctx, user.ID)
	if err != nil {
		return false, s.fail(ctx, user, r, op, failure.New(failure.Unexpected, op, err))
	}
	if d.Allowed {
		return true, nil
	}
	return false, r.Prompt(ctx, *d.Prompt)
}

// fail reports err to the log and the user. Only the send error is returned.
func (s *Service) fail(ctx context.Context, user User, r Replier, op string, err error) error {
	msg := s.deps.Reporter.Report(ctx, user.ID, op, err)
	return r.Text(ctx, msg)
}

// Start greets confirmed users and prompts everyone else.
func (s *Service) Start(ctx context.Context, user User, r Replier) error {
	ok, err := s.admit(ctx, user, r, "start")
	if !ok {
		return err
	}
	name := user.FirstName
	if name == "" {
		name = user.Username
	}
	return r.Markdown(ctx, fmt.Sprintf(s.deps.Texts.Welcome, format.MustEscapeV1(name)))
}

func (s *Service) Help(ctx context.Context, r Replier) error {
	return r.Markdown(ctx, s.deps.Texts.Help)
}

// Confirm records the follow confirmation. Repeated presses just thank again.
func (s *Service) Confirm(ctx context.Context, user User, r Replier) error {
	if err := s.deps.Gate.Confirm(ctx, user.ID); err != nil {
		return s.fail(ctx, user, r, "confirm", failure.New(failure.Unexpected, "confirm", err))
	}
	return r.Acknowledge(ctx, s.deps.Texts.Thanks)
}

// SubmitURL probes text as a URL and offers its qualities. A well-formed link
// drops any earlier pending selection before probing, so the last submission wins.
func (s *Service) SubmitURL(ctx context.Context, user User, text string, r Replier) error {
	const op = "submit_url"
	ok, err := s.admit(ctx, user, r, op)
	if !ok {
		return err
	}
	link, err := parseLink(text)
	if err != nil {
		return s.fail(ctx, user, r, op, failure.New(failure.ProbeFailed, op, err))
	}
	s.deps.Cache.Invalidate(user.ID)

	probeCtx, cancel := context.WithTimeout(ctx, s.deps.ProbeTimeout)
	info, err := s.deps.Prober.Probe(probeCtx, link)
	cancel()
	if err != nil {
		return s.fail(ctx, user, r, op, failure.New(failure.ProbeFailed, op, err))
	}

	options, err := quality.DeriveOptions(info.Formats)
	if err != nil {
		return s.fail(ctx, user, r, op, classify(op, err))
	}
	variants, err := quality.Variants(options)
	if err != nil {
		return s.fail(ctx, user, r, op, classify(op, err))
	}
	s.deps.Cache.Put(user.ID, extraction.Result{
		SourceURL: link,
		Title:     info.Title,
		Variants:  variants,
	})
	logger.Info(ctx, logger.CompExtract, "extract.offered",
		slog.String("status", "ok"),
		slog.Int64("user_id", user.ID),
		slog.String("qualities", strings.Join(options, ",")),
	)
	return r.Choices(ctx, s.deps.Texts.choosePrompt(info.Title), quality.RenderChoices(options))
}

// ChooseQuality resolves label against the pending selection and queues the
// download. The user is re-gated first.
func (s *Service) ChooseQuality(ctx context.Context, user User, label string, r Replier) error {
	const op = "choose_quality"
	ok, err := s.admit(ctx, user, r, op)
	if !ok {
		return err
	}
	d, err := s.resolver.Resolve(user.ID, label)
	if err != nil {
		return s.fail(ctx, user, r, op, classify(op, err))
	}

	err = s.deps.Jobs.Submit(ctx, func(jobCtx context.Context) {
		rep := s.deps.Deliverer.FetchAndDeliver(jobCtx, r, d)
		if rep.Err == nil {
			return
		}
		if sendErr := s.fail(jobCtx, user, r, op, rep.Err); sendErr != nil {
			logger.Warn(jobCtx, logger.CompReport, "failure.send",
				slog.String("status", "fail"),
				slog.String("err", sendErr.Error()),
			)
		}
	})
	if err != nil {
		return s.fail(ctx, user, r, op, failure.New(failure.Unexpected, op, err))
	}
	return nil
}

// Cancel drops the pending selection, if any.
func (s *Service) Cancel(ctx context.Context, user User, r Replier) error {
	ok, err := s.admit(ctx, user, r, "cancel")
	if !ok {
		return err
	}
	if _, err := s.deps.Cache.Take(user.ID); err != nil {
		return r.Text(ctx, s.deps.Texts.NothingToCancel)
	}
	return r.Text(ctx, s.deps.Texts.Cancelled)
}

// SendLinkHint answers non-text messages.
func (s *Service) SendLinkHint(ctx context.Context, r Replier) error {
	return r.Text(ctx, s.deps.Texts.SendLink)
}

// Stats is a snapshot for the admin.
type Stats struct {
	Confirmed int
	Active    int
	Queued    int
	Pending   int
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	st := Stats{
		Active:  s.deps.Jobs.Active(),
		Queued:  s.deps.Jobs.Queued(),
		Pending: s.deps.Cache.Len(),
	}
	if s.deps.Counter != nil {
		n, err := s.deps.Counter.Count(ctx)
		if err != nil {
			return st, fmt.Errorf("interaction: count confirmed: %w", err)
		}
		st.Confirmed = n
	}
	return st, nil
}

// ReportStats sends the snapshot as text.
func (s *Service) ReportStats(ctx context.Context, user User, r Replier) error {
	st, err := s.Stats(ctx)
	if err != nil {
		return s.fail(ctx, user, r, "stats", failure.New(failure.Unexpected, "stats", err))
	}
	return r.Text(ctx, fmt.Sprintf(s.deps.Texts.Stats, st.Confirmed, st.Active, st.Queued, st.Pending))
}

func classify(op string, err error) error {
	var fe *failure.Error
	switch {
	case errors.As(err, &fe):
		return err
	case errors.Is(err, quality.ErrNoQualities):
		return failure.New(failure.NoQualities, op, err)
	case errors.Is(err, quality.ErrExpired), errors.Is(err, extraction.ErrNotFound):
		return failure.New(failure.Expired, op, err)
	default:
		return failure.New(failure.Unexpected, op, err)
	}
}

// parseLink accepts a single absolute http(s) URL, surrounding spaces allowed.
func parseLink(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsAny(text, " \n\t") {
		return "", fmt.Errorf("not a single link: %q", logger.SanitizeLimit(text, 64))
	}
	u, err := url.ParseRequestURI(text)
	if err != nil {
		return "", fmt.Errorf("parse link: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("link has no host")
	}
	return u.String(), nil
}
