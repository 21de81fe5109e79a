// Package failure classifies errors raised while serving a user and turns them
// into one fixed, localized message per kind. The raw cause only reaches the log.
package failure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/vidgate/core/logger"
)

// Kind names a user-visible failure class.
type Kind string

const (
	Blocked         Kind = "blocked"
	ProbeFailed     Kind = "probe_failed"
	NoQualities     Kind = "no_qualities"
	Expired         Kind = "expired"
	RetrievalFailed Kind = "retrieval_failed"
	Unexpected      Kind = "unexpected"
)

// Error tags an underlying cause with its Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// New wraps err. A nil err still yields a usable *Error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Code is the upper-case kind, picked up by the router's error-code derivation.
func (e *Error) Code() string { return strings.ToUpper(string(e.Kind)) }

// KindOf returns the Kind carried by err; anything unclassified is Unexpected.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) && fe.Kind != "" {
		return fe.Kind
	}
	return Unexpected
}

// Reporter renders failures for users and logs their causes.
type Reporter struct {
	messages map[Kind]string
}

// NewReporter picks the message catalog for locale, falling back to Arabic.
func NewReporter(locale string) *Reporter {
	msgs, ok := catalogs[strings.ToLower(strings.TrimSpace(locale))]
	if !ok {
		msgs = catalogs[DefaultLocale]
	}
	return &Reporter{messages: msgs}
}

// Message returns the fixed text for kind.
func (r *Reporter) Message(kind Kind) string {
	if msg, ok := r.messages[kind]; ok {
		return msg
	}
	return r.messages[Unexpected]
}

// Report logs err with the user and operation and returns the text to show the user.
// Blocked is an expected outcome and is logged at INFO; every other kind at ERROR.
func (r *Reporter) Report(ctx context.Context, userID int64, op string, err error) string {
	kind := KindOf(err)
	attrs := []slog.Attr{
		slog.String("status", "fail"),
		slog.Int64("user_id", userID),
		slog.String("op", op),
		slog.String("kind", string(kind)),
		slog.String("err_code", strings.ToUpper(string(kind))),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 512)))
	}
	if kind == Blocked {
		attrs[0] = slog.String("status", "blocked")
		logger.Info(ctx, logger.CompReport, "failure.reported", attrs...)
	} else {
		logger.Error(ctx, logger.CompReport, "failure.reported", attrs...)
	}
	return r.Message(kind)
}
