// Package gate enforces the one-time follow confirmation in front of every
// functional interaction.
package gate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/vidgate/core/logger"
	"github.com/m3rciful/vidgate/internal/session"
)

// ConfirmAction is the callback key of the "I followed" button.
const ConfirmAction = "confirm"

// Prompt is what a blocked user is shown: a text, an external follow link and
// a confirm action.
type Prompt struct {
	Text         string
	FollowLabel  string
	FollowURL    string
	ConfirmLabel string
	ConfirmKey   string
}

// Decision is the outcome of Check. Prompt is set only when Allowed is false.
type Decision struct {
	Allowed bool
	Prompt  *Prompt
}

// Options configures a Gate. Disabled gates let everyone through.
type Options struct {
	Enabled      bool
	FollowURL    string
	PromptText   string
	FollowLabel  string
	ConfirmLabel string
}

// Gate decides whether a user may proceed.
type Gate struct {
	store  session.Store
	opts   Options
	prompt Prompt
}

func New(store session.Store, opts Options) *Gate {
	return &Gate{
		store: store,
		opts:  opts,
		prompt: Prompt{
			Text:         opts.PromptText,
			FollowLabel:  opts.FollowLabel,
			FollowURL:    opts.FollowURL,
			ConfirmLabel: opts.ConfirmLabel,
			ConfirmKey:   ConfirmAction,
		},
	}
}

// Check reports whether userID has confirmed. Store errors are returned as is
// and the caller must treat them as a refusal.
func (g *Gate) Check(ctx context.Context, userID int64) (Decision, error) {
	if !g.opts.Enabled {
		return Decision{Allowed: true}, nil
	}
	ok, err := g.store.IsConfirmed(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("gate check: %w", err)
	}
	if ok {
		return Decision{Allowed: true}, nil
	}
	logger.Debug(ctx, logger.CompGate, "gate.blocked",
		slog.String("status", "blocked"),
		slog.Int64("user_id", userID),
	)
	prompt := g.prompt
	return Decision{Prompt: &prompt}, nil
}

// Confirm records the confirmation. Confirming again is a no-op.
func (g *Gate) Confirm(ctx context.Context, userID int64) error {
	if err := g.store.MarkConfirmed(ctx, userID); err != nil {
		return fmt.Errorf("gate confirm: %w", err)
	}
	logger.Info(ctx, logger.CompGate, "gate.confirmed",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
	)
	return nil
}
