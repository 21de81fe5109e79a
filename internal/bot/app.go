// Package bot wires the interaction service to Telegram.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/m3rciful/vidgate/core/logger"
	coretelegram "github.com/m3rciful/vidgate/core/telegram"
	"github.com/m3rciful/vidgate/core/telegram/callbacks"
	"github.com/m3rciful/vidgate/core/telegram/commands"
	tghelpers "github.com/m3rciful/vidgate/core/telegram/helpers"
	"github.com/m3rciful/vidgate/core/telegram/router"
	"github.com/m3rciful/vidgate/internal/appconfig"
	"github.com/m3rciful/vidgate/internal/extraction"
	"github.com/m3rciful/vidgate/internal/failure"
	"github.com/m3rciful/vidgate/internal/gate"
	"github.com/m3rciful/vidgate/internal/interaction"
	"github.com/m3rciful/vidgate/internal/media"
	"github.com/m3rciful/vidgate/internal/retrieval"
	"github.com/m3rciful/vidgate/internal/session"

	tele "gopkg.in/telebot.v4"
)

// Callback keys.
const (
	CallbackConfirm = gate.ConfirmAction
	CallbackQuality = "quality"
)

// Options are the collaborators of an App. Nil Prober or Fetcher fall back
// to yt-dlp.
type Options struct {
	Config  *appconfig.Config
	Store   session.Store
	Prober  interaction.Prober
	Fetcher retrieval.Fetcher
	// Closers run on Close after background jobs have finished.
	Closers []func() error
}

// App is the wired bot.
type App struct {
	cfg     *appconfig.Config
	svc     *interaction.Service
	pool    *retrieval.Pool
	closers []func() error
}

func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("bot: nil config")
	}
	if opts.Store == nil {
		return nil, errors.New("bot: nil session store")
	}
	if opts.Prober == nil || opts.Fetcher == nil {
		yt := media.NewYTDLP(media.YTDLPOptions{
			Binary:      cfg.Download.Binary,
			MergeFormat: cfg.Download.MergeFormat,
		})
		if opts.Prober == nil {
			opts.Prober = yt
		}
		if opts.Fetcher == nil {
			opts.Fetcher = yt
		}
	}
	if err := os.MkdirAll(cfg.Download.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("bot: download dir: %w", err)
	}

	texts := interaction.TextsFor(cfg.Bot.Locale)
	pool := retrieval.NewPool(cfg.Download.MaxParallel)
	svc, err := interaction.New(interaction.Deps{
		Gate: gate.New(opts.Store, gate.Options{
			Enabled:      cfg.Gate.Enabled,
			FollowURL:    cfg.Gate.FollowURL,
			PromptText:   texts.Prompt,
			FollowLabel:  texts.FollowButton,
			ConfirmLabel: texts.ConfirmButton,
		}),
		Cache: extraction.New(
			time.Duration(cfg.Cache.TTLSeconds)*time.Second,
			time.Duration(cfg.Cache.CleanupSeconds)*time.Second,
		),
		Prober: opts.Prober,
		Deliverer: retrieval.NewOrchestrator(opts.Fetcher, retrieval.Options{
			Dir:          cfg.Download.Dir,
			FetchTimeout: cfg.Download.FetchTimeout(),
			Progress:     texts.ProgressText,
			Caption:      texts.CaptionText,
		}),
		Jobs:         pool,
		Counter:      opts.Store,
		Reporter:     failure.NewReporter(cfg.Bot.Locale),
		Texts:        texts,
		ProbeTimeout: cfg.Download.ProbeTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("bot: %w", err)
	}
	return &App{cfg: cfg, svc: svc, pool: pool, closers: opts.Closers}, nil
}

// Registry builds the command and callback table.
func (a *App) Registry() (*coretelegram.Registry, error) {
	reg := coretelegram.NewRegistry()
	err := errors.Join(
		reg.RegisterCommand("/start", commands.Command{
			Description: "Start the bot",
			Handler: a.handle(func(ctx context.Context, u interaction.User, r replier) error {
				return a.svc.Start(ctx, u, r)
			}),
		}),
		reg.RegisterCommand("/help", commands.Command{
			Description: "How to use the bot",
			Handler: a.handle(func(ctx context.Context, _ interaction.User, r replier) error {
				return a.svc.Help(ctx, r)
			}),
		}),
		reg.RegisterCommand("/cancel", commands.Command{
			Description: "Drop the pending quality choice",
			Handler: a.handle(func(ctx context.Context, u interaction.User, r replier) error {
				return a.svc.Cancel(ctx, u, r)
			}),
		}),
		reg.RegisterCommand("/stats", commands.Command{
			Description: "Usage counters",
			AdminOnly:   true,
			Handler: a.handle(func(ctx context.Context, u interaction.User, r replier) error {
				return a.svc.ReportStats(ctx, u, r)
			}),
		}),
		reg.RegisterCallback(CallbackConfirm, a.handle(func(ctx context.Context, u interaction.User, r replier) error {
			return a.svc.Confirm(ctx, u, r)
		})),
		reg.RegisterCallback(CallbackQuality, func(c tele.Context) error {
			label := callbacks.Payload(c)
			return a.handle(func(ctx context.Context, u interaction.User, r replier) error {
				return a.svc.ChooseQuality(ctx, u, label, r)
			})(c)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("bot: register routes: %w", err)
	}
	reg.SetTextFallback(func(c tele.Context) error {
		text := c.Text()
		return a.handle(func(ctx context.Context, u interaction.User, r replier) error {
			return a.svc.SubmitURL(ctx, u, text, r)
		})(c)
	})
	return reg, nil
}

// TelegramRunOptions satisfies the core runner.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg, err := a.Registry()
	if err != nil {
		return coretelegram.RunOptions{}, err
	}
	core := a.cfg.CoreConfig()

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: core.Telegram.AdminID})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	hint := a.handle(func(ctx context.Context, _ interaction.User, r replier) error {
		return a.svc.SendLinkHint(ctx, r)
	})
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{
		UnknownCommand: hint,
		UnknownMedia:   hint,
	})...)

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(core, nil),
		Routes:      routes,
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			logger.Info(ctx, logger.CompRetrieval, "pool.drain",
				slog.Int("active", a.pool.Active()),
				slog.Int("queued", a.pool.Queued()),
			)
			return a.pool.Close(ctx)
		},
	}, nil
}

// Close waits for downloads still running and releases the stores.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	errs := []error{a.pool.Close(ctx)}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

type handlerFunc func(ctx context.Context, u interaction.User, r replier) error

func (a *App) handle(fn handlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		return fn(tghelpers.BuildContext(c), userOf(c), newReplier(c))
	}
}

func userOf(c tele.Context) interaction.User {
	s := c.Sender()
	if s == nil {
		return interaction.User{}
	}
	return interaction.User{ID: s.ID, FirstName: s.FirstName, Username: s.Username}
}
