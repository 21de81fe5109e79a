package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/vidgate/core/telegram"
	"github.com/m3rciful/vidgate/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallback behaviour for text and non-text message updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
	// UnknownCommand handles "/word" text matching no registered command.
	// Such text never reaches the registry fallback.
	UnknownCommand tele.HandlerFunc
	UnknownMedia   tele.HandlerFunc
}

// TextRoutes builds the free-text route plus routes for media the bot does not accept.
// Text that names a registered command (for example "start" typed without the slash)
// is routed to that command. Other slash text goes to UnknownCommand; anything else
// goes to the registry text fallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
					return cmd.Handler(c)
				})
			}
		}
		if strings.HasPrefix(strings.TrimSpace(c.Text()), "/") {
			if opts.UnknownCommand != nil {
				return handleWithSummary(c, "unknown_command", start, func() error {
					return opts.UnknownCommand(c)
				})
			}
			logHandlerSummary(c, "unknown_command", start, "skip", nil)
			return nil
		}
		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "text", start, func() error { return fb(c) })
			}
		}
		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}
		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	mediaHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.UnknownMedia != nil {
			return handleWithSummary(c, "unexpected_media", start, func() error {
				return opts.UnknownMedia(c)
			})
		}
		logHandlerSummary(c, "unexpected_media", start, "skip", nil)
		return nil
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}
	routes := []tg.Route{{Endpoint: tele.OnText, Handler: wrap(handler)}}
	for _, ep := range []string{tele.OnDocument, tele.OnPhoto, tele.OnVideo, tele.OnVoice, tele.OnSticker} {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: wrap(mediaHandler)})
	}
	return routes
}
