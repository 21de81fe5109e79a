package router

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/vidgate/core/telegram"
	"github.com/m3rciful/vidgate/core/telegram/callbacks"
	"github.com/m3rciful/vidgate/core/telegram/commands"
)

type codedErr struct{ code string }

func (e codedErr) Error() string { return "coded" }
func (e codedErr) Code() string  { return e.code }

func TestDeriveErrorCode(t *testing.T) {
	assert.Equal(t, "", deriveErrorCode(nil))
	assert.Equal(t, "RETRIEVAL_FAILED", deriveErrorCode(fmt.Errorf("wrap: %w", codedErr{"retrieval failed"})))
	assert.Equal(t, "ERRORSTRING", deriveErrorCode(errors.New("x")))
}

func TestNormalizeHandlerName(t *testing.T) {
	assert.Equal(t, "start", normalizeHandlerName("/Start"))
	assert.Equal(t, "unknown", normalizeHandlerName("  "))
	assert.Equal(t, "a_b", normalizeHandlerName("a b"))
}

// newContext binds updates to a bot whose API calls land on a local stub.
func newContext(t *testing.T, upd tele.Update) tele.Context {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	t.Cleanup(srv.Close)
	b, err := tele.NewBot(tele.Settings{Offline: true, URL: srv.URL, Token: "test"})
	require.NoError(t, err)
	return b.NewContext(upd)
}

func TestCallbackRouteDispatchesByKey(t *testing.T) {
	reg := tg.NewRegistry()
	var got string
	require.NoError(t, reg.RegisterCallback("quality", func(c tele.Context) error {
		got = callbacks.Payload(c)
		return nil
	}))
	missing := 0
	reg.SetCallbackNotFound(func(tele.Context) error { missing++; return nil })

	route := CallbackRoute(reg, CallbackOptions{})
	assert.Equal(t, tele.OnCallback, route.Endpoint)

	user := &tele.User{ID: 3}
	_ = route.Handler(newContext(t, tele.Update{ID: 1, Callback: &tele.Callback{
		Sender: user, Data: callbacks.Encode("quality", "720p"),
	}}))
	assert.Equal(t, "720p", got)

	_ = route.Handler(newContext(t, tele.Update{ID: 2, Callback: &tele.Callback{
		Sender: user, Data: callbacks.Encode("nope", ""),
	}}))
	assert.Equal(t, 1, missing)
}

func TestTextRoutesPreferCommandsThenFallback(t *testing.T) {
	reg := tg.NewRegistry()
	var calls []string
	require.NoError(t, reg.RegisterCommand("/help", commands.Command{
		Description: "help",
		Aliases:     []string{"h"},
		Handler:     func(tele.Context) error { calls = append(calls, "help"); return nil },
	}))
	reg.SetTextFallback(func(c tele.Context) error { calls = append(calls, "text:"+c.Text()); return nil })

	routes := TextRoutes(reg, TextOptions{})
	require.NotEmpty(t, routes)
	text := routes[0]
	assert.Equal(t, tele.OnText, text.Endpoint)

	msg := func(s string) tele.Update {
		return tele.Update{Message: &tele.Message{Text: s, Sender: &tele.User{ID: 1}, Chat: &tele.Chat{ID: 1}}}
	}
	require.NoError(t, text.Handler(newContext(t, msg("h"))))
	require.NoError(t, text.Handler(newContext(t, msg("https://example.com/v"))))
	require.NoError(t, text.Handler(newContext(t, msg("/foo"))))
	assert.Equal(t, []string{"help", "text:https://example.com/v"}, calls)
}

func TestTextRoutesUnknownCommandSkipsFallback(t *testing.T) {
	reg := tg.NewRegistry()
	var calls []string
	reg.SetTextFallback(func(c tele.Context) error { calls = append(calls, "text:"+c.Text()); return nil })

	text := TextRoutes(reg, TextOptions{
		UnknownCommand: func(c tele.Context) error { calls = append(calls, "unknown:"+c.Text()); return nil },
	})[0]
	upd := tele.Update{Message: &tele.Message{Text: "/foo bar", Sender: &tele.User{ID: 1}, Chat: &tele.Chat{ID: 1}}}
	require.NoError(t, text.Handler(newContext(t, upd)))
	assert.Equal(t, []string{"unknown:/foo bar"}, calls)
}
