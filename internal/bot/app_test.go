package bot

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/m3rciful/vidgate/core/telegram"
	"github.com/m3rciful/vidgate/core/telegram/callbacks"
	"github.com/m3rciful/vidgate/internal/appconfig"
	"github.com/m3rciful/vidgate/internal/media"
	"github.com/m3rciful/vidgate/internal/session"
)

const stubMessage = `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":7,"type":"private"},` +
	`"video":{"file_id":"v1","file_unique_id":"u1","width":1,"height":1,"duration":1}}}`

type apiCall struct {
	method string
	body   string
}

type apiStub struct {
	mu    sync.Mutex
	calls []apiCall
}

func (s *apiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.calls = append(s.calls, apiCall{method: r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:], body: string(body)})
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(stubMessage))
}

func (s *apiStub) find(method string) []apiCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []apiCall
	for _, c := range s.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

type fakeProber struct{}

func (fakeProber) Probe(context.Context, string) (media.Info, error) {
	return media.Info{Title: "Clip", Formats: []media.Format{
		{Height: 360, VideoCodec: "avc1"},
		{Height: 720, VideoCodec: "avc1"},
	}}, nil
}

type fakeFetcher struct{ err error }

func (f fakeFetcher) Fetch(_ context.Context, _, _, dir string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(dir, "clip.mp4")
	return path, os.WriteFile(path, []byte("video"), 0o600)
}

type fixture struct {
	app   *App
	store *session.Memory
	stub  *apiStub
	bot   *tele.Bot
	opts  coretelegram.RunOptions
	dir   string
}

func newFixture(t *testing.T, fetcher fakeFetcher) *fixture {
	t.Helper()
	stub := &apiStub{}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	b, err := tele.NewBot(tele.Settings{Offline: true, URL: srv.URL, Token: "123:test"})
	require.NoError(t, err)

	cfg := appconfig.Defaults()
	cfg.Telegram.Token = "123:test"
	cfg.Telegram.AdminID = 99
	cfg.Gate.FollowURL = "https://instagram.com/acme"
	cfg.Bot.Locale = "en"
	require.NoError(t, appconfig.Normalize(cfg))
	cfg.Download.Dir = t.TempDir()

	store := session.NewMemory()
	closed := false
	app, err := New(Options{
		Config:  cfg,
		Store:   store,
		Prober:  fakeProber{},
		Fetcher: fetcher,
		Closers: []func() error{func() error { closed = true; return nil }},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, app.Close())
		assert.True(t, closed)
	})

	opts, err := app.TelegramRunOptions()
	require.NoError(t, err)
	return &fixture{app: app, store: store, stub: stub, bot: b, opts: opts, dir: cfg.Download.Dir}
}

func (f *fixture) route(t *testing.T, endpoint string) tele.HandlerFunc {
	t.Helper()
	for _, r := range f.opts.Routes {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	t.Fatalf("no route for %s", endpoint)
	return nil
}

var (
	chat   = &tele.Chat{ID: 7, Type: tele.ChatPrivate}
	sender = &tele.User{ID: 7, FirstName: "Sam"}
)

func (f *fixture) message(t *testing.T, endpoint, text string) {
	t.Helper()
	upd := tele.Update{ID: 1, Message: &tele.Message{ID: 10, Text: text, Chat: chat, Sender: sender}}
	require.NoError(t, f.route(t, endpoint)(f.bot.NewContext(upd)))
}

func (f *fixture) press(t *testing.T, unique, payload string) {
	t.Helper()
	upd := tele.Update{ID: 2, Callback: &tele.Callback{
		ID:      "cb",
		Sender:  sender,
		Data:    callbacks.Encode(unique, payload),
		Message: &tele.Message{ID: 11, Chat: chat},
	}}
	require.NoError(t, f.route(t, tele.OnCallback)(f.bot.NewContext(upd)))
}

func TestRegistryWiring(t *testing.T) {
	f := newFixture(t, fakeFetcher{})
	reg := f.opts.Registry
	for _, cmd := range []string{"/start", "/help", "/cancel", "/stats"} {
		_, _, ok := reg.LookupCommand(cmd)
		assert.True(t, ok, cmd)
	}
	assert.Equal(t, []string{CallbackConfirm, CallbackQuality}, reg.ListCallbacks())
	assert.NotNil(t, reg.TextFallback())

	visible := reg.ListCommands(true)
	for _, c := range visible {
		assert.NotEqual(t, "/stats", c.Text, "admin commands stay out of the menu")
	}
	assert.NotEmpty(t, f.opts.Middlewares)
	assert.NotNil(t, f.opts.OnStop)
}

func TestGateThenDownloadFlow(t *testing.T) {
	f := newFixture(t, fakeFetcher{})

	f.message(t, "/start", "/start")
	sends := f.stub.find("sendMessage")
	require.Len(t, sends, 1)
	assert.Contains(t, sends[0].body, "https://instagram.com/acme")
	assert.Contains(t, sends[0].body, "confirm")

	f.press(t, CallbackConfirm, "")
	ok, err := f.store.IsConfirmed(context.Background(), sender.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, f.stub.find("editMessageText"))

	f.message(t, tele.OnText, "https://v.example/clip")
	sends = f.stub.find("sendMessage")
	require.Len(t, sends, 2)
	assert.Contains(t, sends[1].body, "quality|360p")
	assert.Contains(t, sends[1].body, "quality|720p")

	f.press(t, CallbackQuality, "720p")
	f.app.pool.Wait()
	require.Len(t, f.stub.find("sendVideo"), 1)
	assert.Contains(t, f.stub.find("sendVideo")[0].body, "720p")

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRetrievalFailureIsReported(t *testing.T) {
	f := newFixture(t, fakeFetcher{err: errors.New("HTTP Error 403")})
	require.NoError(t, f.store.MarkConfirmed(context.Background(), sender.ID))

	f.message(t, tele.OnText, "https://v.example/clip")
	f.press(t, CallbackQuality, "360p")
	f.app.pool.Wait()

	assert.Empty(t, f.stub.find("sendVideo"))
	sends := f.stub.find("sendMessage")
	require.NotEmpty(t, sends)
	last := sends[len(sends)-1].body
	assert.Contains(t, last, "Downloading the video failed")
	assert.NotContains(t, last, "403")
}

func TestMediaGetsHint(t *testing.T) {
	f := newFixture(t, fakeFetcher{})
	upd := tele.Update{ID: 3, Message: &tele.Message{ID: 12, Chat: chat, Sender: sender, Photo: &tele.Photo{}}}
	require.NoError(t, f.route(t, tele.OnPhoto)(f.bot.NewContext(upd)))

	sends := f.stub.find("sendMessage")
	require.Len(t, sends, 1)
	assert.Contains(t, sends[0].body, "content link")
}

func TestUnknownCommandGetsHint(t *testing.T) {
	f := newFixture(t, fakeFetcher{})
	require.NoError(t, f.store.MarkConfirmed(context.Background(), sender.ID))
	f.message(t, tele.OnText, "/foo")

	sends := f.stub.find("sendMessage")
	require.Len(t, sends, 1)
	assert.Contains(t, sends[0].body, "content link")
	assert.NotContains(t, sends[0].body, "Could not process that link")
}

func TestStatsIsAdminOnly(t *testing.T) {
	f := newFixture(t, fakeFetcher{})
	f.message(t, "/stats", "/stats")
	assert.Empty(t, f.stub.find("sendMessage"))
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
	_, err = New(Options{Config: appconfig.Defaults()})
	assert.Error(t, err)
}
