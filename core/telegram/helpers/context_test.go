package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/vidgate/core/logger"
)

func newContext(t *testing.T, upd tele.Update) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b.NewContext(upd)
}

func TestBuildContextCarriesUpdateMeta(t *testing.T) {
	c := newContext(t, tele.Update{
		ID: 7,
		Message: &tele.Message{
			Sender: &tele.User{ID: 11},
			Chat:   &tele.Chat{ID: 22},
			Text:   "https://example.com/v",
		},
	})

	ctx := BuildContext(c)
	assert.Equal(t, "7:22:11", logger.RIDFrom(ctx))
	assert.Equal(t, int64(11), logger.UserIDFrom(ctx))
	assert.Equal(t, int64(22), logger.ChatIDFrom(ctx))

	tagged := WithHandler(c, "url")
	assert.Equal(t, "url", logger.HandlerFrom(tagged))
	again := BuildContext(c)
	assert.Equal(t, "url", logger.HandlerFrom(again))
}
