package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsRowsMixesLinksAndData(t *testing.T) {
	markup := InlineButtonsRows(
		[]InlineBtn{{Text: "Follow", URL: "https://instagram.com/acme"}},
		nil,
		[]InlineBtn{{Text: "Done", Unique: "confirm"}},
	)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "https://instagram.com/acme", markup.InlineKeyboard[0][0].URL)
	assert.Empty(t, markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "Done", markup.InlineKeyboard[1][0].Text)
	assert.Contains(t, markup.InlineKeyboard[1][0].Data, "confirm")
}

func TestInlineButtonsNPerRow(t *testing.T) {
	buttons := []InlineBtn{
		{Text: "144p", Unique: "q", Data: "144p"},
		{Text: "360p", Unique: "q", Data: "360p"},
		{Text: "480p", Unique: "q", Data: "480p"},
		{Text: "720p", Unique: "q", Data: "720p"},
	}
	markup := InlineButtonsNPerRow(buttons, 3)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 3)
	assert.Len(t, markup.InlineKeyboard[1], 1)
	assert.Equal(t, "720p", markup.InlineKeyboard[1][0].Text)

	single := InlineButtonsNPerRow(buttons[:2], 1)
	assert.Len(t, single.InlineKeyboard, 2)
}
