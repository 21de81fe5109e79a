package bot

import (
	"context"

	tghelpers "github.com/m3rciful/vidgate/core/telegram/helpers"
	"github.com/m3rciful/vidgate/core/telegram/keyboard"
	"github.com/m3rciful/vidgate/internal/gate"
	"github.com/m3rciful/vidgate/internal/interaction"
	"github.com/m3rciful/vidgate/internal/quality"

	tele "gopkg.in/telebot.v4"
)

// replier answers in the chat an update came from. Text goes through the
// async dispatcher; videos are sent synchronously so failures surface.
type replier struct {
	c tele.Context
}

var _ interaction.Replier = replier{}

func newReplier(c tele.Context) replier { return replier{c: c} }

func (r replier) Text(_ context.Context, text string) error {
	return tghelpers.SendText(r.c, text)
}

func (r replier) Markdown(_ context.Context, text string) error {
	return tghelpers.SendMD(r.c, text)
}

func (r replier) Prompt(_ context.Context, p gate.Prompt) error {
	return tghelpers.SendText(r.c, p.Text, &tele.SendOptions{ReplyMarkup: promptMarkup(p)})
}

func (r replier) Choices(_ context.Context, text string, rows [][]quality.Choice) error {
	return tghelpers.SendText(r.c, text, &tele.SendOptions{ReplyMarkup: choicesMarkup(rows)})
}

// Acknowledge edits the message whose button was pressed, or sends a new one.
func (r replier) Acknowledge(_ context.Context, text string) error {
	return tghelpers.EditOrSendText(r.c, text)
}

func (r replier) SendVideo(_ context.Context, path, caption string) error {
	return tghelpers.SendVideo(r.c, path, caption)
}

func promptMarkup(p gate.Prompt) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: p.FollowLabel, URL: p.FollowURL}},
		[]keyboard.InlineBtn{{Text: p.ConfirmLabel, Unique: p.ConfirmKey}},
	)
}

func choicesMarkup(rows [][]quality.Choice) *tele.ReplyMarkup {
	out := make([][]keyboard.InlineBtn, 0, len(rows))
	for _, row := range rows {
		btns := make([]keyboard.InlineBtn, 0, len(row))
		for _, ch := range row {
			btns = append(btns, keyboard.InlineBtn{Text: ch.Label, Unique: CallbackQuality, Data: ch.Payload})
		}
		out = append(out, btns)
	}
	return keyboard.InlineButtonsRows(out...)
}
