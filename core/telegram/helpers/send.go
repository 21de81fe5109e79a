package helpers

import (
	"errors"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/m3rciful/vidgate/core/logger"
	"github.com/m3rciful/vidgate/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the outbound dispatcher used by the send helpers.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("op", action),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

func sendSync(c tele.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}
	return disp.Do(BuildContext(c), action, endpoint, run)
}

// SendText queues raw text (no parse mode) to the current chat.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendMD queues a Markdown message with optional reply markup.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	return SendText(c, text, &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: rm})
}

// EditOrSendText replaces the message behind a callback, or sends a new one
// when the update carries nothing editable.
func EditOrSendText(c tele.Context, text string) error {
	return sendAsync(c, "edit.text", "editMessageText", func() error {
		return c.EditOrSend(text)
	})
}

// SendVideo uploads a local file as a streamable video and waits for Telegram to accept it.
func SendVideo(c tele.Context, path, caption string) error {
	video := &tele.Video{
		File:      tele.FromDisk(path),
		FileName:  filepath.Base(path),
		Caption:   caption,
		Streaming: true,
	}
	return sendSync(c, "send.video", "sendVideo", func() error {
		return c.Send(video)
	})
}
