package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/vidgate/core/logger"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestDispatcherKeepsPerChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 32})
	ctx := logger.WithUpdateMeta(context.Background(), 1, 10, 42)

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 20; i++ {
		i := i
		require.NoError(t, d.Enqueue(ctx, "send.text", "sendMessage", func() error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}))
	}
	d.Close()

	require.Len(t, got, 20)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
	assert.ErrorIs(t, d.Enqueue(ctx, "send.text", "", func() error { return nil }), ErrQueueClosed)
}

func TestDispatcherDoRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{MaxRetries: 2, RetryBackoff: time.Millisecond})
	defer d.Close()

	calls := 0
	err := d.Do(context.Background(), "send.video", "sendVideo", func() error {
		calls++
		if calls < 3 {
			return timeoutErr{}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherDoReturnsPermanentError(t *testing.T) {
	d := NewDispatcher(Options{MaxRetries: 3, RetryBackoff: time.Millisecond})
	defer d.Close()

	boom := errors.New("bad request (400)")
	calls := 0
	err := d.Do(context.Background(), "send.video", "sendVideo", func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, "timeout", classifyError(context.DeadlineExceeded))
	assert.Equal(t, "cancelled", classifyError(context.Canceled))
	assert.Equal(t, "too_large", classifyError(errors.New("telegram: Request Entity Too Large (413)")))
	assert.Equal(t, "http_5xx", classifyError(errors.New("telegram: internal (502)")))
	assert.Equal(t, "unknown", classifyError(errors.New("weird")))
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123:AAbb-cc_d/sendVideo": EOF`)
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendVideo": EOF`, sanitizeErrorMessage(err))
}
