package netutil

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("no route")}
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("telegram: bad request (400)"), false},
		{"dial", dial, true},
		{"wrapped reset", fmt.Errorf("send: %w", syscall.ECONNRESET), true},
		{"url eof", &url.Error{Op: "Post", URL: "x", Err: io.ErrUnexpectedEOF}, true},
		{"url plain", &url.Error{Op: "Post", URL: "x", Err: errors.New("nope")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldRetry(tc.err))
		})
	}
}
