package failure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/vidgate/core/logger"
)

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("HTTP Error 403")
	err := fmt.Errorf("job: %w", New(RetrievalFailed, "fetch", cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, RetrievalFailed, KindOf(err))
	var fe *Error
	if assert.ErrorAs(t, err, &fe) {
		assert.Equal(t, "RETRIEVAL_FAILED", fe.Code())
		assert.Equal(t, "fetch: retrieval_failed: HTTP Error 403", fe.Error())
	}
	assert.Equal(t, "resolve: expired", New(Expired, "resolve", nil).Error())
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, Unexpected, KindOf(errors.New("nil map write")))
	assert.Equal(t, Unexpected, KindOf(nil))
}

func TestReporterNeverLeaksCause(t *testing.T) {
	r := NewReporter("ar")
	ctx := context.Background()
	secret := errors.New("/tmp/vidgate/job-1: permission denied")

	kinds := []Kind{Blocked, ProbeFailed, NoQualities, Expired, RetrievalFailed, Unexpected}
	seen := map[string]bool{}
	for _, k := range kinds {
		msg := r.Report(ctx, 1, "op", New(k, "op", secret))
		assert.NotContains(t, msg, "permission denied")
		assert.Equal(t, catalogs["ar"][k], msg)
		seen[msg] = true
	}
	assert.Len(t, seen, len(kinds), "one distinct message per kind")
	assert.Equal(t, catalogs["ar"][Unexpected], r.Report(ctx, 1, "op", secret))
}

func TestReporterLocales(t *testing.T) {
	assert.Equal(t, catalogs["en"][Expired], NewReporter(" EN ").Message(Expired))
	assert.Equal(t, catalogs["ar"][Expired], NewReporter("fr").Message(Expired))
	assert.Equal(t, catalogs["ar"][Unexpected], NewReporter("").Message(Kind("bogus")))
	for _, loc := range Locales() {
		assert.Len(t, catalogs[loc], 6, loc)
	}
}

func reportRecord(t *testing.T, userID int64, op string, err error) map[string]any {
	t.Helper()
	buf := &bytes.Buffer{}
	restore := logger.Redirect(buf)
	NewReporter("en").Report(context.Background(), userID, op, err)
	restore()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, buf.String())
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	return rec
}

func TestReporterLogsRawCause(t *testing.T) {
	cause := errors.New("ERROR: [generic] HTTP Error 403: Forbidden")
	rec := reportRecord(t, 42, "retrieval.deliver", New(RetrievalFailed, "fetch", cause))

	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "service.report", rec["component"])
	assert.Equal(t, "failure.reported", rec["event"])
	assert.EqualValues(t, 42, rec["user_id"])
	assert.Equal(t, "retrieval.deliver", rec["op"])
	assert.Equal(t, "RETRIEVAL_FAILED", rec["err_code"])
	assert.Contains(t, rec["err"], "HTTP Error 403: Forbidden")
}

func TestReporterLogsBlockedAtInfo(t *testing.T) {
	rec := reportRecord(t, 7, "submit", New(Blocked, "gate", nil))

	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "blocked", rec["status"])
	assert.Equal(t, "BLOCKED", rec["err_code"])
	assert.Equal(t, "gate: blocked", rec["err"])
}
