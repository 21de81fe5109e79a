package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeMarkdown(t *testing.T) {
	out, err := EscapeMarkdown("my_video *final* [hd]", MarkdownV1)
	require.NoError(t, err)
	assert.Equal(t, `my\_video \*final\* \[hd]`, out)

	out, err = EscapeMarkdown("v1.2 (hd)!", MarkdownV2)
	require.NoError(t, err)
	assert.Equal(t, `v1\.2 \(hd\)\!`, out)

	_, err = EscapeMarkdown("x", 3)
	assert.Error(t, err)

	assert.Equal(t, `a\_b`, MustEscapeV1("a_b"))
}
