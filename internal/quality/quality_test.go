package quality

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/vidgate/internal/extraction"
	"github.com/m3rciful/vidgate/internal/media"
)

func video(h int) media.Format { return media.Format{Height: h, VideoCodec: "avc1"} }

func TestDeriveOptionsDedupKeepsOrder(t *testing.T) {
	got, err := DeriveOptions([]media.Format{video(360), video(720), video(360)})
	require.NoError(t, err)
	assert.Equal(t, []string{"360p", "720p"}, got)
}

func TestDeriveOptionsSkipsAudioAndHeightless(t *testing.T) {
	formats := []media.Format{
		{Height: 0, VideoCodec: "none", AudioCodec: "opus"},
		{Height: 1080, VideoCodec: "none"},
		{Height: 0, VideoCodec: "vp9"},
		video(1080),
		video(240),
	}
	got, err := DeriveOptions(formats)
	require.NoError(t, err)
	assert.Equal(t, []string{"1080p", "240p"}, got)
}

func TestDeriveOptionsEmpty(t *testing.T) {
	_, err := DeriveOptions(nil)
	assert.ErrorIs(t, err, ErrNoQualities)

	_, err = DeriveOptions([]media.Format{{VideoCodec: "none", Height: 720}})
	assert.ErrorIs(t, err, ErrNoQualities)
}

func TestDeriveOptionsFromCodeclessProbe(t *testing.T) {
	info, err := media.ParseInfo([]byte(`{"formats":[{"height":640},{"height":1080},{"vcodec":"none","height":720}]}`))
	require.NoError(t, err)
	got, err := DeriveOptions(info.Formats)
	require.NoError(t, err)
	assert.Equal(t, []string{"640p", "1080p"}, got)
}

func TestDeriveOptionsProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	heights := []int{0, 144, 240, 360, 480, 720, 1080}
	codecs := []string{"", "none", "h264"}
	for i := 0; i < 200; i++ {
		var formats []media.Format
		var want []string
		seen := map[string]bool{}
		n := rng.Intn(12)
		for j := 0; j < n; j++ {
			f := media.Format{
				Height:     heights[rng.Intn(len(heights))],
				VideoCodec: codecs[rng.Intn(len(codecs))],
			}
			formats = append(formats, f)
			if f.HasVideo() && f.Height > 0 && !seen[Label(f.Height)] {
				seen[Label(f.Height)] = true
				want = append(want, Label(f.Height))
			}
		}
		got, err := DeriveOptions(formats)
		if len(want) == 0 {
			require.ErrorIs(t, err, ErrNoQualities)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, want, got, "formats=%v", formats)
	}
}

func TestRenderChoicesRowsOfThree(t *testing.T) {
	rows := RenderChoices([]string{"144p", "240p", "360p", "480p", "720p"})
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 3)
	assert.Len(t, rows[1], 2)
	assert.Equal(t, Choice{Label: "720p", Payload: "720p"}, rows[1][1])

	assert.Empty(t, RenderChoices(nil))
	assert.Len(t, RenderChoices([]string{"a", "b", "c"}), 1)
}

func TestSelector(t *testing.T) {
	sel, err := Selector("720p")
	require.NoError(t, err)
	assert.Equal(t, "bestvideo[height<=720]+bestaudio/best[height<=720]", sel)

	for _, bad := range []string{"", "720", "p", "-1p", "hdp"} {
		_, err := Selector(bad)
		assert.ErrorIs(t, err, ErrBadLabel, bad)
	}
}

func TestResolve(t *testing.T) {
	cache := extraction.New(time.Minute, time.Minute)
	variants, err := Variants([]string{"360p", "720p"})
	require.NoError(t, err)
	cache.Put(1, extraction.Result{SourceURL: "https://v.example/1", Title: "Clip", Variants: variants})

	r := NewResolver(cache)
	d, err := r.Resolve(1, "720p")
	require.NoError(t, err)
	assert.Equal(t, Directive{
		SourceURL: "https://v.example/1",
		Title:     "Clip",
		Quality:   "720p",
		Selector:  "bestvideo[height<=720]+bestaudio/best[height<=720]",
	}, d)

	_, err = r.Resolve(1, "720p")
	assert.ErrorIs(t, err, ErrExpired, "resolving consumes the slot")
}

func TestResolveExpired(t *testing.T) {
	cache := extraction.New(time.Minute, time.Minute)
	r := NewResolver(cache)

	_, err := r.Resolve(2, "360p")
	assert.ErrorIs(t, err, ErrExpired)

	variants, _ := Variants([]string{"360p"})
	cache.Put(2, extraction.Result{SourceURL: "https://v.example", Variants: variants})
	cache.Invalidate(2)
	_, err = r.Resolve(2, "360p")
	assert.ErrorIs(t, err, ErrExpired)

	cache.Put(2, extraction.Result{SourceURL: "https://v.example", Variants: variants})
	_, err = r.Resolve(2, "1080p")
	assert.ErrorIs(t, err, ErrExpired)
}

type failingSlots struct{}

func (failingSlots) Take(int64) (extraction.Result, error) {
	return extraction.Result{}, fmt.Errorf("boom")
}

func TestResolveOtherErrors(t *testing.T) {
	_, err := NewResolver(failingSlots{}).Resolve(1, "360p")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrExpired)
}
