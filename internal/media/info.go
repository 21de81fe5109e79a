// Package media talks to the yt-dlp extractor: probing a URL for its formats
// and fetching one selection to disk.
package media

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInfo is returned when the extractor printed nothing to decode.
var ErrEmptyInfo = errors.New("media: empty extractor output")

// Format is one stream descriptor reported by the extractor.
type Format struct {
	ID         string
	Height     int
	VideoCodec string
	AudioCodec string
	Ext        string
}

// HasVideo reports whether the descriptor may carry a video track. Only an
// explicit "none" rules it out; many extractors omit vcodec on progressive files.
func (f Format) HasVideo() bool {
	return f.VideoCodec != "none"
}

// Info is the probe result for a single URL.
type Info struct {
	ID         string
	Title      string
	WebpageURL string
	Formats    []Format
}

type rawFormat struct {
	FormatID string   `json:"format_id"`
	Height   *float64 `json:"height"`
	VCodec   string   `json:"vcodec"`
	ACodec   string   `json:"acodec"`
	Ext      string   `json:"ext"`
}

type rawInfo struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	WebpageURL string      `json:"webpage_url"`
	Type       string      `json:"_type"`
	Formats    []rawFormat `json:"formats"`
	Entries    []rawInfo   `json:"entries"`
	rawFormat
}

// ParseInfo decodes the output of --dump-single-json. Extractors that expose a
// single stream report it at the top level instead of in "formats"; that case
// is folded into a one-element list. For playlists the first entry is used.
func ParseInfo(data []byte) (Info, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Info{}, ErrEmptyInfo
	}
	var raw rawInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return Info{}, fmt.Errorf("media: decode info: %w", err)
	}
	if raw.Type == "playlist" && len(raw.Entries) > 0 {
		raw = raw.Entries[0]
	}

	info := Info{
		ID:         raw.ID,
		Title:      raw.Title,
		WebpageURL: raw.WebpageURL,
	}
	formats := raw.Formats
	if len(formats) == 0 && (raw.VCodec != "" || raw.Height != nil) {
		formats = []rawFormat{raw.rawFormat}
	}
	info.Formats = make([]Format, 0, len(formats))
	for _, f := range formats {
		info.Formats = append(info.Formats, f.format())
	}
	return info, nil
}

func (f rawFormat) format() Format {
	out := Format{
		ID:         f.FormatID,
		VideoCodec: f.VCodec,
		AudioCodec: f.ACodec,
		Ext:        f.Ext,
	}
	if f.Height != nil && *f.Height > 0 {
		out.Height = int(*f.Height)
	}
	return out
}
