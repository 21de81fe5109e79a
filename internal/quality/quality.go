// Package quality turns probe formats into selectable labels and maps a chosen
// label back to a fetch directive.
package quality

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/vidgate/internal/extraction"
	"github.com/m3rciful/vidgate/internal/media"
)

var (
	// ErrNoQualities means the probe yielded no video-bearing format with a height.
	ErrNoQualities = errors.New("quality: no selectable qualities")
	// ErrExpired means the choice does not match the result cached for the user.
	ErrExpired = errors.New("quality: selection expired")
	// ErrBadLabel is returned for labels not of the form "{height}p".
	ErrBadLabel = errors.New("quality: malformed label")
)

// PerRow is the number of quality buttons per keyboard row.
const PerRow = 3

// Choice is one rendered option; Payload is what the button sends back.
type Choice struct {
	Label   string
	Payload string
}

// Label formats a height as a quality label.
func Label(height int) string {
	return strconv.Itoa(height) + "p"
}

// Height parses a label produced by Label.
func Height(label string) (int, error) {
	num, ok := strings.CutSuffix(label, "p")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadLabel, label)
	}
	h, err := strconv.Atoi(num)
	if err != nil || h <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadLabel, label)
	}
	return h, nil
}

// DeriveOptions keeps the extractor's order and drops later duplicates.
func DeriveOptions(formats []media.Format) ([]string, error) {
	seen := make(map[string]struct{}, len(formats))
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		if !f.HasVideo() || f.Height <= 0 {
			continue
		}
		label := Label(f.Height)
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	if len(out) == 0 {
		return nil, ErrNoQualities
	}
	return out, nil
}

// RenderChoices lays options out in rows of at most PerRow.
func RenderChoices(options []string) [][]Choice {
	rows := make([][]Choice, 0, (len(options)+PerRow-1)/PerRow)
	for i := 0; i < len(options); i += PerRow {
		end := min(i+PerRow, len(options))
		row := make([]Choice, 0, end-i)
		for _, label := range options[i:end] {
			row = append(row, Choice{Label: label, Payload: label})
		}
		rows = append(rows, row)
	}
	return rows
}

// Selector builds the yt-dlp format expression for label: best video plus
// best audio at or below the height, else the best single stream below it.
func Selector(label string) (string, error) {
	h, err := Height(label)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", h, h), nil
}

// Variants pairs each option with its selector, ready for the cache.
func Variants(options []string) ([]extraction.Variant, error) {
	out := make([]extraction.Variant, 0, len(options))
	for _, label := range options {
		sel, err := Selector(label)
		if err != nil {
			return nil, err
		}
		out = append(out, extraction.Variant{QualityLabel: label, FormatSelector: sel})
	}
	return out, nil
}
