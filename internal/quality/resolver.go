package quality

import (
	"errors"
	"fmt"

	"github.com/m3rciful/vidgate/internal/extraction"
)

// Directive is everything the retrieval step needs for one download.
type Directive struct {
	SourceURL string
	Title     string
	Quality   string
	Selector  string
}

// Slots is the part of the extraction cache the resolver needs.
type Slots interface {
	Take(userID int64) (extraction.Result, error)
}

// Resolver maps a button press to a Directive.
type Resolver struct {
	slots Slots
}

func NewResolver(slots Slots) *Resolver {
	return &Resolver{slots: slots}
}

// Resolve consumes the user's cached result. A missing entry and a label the
// entry does not offer both yield ErrExpired.
func (r *Resolver) Resolve(userID int64, label string) (Directive, error) {
	res, err := r.slots.Take(userID)
	if err != nil {
		if errors.Is(err, extraction.ErrNotFound) {
			return Directive{}, ErrExpired
		}
		return Directive{}, fmt.Errorf("quality: resolve: %w", err)
	}
	v, ok := res.Variant(label)
	if !ok {
		return Directive{}, fmt.Errorf("%w: %q not offered", ErrExpired, label)
	}
	return Directive{
		SourceURL: res.SourceURL,
		Title:     res.Title,
		Quality:   v.QualityLabel,
		Selector:  v.FormatSelector,
	}, nil
}
