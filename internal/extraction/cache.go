// Package extraction keeps the most recent probe result per user between the
// "show qualities" step and the quality choice.
package extraction

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/m3rciful/vidgate/core/logger"
)

// ErrNotFound is returned when a user has no live entry.
var ErrNotFound = errors.New("extraction: no cached result")

const (
	DefaultTTL             = 30 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// Variant is one selectable quality and the format selector fetching it.
type Variant struct {
	QualityLabel   string
	FormatSelector string
}

// Result is what a URL submission leaves behind for the later choice.
type Result struct {
	SourceURL string
	Title     string
	Variants  []Variant
	CreatedAt time.Time
}

// Variant returns the entry for label, if present.
func (r Result) Variant(label string) (Variant, bool) {
	for _, v := range r.Variants {
		if v.QualityLabel == label {
			return v, true
		}
	}
	return Variant{}, false
}

// Labels returns the quality labels in stored order.
func (r Result) Labels() []string {
	out := make([]string, 0, len(r.Variants))
	for _, v := range r.Variants {
		out = append(out, v.QualityLabel)
	}
	return out
}

// Cache is a single-slot-per-user store with an expiry window. Expired
// entries are indistinguishable from absent ones.
type Cache struct {
	mu    sync.Mutex
	items *gocache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// New creates a cache. Non-positive arguments fall back to the defaults.
func New(ttl, cleanup time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cleanup <= 0 {
		cleanup = DefaultCleanupInterval
	}
	return &Cache{
		items: gocache.New(ttl, cleanup),
		ttl:   ttl,
		now:   time.Now,
	}
}

// TTL reports the validity window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Put replaces whatever was stored for userID.
func (c *Cache) Put(userID int64, res Result) {
	if res.CreatedAt.IsZero() {
		res.CreatedAt = c.now()
	}
	c.mu.Lock()
	_, replaced := c.items.Get(key(userID))
	c.items.Set(key(userID), res, gocache.DefaultExpiration)
	c.mu.Unlock()

	logger.Debug(context.Background(), logger.CompExtract, "extract.cached",
		slog.Int64("user_id", userID),
		slog.Int("variants", len(res.Variants)),
		slog.Bool("replaced", replaced),
	)
}

func (c *Cache) Get(userID int64) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(userID)
}

// Invalidate clears the slot. It is safe to call on an empty slot.
func (c *Cache) Invalidate(userID int64) {
	c.mu.Lock()
	c.items.Delete(key(userID))
	c.mu.Unlock()
}

// Take returns the entry and clears the slot in one step, so two concurrent
// choices against the same result cannot both succeed.
func (c *Cache) Take(userID int64) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, err := c.lookup(userID)
	if err != nil {
		return Result{}, err
	}
	c.items.Delete(key(userID))
	return res, nil
}

// Len counts live entries. Expired ones still waiting for the janitor are excluded.
func (c *Cache) Len() int {
	return len(c.items.Items())
}

func (c *Cache) lookup(userID int64) (Result, error) {
	v, ok := c.items.Get(key(userID))
	if !ok {
		return Result{}, ErrNotFound
	}
	res, ok := v.(Result)
	if !ok {
		return Result{}, ErrNotFound
	}
	return res, nil
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
