package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/vidgate/internal/session"
)

type brokenStore struct{ session.Store }

func (brokenStore) IsConfirmed(context.Context, int64) (bool, error) {
	return false, errors.New("redis down")
}

func (brokenStore) MarkConfirmed(context.Context, int64) error { return errors.New("redis down") }

func newGate(store session.Store) *Gate {
	return New(store, Options{
		Enabled:      true,
		FollowURL:    "https://instagram.com/acme",
		PromptText:   "follow first",
		FollowLabel:  "Follow",
		ConfirmLabel: "Done",
	})
}

func TestCheckBlocksUntilConfirmed(t *testing.T) {
	ctx := context.Background()
	g := newGate(session.NewMemory())

	d, err := g.Check(ctx, 5)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	require.NotNil(t, d.Prompt)
	assert.Equal(t, "https://instagram.com/acme", d.Prompt.FollowURL)
	assert.Equal(t, ConfirmAction, d.Prompt.ConfirmKey)

	require.NoError(t, g.Confirm(ctx, 5))
	require.NoError(t, g.Confirm(ctx, 5))

	d, err = g.Check(ctx, 5)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Nil(t, d.Prompt)

	d, err = g.Check(ctx, 6)
	require.NoError(t, err)
	assert.False(t, d.Allowed, "confirmation is per user")
}

func TestPromptIsACopy(t *testing.T) {
	g := newGate(session.NewMemory())
	d, err := g.Check(context.Background(), 1)
	require.NoError(t, err)
	d.Prompt.Text = "mutated"

	d2, err := g.Check(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "follow first", d2.Prompt.Text)
}

func TestDisabledGateAllowsEveryone(t *testing.T) {
	g := New(brokenStore{}, Options{Enabled: false})
	d, err := g.Check(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestStoreErrorsPropagate(t *testing.T) {
	g := newGate(brokenStore{})
	d, err := g.Check(context.Background(), 1)
	assert.Error(t, err)
	assert.False(t, d.Allowed)
	assert.Error(t, g.Confirm(context.Background(), 1))
}
