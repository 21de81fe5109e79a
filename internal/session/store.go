// Package session records which users have passed the follow confirmation.
//
// A user with no record is unconfirmed. Records are only ever added: there is
// no operation that revokes a confirmation.
package session

import (
	"context"
	"fmt"
	"sync"
)

// Store is the confirmation membership set. Implementations are safe for concurrent use.
type Store interface {
	IsConfirmed(ctx context.Context, userID int64) (bool, error)
	// MarkConfirmed is idempotent.
	MarkConfirmed(ctx context.Context, userID int64) error
	Count(ctx context.Context) (int, error)
}

// Driver names accepted by storage.driver.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Memory keeps confirmations for the lifetime of the process.
type Memory struct {
	mu        sync.RWMutex
	confirmed map[int64]struct{}
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{confirmed: make(map[int64]struct{})}
}

func (m *Memory) IsConfirmed(_ context.Context, userID int64) (bool, error) {
	if err := validUser(userID); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.confirmed[userID]
	return ok, nil
}

func (m *Memory) MarkConfirmed(_ context.Context, userID int64) error {
	if err := validUser(userID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmed[userID] = struct{}{}
	return nil
}

func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.confirmed), nil
}

func validUser(userID int64) error {
	if userID == 0 {
		return fmt.Errorf("session: empty user id")
	}
	return nil
}
