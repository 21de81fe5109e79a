package session

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	queryIsConfirmed   = `SELECT EXISTS (SELECT 1 FROM confirmed_users WHERE user_id = $1)`
	queryMarkConfirmed = `INSERT INTO confirmed_users (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	queryCount         = `SELECT COUNT(*) FROM confirmed_users`
)

// Postgres persists confirmations in the confirmed_users table
// (see migrations/0001_confirmed_users.up.sql).
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) IsConfirmed(ctx context.Context, userID int64) (bool, error) {
	if err := validUser(userID); err != nil {
		return false, err
	}
	var ok bool
	if err := p.db.GetContext(ctx, &ok, queryIsConfirmed, userID); err != nil {
		return false, fmt.Errorf("session: select confirmed: %w", err)
	}
	return ok, nil
}

func (p *Postgres) MarkConfirmed(ctx context.Context, userID int64) error {
	if err := validUser(userID); err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, queryMarkConfirmed, userID); err != nil {
		return fmt.Errorf("session: insert confirmed: %w", err)
	}
	return nil
}

func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.db.GetContext(ctx, &n, queryCount); err != nil {
		return 0, fmt.Errorf("session: count confirmed: %w", err)
	}
	return n, nil
}
