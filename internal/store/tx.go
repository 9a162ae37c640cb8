package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx is one SQL transaction over the store. All document writes, history
// bookkeeping and replay happen through a Tx.
//
// A Tx is not safe for concurrent use.
type Tx struct {
	store       *Store
	tx          *sql.Tx
	action      string
	redoCleared bool
	done        bool
}

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{store: s, tx: tx}, nil
}

// SetAction labels every row image captured from now on.
func (t *Tx) SetAction(action string) {
	t.action = action
}

// Action returns the current action label.
func (t *Tx) Action() string {
	return t.action
}

// Store returns the store the transaction belongs to.
func (t *Tx) Store() *Store {
	return t.store
}

// Commit commits the transaction. Deferred foreign keys are checked here;
// on failure the driver rolls the whole transaction back.
func (t *Tx) Commit() error {
	if t.done {
		return fmt.Errorf("commit: transaction already finished")
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. Safe to call after Commit.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

// exec compiles and runs a write statement without capture.
func (t *Tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}
