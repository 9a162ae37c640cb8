package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/drillstore/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// inTx runs fn in a transaction and commits it.
func inTx(t *testing.T, s *Store, fn func(ctx context.Context, tx *Tx)) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()
	fn(ctx, tx)
	require.NoError(t, tx.Commit())
}

func marcherRow(prefix string, order int64) ir.Row {
	return ir.Row{
		"name":         ir.Null,
		"section":      ir.IRString("Brass"),
		"drill_prefix": ir.IRString(prefix),
		"drill_order":  ir.IRInt(order),
		"notes":        ir.Null,
	}
}
