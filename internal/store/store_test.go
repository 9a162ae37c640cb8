package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/drillstore/internal/ir"
	"github.com/roach88/drillstore/internal/queryir"
)

func TestOpen_AppliesPragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_BusyTimeoutOption(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "t.db"), WithBusyTimeout(250))
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.verifyPragma("busy_timeout", "250"))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.db")

	s1, err := Open(path)
	require.NoError(t, err)
	inTx(t, s1, func(ctx context.Context, tx *Tx) {
		_, err := tx.InsertRow(ctx, ir.TableMarchers, marcherRow("T", 1))
		require.NoError(t, err)
	})
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	n, err := s2.Count(context.Background(), ir.TableMarchers)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pages, err := s2.Count(context.Background(), ir.TablePages)
	require.NoError(t, err)
	assert.Equal(t, 1, pages, "first page must not be duplicated on reopen")
}

func TestOpen_CreatesFirstPageOutsideHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rows, err := s.Select(ctx, queryir.Select{From: ir.TablePages})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	page := ir.PageFromRow(rows[0])
	assert.Equal(t, ir.FirstPageID, page.ID)
	assert.Equal(t, int64(0), page.Counts)
	assert.Nil(t, page.NextPageID)

	stats, err := s.HistoryStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.UndoImages)
	assert.Equal(t, int64(500), stats.GroupLimit)
}

func TestOpen_TracksDocumentTables(t *testing.T) {
	s := createTestStore(t)

	assert.ElementsMatch(t, ir.DocumentTables, s.TrackedTables())

	info, ok := s.Table(ir.TableMarcherPages)
	require.True(t, ok)
	assert.True(t, info.HasColumn("x"))
	assert.True(t, info.HasColumn("updated_at"))
	assert.False(t, info.HasColumn("svg_path"))
}

func TestTrack_UnknownTable(t *testing.T) {
	s := createTestStore(t)
	assert.Error(t, s.Track(context.Background(), "nope"))
}

func TestMissingIDs(t *testing.T) {
	s := createTestStore(t)

	inTx(t, s, func(ctx context.Context, tx *Tx) {
		missing, err := tx.MissingIDs(ctx, ir.TablePages, []int64{0, 7, 9, 7})
		require.NoError(t, err)
		assert.Equal(t, []int64{7, 9}, missing)

		missing, err = tx.MissingIDs(ctx, ir.TablePages, nil)
		require.NoError(t, err)
		assert.NotNil(t, missing)
		assert.Empty(t, missing)
	})
}

func TestPagesNextUnique(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	a, err := tx.InsertRow(ctx, ir.TablePages, ir.Row{"counts": ir.IRInt(8)})
	require.NoError(t, err)
	aID, _ := a.ID()
	b, err := tx.InsertRow(ctx, ir.TablePages, ir.Row{"counts": ir.IRInt(8), "next_page_id": ir.IRInt(aID)})
	require.NoError(t, err)
	require.NotNil(t, b)

	_, err = tx.UpdateRow(ctx, ir.TablePages, 0, ir.Row{"next_page_id": ir.IRInt(aID)})
	require.Error(t, err)
	assert.True(t, IsConstraintError(err))
}

func TestSnapshotHashes_ChangeWithContent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	before, err := s.SnapshotHashes(ctx)
	require.NoError(t, err)
	require.Len(t, before, len(ir.DocumentTables))

	inTx(t, s, func(ctx context.Context, tx *Tx) {
		_, err := tx.UpdateRow(ctx, ir.TablePages, 0, ir.Row{"notes": ir.IRString("opener")})
		require.NoError(t, err)
	})

	after, err := s.SnapshotHashes(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before[ir.TablePages], after[ir.TablePages])
	assert.Equal(t, before[ir.TableMarchers], after[ir.TableMarchers])
}
