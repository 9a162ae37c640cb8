package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/drillstore/internal/ir"
)

func TestInsertRow_CapturesAfterImage(t *testing.T) {
	s := createTestStore(t)

	inTx(t, s, func(ctx context.Context, tx *Tx) {
		group, err := tx.AdvanceGroup(ctx)
		require.NoError(t, err)
		tx.SetAction("create_marchers:tok")

		row, err := tx.InsertRow(ctx, ir.TableMarchers, marcherRow("T", 1))
		require.NoError(t, err)
		id, ok := row.ID()
		require.True(t, ok)

		images, err := tx.loadImages(ctx, UndoLog, `ORDER BY sequence`)
		require.NoError(t, err)
		require.Len(t, images, 1)

		img := images[0]
		assert.Equal(t, group, img.Group)
		assert.Equal(t, ir.OpInsert, img.Op)
		assert.Equal(t, id, img.RowID)
		assert.Nil(t, img.Before)
		assert.True(t, row.Equal(img.After))
		assert.Equal(t, "create_marchers:tok", img.Action)
	})
}

func TestUpdateRow_CapturesFullBeforeAndAfter(t *testing.T) {
	s := createTestStore(t)

	inTx(t, s, func(ctx context.Context, tx *Tx) {
		before, ok, err := tx.GetRow(ctx, ir.TablePages, 0)
		require.NoError(t, err)
		require.True(t, ok)

		after, err := tx.UpdateRow(ctx, ir.TablePages, 0, ir.Row{"notes": ir.IRString("opener"), "id": ir.IRInt(99)})
		require.NoError(t, err)
		id, _ := after.ID()
		assert.Equal(t, int64(0), id, "id in a patch is ignored")

		images, err := tx.loadImages(ctx, UndoLog, `ORDER BY sequence`)
		require.NoError(t, err)
		require.Len(t, images, 1)
		assert.True(t, before.Equal(images[0].Before))
		assert.True(t, after.Equal(images[0].After))
		assert.Len(t, images[0].Before, len(images[0].After))
	})
}

func TestDeleteRow_ReturnsPriorRow(t *testing.T) {
	s := createTestStore(t)

	inTx(t, s, func(ctx context.Context, tx *Tx) {
		row, err := tx.InsertRow(ctx, ir.TableMarchers, marcherRow("T", 1))
		require.NoError(t, err)
		id, _ := row.ID()

		deleted, err := tx.DeleteRow(ctx, ir.TableMarchers, id)
		require.NoError(t, err)
		assert.True(t, row.Equal(deleted))

		_, ok, err := tx.GetRow(ctx, ir.TableMarchers, id)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestWrites_MissingRow(t *testing.T) {
	s := createTestStore(t)

	inTx(t, s, func(ctx context.Context, tx *Tx) {
		_, err := tx.UpdateRow(ctx, ir.TablePages, 42, ir.Row{"counts": ir.IRInt(1)})
		assert.True(t, errors.Is(err, ErrRowNotFound))

		_, err = tx.DeleteRow(ctx, ir.TablePages, 42)
		assert.True(t, errors.Is(err, ErrRowNotFound))

		stats, err := tx.HistoryStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.UndoImages)
	})
}

func TestWrites_UntrackedTable(t *testing.T) {
	s := createTestStore(t)

	inTx(t, s, func(ctx context.Context, tx *Tx) {
		_, err := tx.InsertRow(ctx, "history_stats", ir.Row{"id": ir.IRInt(2)})
		assert.True(t, errors.Is(err, ErrNotTracked))
	})
}

func TestCapture_ClearsRedoOnFirstWrite(t *testing.T) {
	s := createTestStore(t)

	inTx(t, s, func(ctx context.Context, tx *Tx) {
		_, err := tx.AdvanceGroup(ctx)
		require.NoError(t, err)
		_, err = tx.InsertRow(ctx, ir.TableMarchers, marcherRow("T", 1))
		require.NoError(t, err)
	})
	inTx(t, s, func(ctx context.Context, tx *Tx) {
		r, err := tx.PerformUndo(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, r.Count)
	})

	stats, err := s.HistoryStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.RedoGroups)

	inTx(t, s, func(ctx context.Context, tx *Tx) {
		_, err := tx.AdvanceGroup(ctx)
		require.NoError(t, err)
		_, err = tx.UpdateRow(ctx, ir.TablePages, 0, ir.Row{"counts": ir.IRInt(0)})
		require.NoError(t, err)
	})

	stats, err = s.HistoryStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.RedoGroups, "a new edit forks history")
	assert.Equal(t, 1, stats.UndoGroups)
}

func TestCapture_RollbackLeavesNoImages(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.InsertRow(ctx, ir.TableMarchers, marcherRow("T", 1))
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	require.NoError(t, tx.Rollback(), "second rollback is a no-op")

	stats, err := s.HistoryStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.UndoImages)
}
