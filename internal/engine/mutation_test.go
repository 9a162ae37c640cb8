package engine

import (
	"context"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/drillstore/internal/ir"
	"github.com/roach88/drillstore/internal/queryir"
	"github.com/roach88/drillstore/internal/store"
)

func seedMarchers(t *testing.T, e *Engine, n int) []int64 {
	t.Helper()
	rows := make([]ir.Row, n)
	for i := range rows {
		rows[i] = marcherRow("S", int64(i+1))
	}
	var ids []int64
	require.NoError(t, e.Do(context.Background(), "seed", func(ctx context.Context, tx *Tx) error {
		created, err := tx.CreateItems(ctx, ir.TableMarchers, rows, UseCurrentGroup())
		for _, r := range created {
			id, _ := r.ID()
			ids = append(ids, id)
		}
		return err
	}))
	return ids
}

func TestCreateItems_StampsAndIgnoresCallerID(t *testing.T) {
	e := setupTestEngine(t)

	var created []ir.Row
	require.NoError(t, e.Do(context.Background(), "add", func(ctx context.Context, tx *Tx) error {
		row := marcherRow("T", 1)
		row["id"] = ir.IRInt(777)
		row["created_at"] = ir.IRString("caller")
		var err error
		created, err = tx.CreateItems(ctx, ir.TableMarchers, []ir.Row{row}, UseCurrentGroup())
		return err
	}))

	require.Len(t, created, 1)
	id, _ := created[0].ID()
	assert.NotEqual(t, int64(777), id)
	createdAt, _ := created[0].String("created_at")
	updatedAt, _ := created[0].String("updated_at")
	assert.Equal(t, "2024-01-01T00:00:01.000Z", createdAt)
	assert.Equal(t, createdAt, updatedAt)
}

func TestCreateItems_NormalizesText(t *testing.T) {
	e := setupTestEngine(t)

	var created []ir.Row
	require.NoError(t, e.Do(context.Background(), "add", func(ctx context.Context, tx *Tx) error {
		row := marcherRow("T", 1)
		row["name"] = ir.IRString("Jose\u0301")
		var err error
		created, err = tx.CreateItems(ctx, ir.TableMarchers, []ir.Row{row}, UseCurrentGroup())
		return err
	}))

	name, _ := created[0].String("name")
	assert.Equal(t, "Jos\u00e9", name)
}

func TestCreateItems_EmptyIsNoop(t *testing.T) {
	e := setupTestEngine(t)
	before := history(t, e)

	require.NoError(t, e.Do(context.Background(), "noop", func(ctx context.Context, tx *Tx) error {
		created, err := tx.CreateItems(ctx, ir.TableMarchers, nil)
		assert.NotNil(t, created)
		assert.Empty(t, created)
		return err
	}))

	after := history(t, e)
	assert.Equal(t, before.CurrentGroup+1, after.CurrentGroup, "only the action's own group")
	assert.Equal(t, 0, after.UndoImages)
}

func TestCreateItems_UntrackedTable(t *testing.T) {
	e := setupTestEngine(t)
	err := e.Do(context.Background(), "bad", func(ctx context.Context, tx *Tx) error {
		_, err := tx.CreateItems(ctx, "undo_log", []ir.Row{{}})
		return err
	})
	assert.True(t, IsInvalidArgument(err))
}

func TestMutation_DefaultBracketsOwnGroup(t *testing.T) {
	e := setupTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Do(ctx, "two-calls", func(ctx context.Context, tx *Tx) error {
		if _, err := tx.CreateItems(ctx, ir.TableMarchers, []ir.Row{marcherRow("A", 1)}); err != nil {
			return err
		}
		_, err := tx.CreateItems(ctx, ir.TableMarchers, []ir.Row{marcherRow("A", 2)})
		return err
	}))
	assert.Equal(t, 2, history(t, e).UndoGroups)

	require.NoError(t, e.Do(ctx, "composite", func(ctx context.Context, tx *Tx) error {
		if _, err := tx.CreateItems(ctx, ir.TableMarchers, []ir.Row{marcherRow("B", 1)}, UseCurrentGroup()); err != nil {
			return err
		}
		_, err := tx.CreateItems(ctx, ir.TableMarchers, []ir.Row{marcherRow("B", 2)}, UseCurrentGroup())
		return err
	}))
	assert.Equal(t, 3, history(t, e).UndoGroups)

	// The composite undoes as one step.
	res := e.Undo(ctx)
	require.True(t, res.Success)
	assert.Equal(t, 2, res.Data.Count)
	assert.Equal(t, 2, count(t, e, ir.TableMarchers))
}

func TestUpdateItems_PartialPatch(t *testing.T) {
	e := setupTestEngine(t)
	ids := seedMarchers(t, e, 1)

	var updated []ir.Row
	require.NoError(t, e.Do(context.Background(), "rename", func(ctx context.Context, tx *Tx) error {
		var err error
		updated, err = tx.UpdateItems(ctx, ir.TableMarchers, []ir.Row{{
			"id":   ir.IRInt(ids[0]),
			"name": ir.IRString("Lead"),
		}}, UseCurrentGroup())
		return err
	}))

	m := ir.MarcherFromRow(updated[0])
	require.NotNil(t, m.Name)
	assert.Equal(t, "Lead", *m.Name)
	assert.Equal(t, "Brass", m.Section, "untouched column kept")
	assert.Equal(t, "S", m.DrillPrefix)
	assert.NotEqual(t, m.CreatedAt, m.UpdatedAt)
}

func TestUpdateItems_MissingIDsWriteNothing(t *testing.T) {
	e := setupTestEngine(t)
	ids := seedMarchers(t, e, 2)
	before := history(t, e)

	err := e.Do(context.Background(), "rename", func(ctx context.Context, tx *Tx) error {
		_, err := tx.UpdateItems(ctx, ir.TableMarchers, []ir.Row{
			{"id": ir.IRInt(ids[0]), "name": ir.IRString("x")},
			{"id": ir.IRInt(90)},
			{"id": ir.IRInt(ids[1]), "name": ir.IRString("y")},
			{"id": ir.IRInt(80)},
		}, UseCurrentGroup())
		assert.Equal(t, `NOT_FOUND: No items with ids [80, 90] in table "marchers" (table=marchers)`, err.Error())

		n, serr := tx.LastSequence(ctx)
		require.NoError(t, serr)
		assert.Equal(t, int64(before.UndoImages), n, "no image written")
		return err
	})
	require.True(t, IsNotFound(err))

	var ee *Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, []int64{90, 80}, ee.IDs)
}

func TestUpdateItems_RequiresID(t *testing.T) {
	e := setupTestEngine(t)
	err := e.Do(context.Background(), "bad", func(ctx context.Context, tx *Tx) error {
		_, err := tx.UpdateItems(ctx, ir.TableMarchers, []ir.Row{{"name": ir.IRString("x")}})
		return err
	})
	assert.True(t, IsInvalidArgument(err))
}

func TestDeleteItems_ReturnsPriorRows(t *testing.T) {
	e := setupTestEngine(t)
	ids := seedMarchers(t, e, 3)

	var deleted []ir.Row
	require.NoError(t, e.Do(context.Background(), "delete", func(ctx context.Context, tx *Tx) error {
		var err error
		deleted, err = tx.DeleteItems(ctx, ir.TableMarchers, []int64{ids[2], ids[0], ids[2]}, UseCurrentGroup())
		return err
	}))

	require.Len(t, deleted, 2)
	assert.Equal(t, int64(3), ir.MarcherFromRow(deleted[0]).DrillOrder)
	assert.Equal(t, int64(1), ir.MarcherFromRow(deleted[1]).DrillOrder)
	assert.Equal(t, 1, count(t, e, ir.TableMarchers))
}

func TestMutation_LocalRevertKeepsEarlierCalls(t *testing.T) {
	e := setupTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Do(ctx, "partial", func(ctx context.Context, tx *Tx) error {
		_, err := tx.CreateItems(ctx, ir.TableMarchers, []ir.Row{marcherRow("K", 1)}, UseCurrentGroup())
		require.NoError(t, err)

		// Second row collides with the first call: this call reverts
		// its own first row and nothing else.
		_, err = tx.CreateItems(ctx, ir.TableMarchers, []ir.Row{marcherRow("K", 2), marcherRow("K", 1)}, UseCurrentGroup())
		require.Error(t, err)
		assert.True(t, store.IsConstraintError(err))

		rows, err := tx.Select(ctx, queryir.Select{From: ir.TableMarchers})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(1), ir.MarcherFromRow(rows[0]).DrillOrder)
		return nil
	}))

	st := history(t, e)
	assert.Equal(t, 1, st.UndoImages)
	assert.Equal(t, 0, st.RedoImages)
	assert.Equal(t, 1.0, promtest.ToFloat64(e.metrics.rollbacks))
}
