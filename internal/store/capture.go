package store

import (
	"context"
	"fmt"

	"github.com/roach88/drillstore/internal/ir"
	"github.com/roach88/drillstore/internal/queryir"
)

// InsertRow inserts a row into a tracked table and records an insert
// image. Returns the row as stored, including defaults and the generated
// id. A caller-supplied id is honoured.
func (t *Tx) InsertRow(ctx context.Context, table string, values ir.Row) (ir.Row, error) {
	if _, ok := t.store.Table(table); !ok {
		return nil, fmt.Errorf("insert %s: %w", table, ErrNotTracked)
	}

	id, err := t.insertRaw(ctx, table, values)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}

	after, ok, err := t.GetRow(ctx, table, id)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	if !ok {
		return nil, fmt.Errorf("insert %s: %w", table, rowNotFound(table, id))
	}

	if err := t.capture(ctx, ir.RowImage{Table: table, Op: ir.OpInsert, RowID: id, After: after}); err != nil {
		return nil, err
	}
	return after, nil
}

// UpdateRow applies a partial patch to one row of a tracked table and
// records an update image with the full before and after states.
func (t *Tx) UpdateRow(ctx context.Context, table string, id int64, set ir.Row) (ir.Row, error) {
	if _, ok := t.store.Table(table); !ok {
		return nil, fmt.Errorf("update %s: %w", table, ErrNotTracked)
	}

	before, ok, err := t.GetRow(ctx, table, id)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table, err)
	}
	if !ok {
		return nil, fmt.Errorf("update %s: %w", table, rowNotFound(table, id))
	}

	patch := set.Without(ir.ColumnID)
	if len(patch) > 0 {
		if err := t.updateRaw(ctx, table, id, patch); err != nil {
			return nil, fmt.Errorf("update %s: %w", table, err)
		}
	}

	after, _, err := t.GetRow(ctx, table, id)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table, err)
	}

	if err := t.capture(ctx, ir.RowImage{Table: table, Op: ir.OpUpdate, RowID: id, Before: before, After: after}); err != nil {
		return nil, err
	}
	return after, nil
}

// DeleteRow deletes one row of a tracked table and records a delete image.
// Returns the row as it was before deletion.
func (t *Tx) DeleteRow(ctx context.Context, table string, id int64) (ir.Row, error) {
	if _, ok := t.store.Table(table); !ok {
		return nil, fmt.Errorf("delete %s: %w", table, ErrNotTracked)
	}

	before, ok, err := t.GetRow(ctx, table, id)
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", table, err)
	}
	if !ok {
		return nil, fmt.Errorf("delete %s: %w", table, rowNotFound(table, id))
	}

	if err := t.deleteRaw(ctx, table, id); err != nil {
		return nil, fmt.Errorf("delete %s: %w", table, err)
	}

	if err := t.capture(ctx, ir.RowImage{Table: table, Op: ir.OpDelete, RowID: id, Before: before}); err != nil {
		return nil, err
	}
	return before, nil
}

// capture appends an image to undo_log under the current group. The first
// capture of the transaction clears redo_log.
func (t *Tx) capture(ctx context.Context, img ir.RowImage) error {
	if !t.redoCleared {
		if _, err := t.exec(ctx, `DELETE FROM redo_log`); err != nil {
			return fmt.Errorf("capture %s %s: clear redo log: %w", img.Op, img.Table, err)
		}
		t.redoCleared = true
	}

	group, err := t.CurrentGroup(ctx)
	if err != nil {
		return fmt.Errorf("capture %s %s: %w", img.Op, img.Table, err)
	}
	img.Group = group
	img.Action = t.action

	if err := t.appendImage(ctx, UndoLog, img, false); err != nil {
		return fmt.Errorf("capture %s %s: %w", img.Op, img.Table, err)
	}
	return nil
}

// appendImage writes an image row. keepSequence preserves img.Sequence
// (replay moves); otherwise SQLite assigns the next sequence.
func (t *Tx) appendImage(ctx context.Context, log Log, img ir.RowImage, keepSequence bool) error {
	before, err := encodeRowJSON(img.Before)
	if err != nil {
		return fmt.Errorf("encode before: %w", err)
	}
	after, err := encodeRowJSON(img.After)
	if err != nil {
		return fmt.Errorf("encode after: %w", err)
	}

	var seq any
	if keepSequence {
		seq = img.Sequence
	}

	_, err = t.exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, log, imageColumns),
		seq, img.Group, img.Table, string(img.Op), img.RowID, before, after, img.Action,
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", log, err)
	}
	return nil
}

// insertRaw, updateRaw and deleteRaw write without capture. They are the
// only paths replay uses.

func (t *Tx) insertRaw(ctx context.Context, table string, values ir.Row) (int64, error) {
	query, args, err := t.store.compiler.Compile(queryir.Insert{Into: table, Values: values})
	if err != nil {
		return 0, err
	}
	res, err := t.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	if id, ok := values.ID(); ok {
		return id, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (t *Tx) updateRaw(ctx context.Context, table string, id int64, set ir.Row) error {
	query, args, err := t.store.compiler.Compile(queryir.Update{Table: table, Set: set, Filter: queryir.ByID(id)})
	if err != nil {
		return err
	}
	res, err := t.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	return expectOneRow(res, table, id)
}

func (t *Tx) deleteRaw(ctx context.Context, table string, id int64) error {
	query, args, err := t.store.compiler.Compile(queryir.Delete{From: table, Filter: queryir.ByID(id)})
	if err != nil {
		return err
	}
	res, err := t.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	return expectOneRow(res, table, id)
}

func expectOneRow(res interface{ RowsAffected() (int64, error) }, table string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return rowNotFound(table, id)
	}
	return nil
}
