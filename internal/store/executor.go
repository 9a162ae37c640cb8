package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/roach88/drillstore/internal/ir"
)

// Replay reports what one undo, redo or revert applied.
type Replay struct {
	Group  int64    `json:"group"`
	Count  int      `json:"count"`
	Tables []string `json:"tables"`
}

// PerformUndo applies the inverses of the newest undo group in reverse
// sequence order and moves its images to the redo log. An empty undo log
// is not an error: the result has Count 0.
func (t *Tx) PerformUndo(ctx context.Context) (Replay, error) {
	return t.replayNewest(ctx, UndoLog)
}

// PerformRedo re-applies the most recently undone group in sequence order
// and moves its images back to the undo log. Groups keep their ids across
// logs, so that group is the lowest id in the redo log.
func (t *Tx) PerformRedo(ctx context.Context) (Replay, error) {
	return t.replayNewest(ctx, RedoLog)
}

// ClearMostRecentRedo discards the most recently undone group without
// applying it.
func (t *Tx) ClearMostRecentRedo(ctx context.Context) error {
	_, err := t.exec(ctx, `
		DELETE FROM redo_log
		WHERE history_group = (SELECT MIN(history_group) FROM redo_log)
	`)
	if err != nil {
		return fmt.Errorf("clear most recent redo: %w", err)
	}
	return nil
}

// RevertSince inverts every undo image with a sequence above seq, newest
// first, and discards those images. Nothing reaches the redo log, so the
// reverted writes leave no trace in either history.
func (t *Tx) RevertSince(ctx context.Context, seq int64) (Replay, error) {
	images, err := t.loadImages(ctx, UndoLog, `WHERE sequence > ? ORDER BY sequence DESC`, seq)
	if err != nil {
		return Replay{}, fmt.Errorf("revert since %d: %w", seq, err)
	}

	for _, img := range images {
		if err := t.applyInverse(ctx, img); err != nil {
			return Replay{}, fmt.Errorf("revert since %d: %w", seq, err)
		}
	}

	if _, err := t.exec(ctx, `DELETE FROM undo_log WHERE sequence > ?`, seq); err != nil {
		return Replay{}, fmt.Errorf("revert since %d: discard images: %w", seq, err)
	}

	return summarize(0, images), nil
}

func (t *Tx) replayNewest(ctx context.Context, log Log) (Replay, error) {
	var group sql.NullInt64
	if err := t.tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s(history_group) FROM %s`, log.nextGroup(), log)).Scan(&group); err != nil {
		return Replay{}, fmt.Errorf("replay %s: %w", log, err)
	}
	if !group.Valid {
		return Replay{Tables: []string{}}, nil
	}

	order := "ASC"
	if log == UndoLog {
		order = "DESC"
	}
	images, err := t.loadImages(ctx, log, `WHERE history_group = ? ORDER BY sequence `+order, group.Int64)
	if err != nil {
		return Replay{}, fmt.Errorf("replay %s group %d: %w", log, group.Int64, err)
	}

	for _, img := range images {
		if log == UndoLog {
			err = t.applyInverse(ctx, img)
		} else {
			err = t.applyForward(ctx, img)
		}
		if err != nil {
			return Replay{}, fmt.Errorf("replay %s group %d: %w", log, group.Int64, err)
		}
	}

	// Move the images, keeping sequence and group, then drop the originals.
	for _, img := range images {
		if err := t.appendImage(ctx, log.other(), img, true); err != nil {
			return Replay{}, fmt.Errorf("replay %s group %d: %w", log, group.Int64, err)
		}
	}
	if _, err := t.exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE history_group = ?`, log), group.Int64); err != nil {
		return Replay{}, fmt.Errorf("replay %s group %d: discard images: %w", log, group.Int64, err)
	}

	return summarize(group.Int64, images), nil
}

func (t *Tx) loadImages(ctx context.Context, log Log, clause string, args ...any) ([]ir.RowImage, error) {
	rows, err := t.tx.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM %s %s`, imageColumns, log, clause), args...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", log, err)
	}
	defer rows.Close()

	images := []ir.RowImage{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", log, err)
	}
	return images, nil
}

// applyInverse undoes one image without capturing it.
func (t *Tx) applyInverse(ctx context.Context, img ir.RowImage) error {
	var err error
	switch img.Op {
	case ir.OpInsert:
		err = t.deleteRaw(ctx, img.Table, img.RowID)
	case ir.OpDelete:
		_, err = t.insertRaw(ctx, img.Table, img.Before)
	case ir.OpUpdate:
		err = t.updateRaw(ctx, img.Table, img.RowID, img.Before.Without(ir.ColumnID))
	default:
		err = fmt.Errorf("unknown operation %q", img.Op)
	}
	if err != nil {
		return fmt.Errorf("%w: undo %s %s id %d (seq %d): %v", ErrReplayDiverged, img.Op, img.Table, img.RowID, img.Sequence, err)
	}
	return nil
}

// applyForward redoes one image without capturing it.
func (t *Tx) applyForward(ctx context.Context, img ir.RowImage) error {
	var err error
	switch img.Op {
	case ir.OpInsert:
		_, err = t.insertRaw(ctx, img.Table, img.After)
	case ir.OpDelete:
		err = t.deleteRaw(ctx, img.Table, img.RowID)
	case ir.OpUpdate:
		err = t.updateRaw(ctx, img.Table, img.RowID, img.After.Without(ir.ColumnID))
	default:
		err = fmt.Errorf("unknown operation %q", img.Op)
	}
	if err != nil {
		return fmt.Errorf("%w: redo %s %s id %d (seq %d): %v", ErrReplayDiverged, img.Op, img.Table, img.RowID, img.Sequence, err)
	}
	return nil
}

func summarize(group int64, images []ir.RowImage) Replay {
	seen := make(map[string]bool)
	tables := []string{}
	for _, img := range images {
		if !seen[img.Table] {
			seen[img.Table] = true
			tables = append(tables, img.Table)
		}
	}
	sort.Strings(tables)
	return Replay{Group: group, Count: len(images), Tables: tables}
}
