package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/drillstore/internal/ir"
)

// Log names a history log table.
type Log string

const (
	UndoLog Log = "undo_log"
	RedoLog Log = "redo_log"
)

// other returns the log images move to when this log is replayed.
func (l Log) other() Log {
	if l == UndoLog {
		return RedoLog
	}
	return UndoLog
}

// nextGroup is the aggregate selecting the group replayed next. Undo takes
// the newest group; redo takes the most recently undone one, which is the
// lowest id since the redo log only ever holds a run of undone groups.
func (l Log) nextGroup() string {
	if l == UndoLog {
		return "MAX"
	}
	return "MIN"
}

// imageColumns is the column list shared by both logs, in scan order.
const imageColumns = `sequence, history_group, table_name, operation, row_id, before_json, after_json, action`

// encodeRowJSON serializes a row image side. nil rows become SQL NULL.
func encodeRowJSON(row ir.Row) (sql.NullString, error) {
	if row == nil {
		return sql.NullString{}, nil
	}
	data, err := ir.MarshalCanonical(row)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// decodeRowJSON is the inverse of encodeRowJSON.
func decodeRowJSON(s sql.NullString) (ir.Row, error) {
	if !s.Valid {
		return nil, nil
	}
	return ir.UnmarshalRow([]byte(s.String))
}

// scanImage reads one log row selected with imageColumns.
func scanImage(scanner interface{ Scan(...any) error }) (ir.RowImage, error) {
	var (
		img    ir.RowImage
		op     string
		before sql.NullString
		after  sql.NullString
	)
	if err := scanner.Scan(&img.Sequence, &img.Group, &img.Table, &op, &img.RowID, &before, &after, &img.Action); err != nil {
		return img, fmt.Errorf("scan row image: %w", err)
	}
	img.Op = ir.Operation(op)

	var err error
	if img.Before, err = decodeRowJSON(before); err != nil {
		return img, fmt.Errorf("row image %d before: %w", img.Sequence, err)
	}
	if img.After, err = decodeRowJSON(after); err != nil {
		return img, fmt.Errorf("row image %d after: %w", img.Sequence, err)
	}
	return img, img.Validate()
}
