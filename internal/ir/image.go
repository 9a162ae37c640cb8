package ir

import "fmt"

// Operation is the kind of write a row image records.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Valid reports whether op is one of the three known operations.
func (op Operation) Valid() bool {
	switch op {
	case OpInsert, OpUpdate, OpDelete:
		return true
	default:
		return false
	}
}

// RowImage is the recorded effect of one write on one row.
//
// Insert images carry only After, delete images only Before, update images
// both. Images are immutable once written; undo and redo move them between
// the history logs without changing Sequence or Group.
type RowImage struct {
	Sequence int64     `json:"sequence"`
	Group    int64     `json:"group"`
	Table    string    `json:"table"`
	Op       Operation `json:"operation"`
	RowID    int64     `json:"row_id"`
	Before   Row       `json:"before,omitempty"`
	After    Row       `json:"after,omitempty"`
	Action   string    `json:"action,omitempty"`
}

// Validate checks that the image carries the row states its operation needs.
func (img RowImage) Validate() error {
	if img.Table == "" {
		return fmt.Errorf("row image %d: table is required", img.Sequence)
	}
	switch img.Op {
	case OpInsert:
		if img.After == nil || img.Before != nil {
			return fmt.Errorf("row image %d: insert needs after only", img.Sequence)
		}
	case OpUpdate:
		if img.After == nil || img.Before == nil {
			return fmt.Errorf("row image %d: update needs before and after", img.Sequence)
		}
	case OpDelete:
		if img.Before == nil || img.After != nil {
			return fmt.Errorf("row image %d: delete needs before only", img.Sequence)
		}
	default:
		return fmt.Errorf("row image %d: unknown operation %q", img.Sequence, img.Op)
	}
	return nil
}
