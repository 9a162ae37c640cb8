// Package store provides SQLite-backed storage for a drill document and its
// undo/redo history.
//
// The store owns:
//   - Document tables: pages, marchers, marcher_pages, shapes, shape_pages,
//     shape_page_marchers
//   - History logs: undo_log and redo_log, one row image per captured write
//   - history_stats: the persisted undo-group counter and group limit
//
// # Change Capture
//
// Writes to tracked tables go through Tx.InsertRow, Tx.UpdateRow and
// Tx.DeleteRow. Each write records a row image in undo_log inside the same
// SQL transaction before returning. The first captured write of a
// transaction clears redo_log: a new edit forks history.
//
// # Replay
//
// PerformUndo applies the newest undo group and PerformRedo the most
// recently undone one, which is the lowest group id in the redo log. Both
// move the group's images to the other log, preserving sequence and group.
// Replay writes bypass capture. RevertSince unwinds and discards images
// written after a sequence mark; the mutation layer uses it to roll back a
// failed call.
//
// # Deterministic Reads
//
// Every read orders by an explicit key with id as the final tiebreaker,
// and returns empty slices rather than nil.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000 (configurable): Wait for locks
//   - foreign_keys=ON: references are DEFERRABLE INITIALLY DEFERRED so a
//     cascade may remove children and parents in any order within a group
package store
