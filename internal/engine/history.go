package engine

import (
	"context"

	"github.com/roach88/drillstore/internal/store"
)

// HistoryResponse reports what an undo or redo applied. Count is zero and
// Tables empty when the log had nothing to apply.
type HistoryResponse struct {
	Group  int64    `json:"group"`
	Count  int      `json:"count"`
	Tables []string `json:"tables"`
}

// Undo reverts the newest undo group.
func (e *Engine) Undo(ctx context.Context) Result[HistoryResponse] {
	return e.replay(ctx, "undo", (*store.Tx).PerformUndo)
}

// Redo re-applies the most recently undone group.
func (e *Engine) Redo(ctx context.Context) Result[HistoryResponse] {
	return e.replay(ctx, "redo", (*store.Tx).PerformRedo)
}

// replay runs one history step as an action that opens no group of its
// own: replay writes are not captured.
func (e *Engine) replay(ctx context.Context, name string, step func(*store.Tx, context.Context) (store.Replay, error)) Result[HistoryResponse] {
	var resp HistoryResponse
	err := e.run(ctx, name, false, func(ctx context.Context, tx *Tx) error {
		r, err := step(tx.Tx, ctx)
		if err != nil {
			return err
		}
		resp = HistoryResponse{Group: r.Group, Count: r.Count, Tables: r.Tables}
		if r.Count > 0 {
			e.metrics.replays.WithLabelValues(name).Inc()
			tx.Logger().Info("history replayed", "group", r.Group, "count", r.Count, "tables", r.Tables)
		}
		return nil
	})
	if err != nil {
		return Fail[HistoryResponse](err)
	}
	return Ok(resp)
}

// History summarizes both history logs.
func (e *Engine) History(ctx context.Context) (store.HistoryStats, error) {
	return e.store.HistoryStats(ctx)
}

// SetGroupLimit changes how many groups the undo log keeps and trims it.
func (e *Engine) SetGroupLimit(ctx context.Context, limit int64) error {
	return e.run(ctx, "set-group-limit", false, func(ctx context.Context, tx *Tx) error {
		return tx.SetGroupLimit(ctx, limit)
	})
}
