package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// CurrentGroup returns the group new captures are tagged with.
func (t *Tx) CurrentGroup(ctx context.Context) (int64, error) {
	var group int64
	if err := t.tx.QueryRowContext(ctx, `SELECT cur_undo_group FROM history_stats WHERE id = 1`).Scan(&group); err != nil {
		return 0, fmt.Errorf("read current group: %w", err)
	}
	return group, nil
}

// AdvanceGroup starts a new group and returns its id. Group ids strictly
// increase and are never reused. When a positive group limit is set the
// oldest groups beyond it are dropped from the undo log.
func (t *Tx) AdvanceGroup(ctx context.Context) (int64, error) {
	if _, err := t.exec(ctx, `UPDATE history_stats SET cur_undo_group = cur_undo_group + 1 WHERE id = 1`); err != nil {
		return 0, fmt.Errorf("advance group: %w", err)
	}
	group, err := t.CurrentGroup(ctx)
	if err != nil {
		return 0, fmt.Errorf("advance group: %w", err)
	}
	if err := t.trimUndoLog(ctx); err != nil {
		return 0, fmt.Errorf("advance group: %w", err)
	}
	return group, nil
}

// MergeIntoPrevious relabels every undo image of group with the greatest
// existing group below it, so both undo as one step. Returns the surviving
// group id. When no earlier group exists the call is a no-op and returns
// group unchanged.
func (t *Tx) MergeIntoPrevious(ctx context.Context, group int64) (int64, error) {
	var prev sql.NullInt64
	err := t.tx.QueryRowContext(ctx,
		`SELECT MAX(history_group) FROM undo_log WHERE history_group < ?`, group,
	).Scan(&prev)
	if err != nil {
		return 0, fmt.Errorf("merge group %d: %w", group, err)
	}
	if !prev.Valid {
		return group, nil
	}

	if _, err := t.exec(ctx,
		`UPDATE undo_log SET history_group = ? WHERE history_group = ?`, prev.Int64, group,
	); err != nil {
		return 0, fmt.Errorf("merge group %d into %d: %w", group, prev.Int64, err)
	}
	return prev.Int64, nil
}

// GroupSize returns how many undo images carry group.
func (t *Tx) GroupSize(ctx context.Context, group int64) (int, error) {
	var n int
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM undo_log WHERE history_group = ?`, group).Scan(&n); err != nil {
		return 0, fmt.Errorf("size of group %d: %w", group, err)
	}
	return n, nil
}

// GroupLimit returns the configured group limit. Zero or less means unlimited.
func (t *Tx) GroupLimit(ctx context.Context) (int64, error) {
	var limit int64
	if err := t.tx.QueryRowContext(ctx, `SELECT group_limit FROM history_stats WHERE id = 1`).Scan(&limit); err != nil {
		return 0, fmt.Errorf("read group limit: %w", err)
	}
	return limit, nil
}

// SetGroupLimit persists a new group limit and trims immediately.
func (t *Tx) SetGroupLimit(ctx context.Context, limit int64) error {
	if _, err := t.exec(ctx, `UPDATE history_stats SET group_limit = ? WHERE id = 1`, limit); err != nil {
		return fmt.Errorf("set group limit: %w", err)
	}
	return t.trimUndoLog(ctx)
}

// LastSequence returns the highest undo image sequence, or 0 when the
// undo log is empty. Pass it to RevertSince to unwind later writes.
func (t *Tx) LastSequence(ctx context.Context) (int64, error) {
	var seq int64
	if err := t.tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(sequence), 0) FROM undo_log`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read last sequence: %w", err)
	}
	return seq, nil
}

func (t *Tx) trimUndoLog(ctx context.Context) error {
	limit, err := t.GroupLimit(ctx)
	if err != nil {
		return err
	}
	if limit <= 0 {
		return nil
	}
	_, err = t.exec(ctx, `
		DELETE FROM undo_log WHERE history_group IN (
			SELECT DISTINCT history_group FROM undo_log
			ORDER BY history_group DESC
			LIMIT -1 OFFSET ?
		)
	`, limit)
	if err != nil {
		return fmt.Errorf("trim undo log: %w", err)
	}
	return nil
}

// HistoryStats summarizes both history logs.
type HistoryStats struct {
	CurrentGroup int64 `json:"current_group"`
	GroupLimit   int64 `json:"group_limit"`
	UndoGroups   int   `json:"undo_groups"`
	RedoGroups   int   `json:"redo_groups"`
	UndoImages   int   `json:"undo_images"`
	RedoImages   int   `json:"redo_images"`
}

// HistoryStats reads the history summary outside any transaction.
func (s *Store) HistoryStats(ctx context.Context) (HistoryStats, error) {
	return readHistoryStats(ctx, s.db)
}

// HistoryStats reads the history summary inside the transaction.
func (t *Tx) HistoryStats(ctx context.Context) (HistoryStats, error) {
	return readHistoryStats(ctx, t.tx)
}

func readHistoryStats(ctx context.Context, q querier) (HistoryStats, error) {
	var st HistoryStats
	err := q.QueryRowContext(ctx, `
		SELECT
			h.cur_undo_group,
			h.group_limit,
			(SELECT COUNT(DISTINCT history_group) FROM undo_log),
			(SELECT COUNT(DISTINCT history_group) FROM redo_log),
			(SELECT COUNT(*) FROM undo_log),
			(SELECT COUNT(*) FROM redo_log)
		FROM history_stats h WHERE h.id = 1
	`).Scan(&st.CurrentGroup, &st.GroupLimit, &st.UndoGroups, &st.RedoGroups, &st.UndoImages, &st.RedoImages)
	if err != nil {
		return st, fmt.Errorf("read history stats: %w", err)
	}
	return st, nil
}

func replayOrder(log Log) string {
	if log == UndoLog {
		return "DESC"
	}
	return "ASC"
}

// GroupSummary describes one group in a history log.
type GroupSummary struct {
	Group  int64    `json:"group"`
	Action string   `json:"action"`
	Images int      `json:"images"`
	Tables []string `json:"tables"`
}

// ListGroups returns the groups of a log in replay order: the group the
// next undo or redo would apply comes first.
// A limit of 0 or less returns every group.
func (s *Store) ListGroups(ctx context.Context, log Log, limit int) ([]GroupSummary, error) {
	if log != UndoLog && log != RedoLog {
		return nil, fmt.Errorf("list groups: unknown log %q", log)
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT history_group, MIN(action), COUNT(*), GROUP_CONCAT(DISTINCT table_name)
		FROM %s
		GROUP BY history_group
		ORDER BY history_group %s
		LIMIT ?
	`, log, replayOrder(log)), limit)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := []GroupSummary{}
	for rows.Next() {
		var (
			g      GroupSummary
			tables string
		)
		if err := rows.Scan(&g.Group, &g.Action, &g.Images, &tables); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		g.Tables = strings.Split(tables, ",")
		sort.Strings(g.Tables)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return groups, nil
}
