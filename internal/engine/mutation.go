package engine

import (
	"context"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/drillstore/internal/ir"
	"github.com/roach88/drillstore/internal/store"
)

// Generic Mutation Layer.
//
// CreateItems, UpdateItems and DeleteItems are the only sanctioned writes
// to document tables. Every row they touch is captured into the undo log
// by the store, and each call is all-or-nothing: a failure part way
// through reverts exactly the images the call wrote before the error is
// returned.

const (
	columnCreatedAt = "created_at"
	columnUpdatedAt = "updated_at"
)

// MutationOption configures one Mutation Layer call.
type MutationOption func(*mutationConfig)

type mutationConfig struct {
	useCurrentGroup bool
}

// UseCurrentGroup writes into the group already open instead of
// bracketing the call with its own group. Composite operations pass it
// to every call so the whole action undoes as one step.
func UseCurrentGroup() MutationOption {
	return func(c *mutationConfig) {
		c.useCurrentGroup = true
	}
}

func newMutationConfig(opts []MutationOption) mutationConfig {
	var c mutationConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// CreateItems inserts rows into table and returns them as stored.
//
// Caller ids are ignored; ids are generated. created_at and updated_at are
// stamped when the table has them. Empty input is a no-op.
func (t *Tx) CreateItems(ctx context.Context, table string, rows []ir.Row, opts ...MutationOption) ([]ir.Row, error) {
	info, err := t.tableInfo(table)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []ir.Row{}, nil
	}

	now := t.Now()
	created := make([]ir.Row, 0, len(rows))
	err = t.mutate(ctx, "create", table, newMutationConfig(opts), func() error {
		for _, row := range rows {
			values := normalize(row.Without(ir.ColumnID))
			stamp(info, values, now, true)
			stored, err := t.InsertRow(ctx, table, values)
			if err != nil {
				return err
			}
			created = append(created, stored)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateItems applies per-row partial patches. Every row must carry "id";
// only the other columns present in the row are written. If any id is
// missing nothing is written and the error lists every missing id.
func (t *Tx) UpdateItems(ctx context.Context, table string, rows []ir.Row, opts ...MutationOption) ([]ir.Row, error) {
	info, err := t.tableInfo(table)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []ir.Row{}, nil
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		id, ok := row.ID()
		if !ok {
			return nil, InvalidArgument("update %s: row %d has no id", table, i)
		}
		ids[i] = id
	}
	if err := t.precheck(ctx, table, ids); err != nil {
		return nil, err
	}

	now := t.Now()
	updated := make([]ir.Row, 0, len(rows))
	err = t.mutate(ctx, "update", table, newMutationConfig(opts), func() error {
		for i, row := range rows {
			patch := normalize(row.Without(ir.ColumnID))
			stamp(info, patch, now, false)
			after, err := t.UpdateRow(ctx, table, ids[i], patch)
			if err != nil {
				return err
			}
			updated = append(updated, after)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteItems deletes rows by id and returns each row as it was. Repeated
// ids are deleted once. Same precheck as UpdateItems.
func (t *Tx) DeleteItems(ctx context.Context, table string, ids []int64, opts ...MutationOption) ([]ir.Row, error) {
	if _, err := t.tableInfo(table); err != nil {
		return nil, err
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return []ir.Row{}, nil
	}
	if err := t.precheck(ctx, table, ids); err != nil {
		return nil, err
	}

	deleted := make([]ir.Row, 0, len(ids))
	err := t.mutate(ctx, "delete", table, newMutationConfig(opts), func() error {
		for _, id := range ids {
			before, err := t.DeleteRow(ctx, table, id)
			if err != nil {
				return err
			}
			deleted = append(deleted, before)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// mutate brackets apply with group bookkeeping and local rollback.
func (t *Tx) mutate(ctx context.Context, op, table string, cfg mutationConfig, apply func() error) error {
	if !cfg.useCurrentGroup {
		if _, err := t.AdvanceGroup(ctx); err != nil {
			return err
		}
	}

	mark, err := t.LastSequence(ctx)
	if err != nil {
		return err
	}

	if err := apply(); err != nil {
		return t.revert(ctx, op, table, mark, err)
	}

	if !cfg.useCurrentGroup {
		if _, err := t.AdvanceGroup(ctx); err != nil {
			return err
		}
	}
	return nil
}

// revert unwinds every image written after mark. The reverted writes reach
// neither history log.
func (t *Tx) revert(ctx context.Context, op, table string, mark int64, cause error) error {
	t.engine.metrics.rollbacks.Inc()

	replay, err := t.RevertSince(ctx, mark)
	if err != nil {
		t.logger.Error("revert failed", "op", op, "table", table, "cause", cause, "error", err)
		return fmt.Errorf("%s %s: %w (revert failed: %v)", op, table, cause, err)
	}

	t.logger.Warn("mutation reverted", "op", op, "table", table, "count", replay.Count, "error", cause)
	return fmt.Errorf("%s %s: %w", op, table, cause)
}

func (t *Tx) precheck(ctx context.Context, table string, ids []int64) error {
	missing, err := t.MissingIDs(ctx, table, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return NotFoundError(table, missing)
	}
	return nil
}

func (t *Tx) tableInfo(table string) (store.TableInfo, error) {
	info, ok := t.Store().Table(table)
	if !ok {
		return store.TableInfo{}, InvalidArgument("table %q is not tracked", table)
	}
	return info, nil
}

// normalize NFC-normalizes every string value so equal text compares and
// hashes equal regardless of how it was typed.
func normalize(row ir.Row) ir.Row {
	for k, v := range row {
		if s, ok := v.(ir.IRString); ok {
			row[k] = ir.IRString(norm.NFC.String(string(s)))
		}
	}
	return row
}

func stamp(info store.TableInfo, row ir.Row, now string, created bool) {
	if created && info.HasColumn(columnCreatedAt) {
		row[columnCreatedAt] = ir.IRString(now)
	}
	if info.HasColumn(columnUpdatedAt) {
		row[columnUpdatedAt] = ir.IRString(now)
	}
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
