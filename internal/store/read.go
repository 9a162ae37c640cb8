package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/drillstore/internal/ir"
	"github.com/roach88/drillstore/internal/queryir"
	"github.com/roach88/drillstore/internal/querysql"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Select runs a read outside any transaction. Readers never observe a
// partial group because groups commit in one transaction.
func (s *Store) Select(ctx context.Context, q queryir.Select) ([]ir.Row, error) {
	return selectRows(ctx, s.db, s.compiler, q)
}

// Select runs a read inside the transaction.
func (t *Tx) Select(ctx context.Context, q queryir.Select) ([]ir.Row, error) {
	return selectRows(ctx, t.tx, t.store.compiler, q)
}

// GetRow reads one row by id. The bool is false when no row exists.
func (t *Tx) GetRow(ctx context.Context, table string, id int64) (ir.Row, bool, error) {
	rows, err := t.Select(ctx, queryir.Select{From: table, Filter: queryir.ByID(id)})
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// MissingIDs returns the ids from the input that have no row, in input order.
func (t *Tx) MissingIDs(ctx context.Context, table string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	rows, err := t.Select(ctx, queryir.Select{
		From:    table,
		Columns: []string{ir.ColumnID},
		Filter:  queryir.IDs(ids),
	})
	if err != nil {
		return nil, err
	}
	present := make(map[int64]bool, len(rows))
	for _, r := range rows {
		if id, ok := r.ID(); ok {
			present[id] = true
		}
	}
	missing := []int64{}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !present[id] && !seen[id] {
			missing = append(missing, id)
		}
		seen[id] = true
	}
	return missing, nil
}

// Count returns the number of rows in a table.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	if !queryir.ValidIdent(table) {
		return 0, fmt.Errorf("count: invalid table name %q", table)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Snapshot reads every document table, ordered by id.
func (s *Store) Snapshot(ctx context.Context) (map[string][]ir.Row, error) {
	out := make(map[string][]ir.Row, len(ir.DocumentTables))
	for _, table := range ir.DocumentTables {
		rows, err := s.Select(ctx, queryir.Select{From: table})
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", table, err)
		}
		out[table] = rows
	}
	return out, nil
}

// SnapshotHashes hashes each document table. Two documents with equal
// hashes hold byte-identical rows.
func (s *Store) SnapshotHashes(ctx context.Context) (map[string]string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(snap))
	for table, rows := range snap {
		h, err := ir.SnapshotHash(table, rows)
		if err != nil {
			return nil, err
		}
		out[table] = h
	}
	return out, nil
}

func selectRows(ctx context.Context, q querier, c *querysql.SQLCompiler, stmt queryir.Select) ([]ir.Row, error) {
	query, args, err := c.Compile(stmt)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", stmt.From, err)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", stmt.From, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", stmt.From, err)
	}
	return out, nil
}

// scanRows converts a result set into rows keyed by column name.
// Returns an empty slice (not nil) when there are no rows.
func scanRows(rows *sql.Rows) ([]ir.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := []ir.Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(ir.Row, len(cols))
		for i, col := range cols {
			v, err := ir.FromSQL(vals[i])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col, err)
			}
			row[col] = v
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
