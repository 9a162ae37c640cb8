// Package querysql compiles queryir statements to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/drillstore/internal/ir"
	"github.com/roach88/drillstore/internal/queryir"
)

// SQLCompiler compiles queryir statements to parameterized SQL for SQLite.
//
// Every SELECT carries an ORDER BY so reads are deterministic, and every
// value is passed as a ? parameter, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a statement to parameterized SQL.
// Returns (sql, params, error).
func (c *SQLCompiler) Compile(stmt queryir.Statement) (string, []any, error) {
	if err := queryir.Validate(stmt); err != nil {
		return "", nil, fmt.Errorf("invalid statement: %w", err)
	}

	switch s := stmt.(type) {
	case queryir.Select:
		return c.compileSelect(s)
	case *queryir.Select:
		return c.compileSelect(*s)
	case queryir.Insert:
		return c.compileInsert(s)
	case *queryir.Insert:
		return c.compileInsert(*s)
	case queryir.Update:
		return c.compileUpdate(s)
	case *queryir.Update:
		return c.compileUpdate(*s)
	case queryir.Delete:
		return c.compileDelete(s)
	case *queryir.Delete:
		return c.compileDelete(*s)
	default:
		return "", nil, fmt.Errorf("unsupported statement type: %T", stmt)
	}
}

func (c *SQLCompiler) compileSelect(s queryir.Select) (string, []any, error) {
	cols := "*"
	if len(s.Columns) > 0 {
		quoted := make([]string, len(s.Columns))
		for i, col := range s.Columns {
			quoted[i] = quoteIdent(col)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", cols, quoteIdent(s.From))

	var params []any
	if s.Filter != nil {
		where, whereParams, err := c.compilePredicate(s.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
		params = whereParams
	}

	sb.WriteString(" ORDER BY ")
	sb.WriteString(c.orderKey(s.OrderBy))

	if s.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", s.Limit)
	}

	return sb.String(), params, nil
}

// orderKey returns the ORDER BY clause. id is always the final
// tiebreaker so equal sort keys still come back in a stable order.
func (c *SQLCompiler) orderKey(order []queryir.Order) string {
	parts := make([]string, 0, len(order)+1)
	hasID := false
	for _, o := range order {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, fmt.Sprintf("%s %s", quoteIdent(o.Field), dir))
		if o.Field == ir.ColumnID {
			hasID = true
		}
	}
	if !hasID {
		parts = append(parts, quoteIdent(ir.ColumnID)+" ASC")
	}
	return strings.Join(parts, ", ")
}

func (c *SQLCompiler) compileInsert(s queryir.Insert) (string, []any, error) {
	if len(s.Values) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", quoteIdent(s.Into)), nil, nil
	}

	keys := s.Values.SortedKeys()
	cols := make([]string, len(keys))
	marks := make([]string, len(keys))
	params := make([]any, len(keys))
	for i, k := range keys {
		cols[i] = quoteIdent(k)
		marks[i] = "?"
		params[i] = ir.ToSQL(s.Values[k])
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(s.Into),
		strings.Join(cols, ", "),
		strings.Join(marks, ", "))
	return sql, params, nil
}

func (c *SQLCompiler) compileUpdate(s queryir.Update) (string, []any, error) {
	keys := s.Set.SortedKeys()
	sets := make([]string, len(keys))
	params := make([]any, 0, len(keys))
	for i, k := range keys {
		sets[i] = quoteIdent(k) + " = ?"
		params = append(params, ir.ToSQL(s.Set[k]))
	}

	where, whereParams, err := c.compilePredicate(s.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	params = append(params, whereParams...)

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		quoteIdent(s.Table),
		strings.Join(sets, ", "),
		where)
	return sql, params, nil
}

func (c *SQLCompiler) compileDelete(s queryir.Delete) (string, []any, error) {
	where, params, err := c.compilePredicate(s.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", quoteIdent(s.From), where), params, nil
}

// compilePredicate compiles a predicate to a WHERE fragment.
// Values are NEVER interpolated - always ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Equals:
		return c.compileEquals(pred)
	case *queryir.Equals:
		return c.compileEquals(*pred)
	case queryir.In:
		return c.compileIn(pred)
	case *queryir.In:
		return c.compileIn(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileEquals(e queryir.Equals) (string, []any, error) {
	if ir.IsNull(e.Value) {
		return quoteIdent(e.Field) + " IS NULL", nil, nil
	}
	return quoteIdent(e.Field) + " = ?", []any{ir.ToSQL(e.Value)}, nil
}

func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "0 = 1", nil, nil
	}
	marks := make([]string, len(in.Values))
	params := make([]any, len(in.Values))
	for i, v := range in.Values {
		if ir.IsNull(v) {
			return "", nil, fmt.Errorf("IN list for %s contains NULL", in.Field)
		}
		marks[i] = "?"
		params[i] = ir.ToSQL(v)
	}
	return fmt.Sprintf("%s IN (%s)", quoteIdent(in.Field), strings.Join(marks, ", ")), params, nil
}

func (c *SQLCompiler) compileAnd(a queryir.And) (string, []any, error) {
	if len(a.Predicates) == 0 {
		return "1 = 1", nil, nil
	}
	parts := make([]string, 0, len(a.Predicates))
	var params []any
	for i, p := range a.Predicates {
		sql, ps, err := c.compilePredicate(p)
		if err != nil {
			return "", nil, fmt.Errorf("and[%d]: %w", i, err)
		}
		parts = append(parts, "("+sql+")")
		params = append(params, ps...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// quoteIdent double-quotes an identifier. Validate has already rejected
// anything but lower snake case, so no escaping is needed.
func quoteIdent(name string) string {
	return `"` + name + `"`
}
