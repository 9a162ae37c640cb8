package harness

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/drillstore/internal/drill"
	"github.com/roach88/drillstore/internal/ir"
	"github.com/roach88/drillstore/internal/queryir"
	"github.com/roach88/drillstore/internal/store"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("Assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// AssertionContext gives assertions access to the final document.
type AssertionContext struct {
	Ctx     context.Context
	Store   *store.Store
	Service *drill.Service
}

// EvaluateAssertions evaluates every assertion and returns one message
// per failure.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertRowCount:
			err = assertRowCount(actx, a)
		case AssertPageOrder:
			err = assertPageOrder(actx, a)
		case AssertHistory:
			err = assertHistory(actx, a)
		case AssertFinalState:
			err = assertFinalState(actx, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func assertRowCount(actx *AssertionContext, a Assertion) error {
	n, err := actx.Store.Count(actx.Ctx, a.Table)
	if err != nil {
		return err
	}
	if n != *a.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows in %s", *a.Count, a.Table),
			Actual:   fmt.Sprintf("%d rows", n),
		}
	}
	return nil
}

func assertPageOrder(actx *AssertionContext, a Assertion) error {
	res := actx.Service.GetPagesInOrder(actx.Ctx)
	if err := res.Err(); err != nil {
		return err
	}
	got := make([]int64, len(res.Data))
	for i, p := range res.Data {
		got[i] = p.ID
	}
	if !slices.Equal(got, a.Pages) {
		return &AssertionError{
			Type:     AssertPageOrder,
			Expected: fmt.Sprintf("pages %v", a.Pages),
			Actual:   fmt.Sprintf("pages %v", got),
		}
	}
	return nil
}

func assertHistory(actx *AssertionContext, a Assertion) error {
	st, err := actx.Store.HistoryStats(actx.Ctx)
	if err != nil {
		return err
	}
	if a.Undo != nil && st.UndoGroups != *a.Undo {
		return &AssertionError{
			Type:     AssertHistory,
			Expected: fmt.Sprintf("%d undo groups", *a.Undo),
			Actual:   fmt.Sprintf("%d undo groups", st.UndoGroups),
		}
	}
	if a.Redo != nil && st.RedoGroups != *a.Redo {
		return &AssertionError{
			Type:     AssertHistory,
			Expected: fmt.Sprintf("%d redo groups", *a.Redo),
			Actual:   fmt.Sprintf("%d redo groups", st.RedoGroups),
		}
	}
	return nil
}

// assertFinalState finds exactly one row matching Where and checks the
// Expect columns with subset semantics.
func assertFinalState(actx *AssertionContext, a Assertion) error {
	filter, err := wherePredicate(a.Where)
	if err != nil {
		return err
	}
	rows, err := actx.Store.Select(actx.Ctx, queryir.Select{From: a.Table, Filter: filter})
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", a.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	where := formatWhere(a.Where)
	switch len(rows) {
	case 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", a.Table, where),
			Actual:   "row not found",
		}
	case 1:
	default:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", a.Table, where),
			Actual:   fmt.Sprintf("%d rows matched (assertion is ambiguous)", len(rows)),
		}
	}

	row := rows[0]
	for _, key := range sortedKeys(a.Expect) {
		want, err := toIRValue(a.Expect[key])
		if err != nil {
			return fmt.Errorf("expect %q: %w", key, err)
		}
		got, ok := row[key]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("columns %v", row.SortedKeys()),
			}
		}
		if !valuesEqual(want, got) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v", key, a.Expect[key]),
				Actual:   fmt.Sprintf("field %q = %v", key, got),
			}
		}
	}
	return nil
}

func wherePredicate(where map[string]any) (queryir.Predicate, error) {
	if len(where) == 0 {
		return nil, nil
	}
	preds := make([]queryir.Predicate, 0, len(where))
	for _, key := range sortedKeys(where) {
		v, err := toIRValue(where[key])
		if err != nil {
			return nil, fmt.Errorf("where %q: %w", key, err)
		}
		preds = append(preds, queryir.Equals{Field: key, Value: v})
	}
	return queryir.And{Predicates: preds}, nil
}

// toIRValue converts a YAML scalar to an IRValue.
func toIRValue(v any) (ir.IRValue, error) {
	switch val := v.(type) {
	case nil:
		return ir.Null, nil
	case string:
		return ir.IRString(val), nil
	case int:
		return ir.IRInt(int64(val)), nil
	case int64:
		return ir.IRInt(val), nil
	case float64:
		return ir.IRFloat(val), nil
	case bool:
		return ir.Bool(val), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

// valuesEqual compares with numeric leniency: YAML writes 100 for a REAL
// column holding 100.0.
func valuesEqual(want, got ir.IRValue) bool {
	if wi, ok := want.(ir.IRInt); ok {
		if gf, ok := got.(ir.IRFloat); ok {
			return float64(wi) == float64(gf)
		}
	}
	return ir.Equal(want, got)
}

func formatWhere(where map[string]any) string {
	if len(where) == 0 {
		return "(all rows)"
	}
	parts := make([]string, 0, len(where))
	for _, k := range sortedKeys(where) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
