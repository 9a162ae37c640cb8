package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/drillstore/internal/ir"
	"github.com/roach88/drillstore/internal/queryir"
)

func TestCompile_SelectAlwaysOrdered(t *testing.T) {
	c := NewSQLCompiler()

	sql, params, err := c.Compile(queryir.Select{From: "pages"})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "pages" ORDER BY "id" ASC`, sql)
	assert.Empty(t, params)
}

func TestCompile_SelectWithFilterOrderLimit(t *testing.T) {
	c := NewSQLCompiler()

	sql, params, err := c.Compile(queryir.Select{
		From:    "shape_page_marchers",
		Columns: []string{"id", "position_order"},
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: "shape_page_id", Value: ir.IRInt(4)},
			queryir.Equals{Field: "position_order", Value: ir.Null},
		}},
		OrderBy: []queryir.Order{{Field: "position_order", Desc: true}},
		Limit:   2,
	})
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "id", "position_order" FROM "shape_page_marchers" WHERE ("shape_page_id" = ?) AND ("position_order" IS NULL) ORDER BY "position_order" DESC, "id" ASC LIMIT 2`,
		sql)
	assert.Equal(t, []any{int64(4)}, params)
}

func TestCompile_InsertSortedColumns(t *testing.T) {
	c := NewSQLCompiler()

	sql, params, err := c.Compile(queryir.Insert{Into: "marcher_pages", Values: ir.Row{
		"y":          ir.IRFloat(100),
		"marcher_id": ir.IRInt(1),
		"notes":      ir.Null,
	}})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "marcher_pages" ("marcher_id", "notes", "y") VALUES (?, ?, ?)`, sql)
	assert.Equal(t, []any{int64(1), nil, 100.0}, params)
}

func TestCompile_InsertDefaultValues(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Insert{Into: "shapes"})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "shapes" DEFAULT VALUES`, sql)
	assert.Nil(t, params)
}

func TestCompile_Update(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Update{
		Table:  "pages",
		Set:    ir.Row{"next_page_id": ir.Null, "counts": ir.IRInt(8)},
		Filter: queryir.ByID(3),
	})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "pages" SET "counts" = ?, "next_page_id" = ? WHERE "id" = ?`, sql)
	assert.Equal(t, []any{int64(8), nil, int64(3)}, params)
}

func TestCompile_DeleteIn(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Delete{
		From:   "marcher_pages",
		Filter: queryir.Ints("page_id", []int64{1, 2}),
	})
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "marcher_pages" WHERE "page_id" IN (?, ?)`, sql)
	assert.Equal(t, []any{int64(1), int64(2)}, params)
}

func TestCompile_EmptyInMatchesNothing(t *testing.T) {
	sql, _, err := NewSQLCompiler().Compile(queryir.Select{From: "pages", Filter: queryir.IDs(nil)})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "pages" WHERE 0 = 1 ORDER BY "id" ASC`, sql)
}

func TestCompile_RejectsInvalid(t *testing.T) {
	c := NewSQLCompiler()

	_, _, err := c.Compile(queryir.Delete{From: "pages"})
	assert.Error(t, err, "unfiltered delete")

	_, _, err = c.Compile(queryir.Select{From: "pages", Filter: queryir.In{Field: "id", Values: []ir.IRValue{ir.Null}}})
	assert.Error(t, err, "NULL inside IN")

	_, _, err = c.Compile(nil)
	assert.Error(t, err)
}
