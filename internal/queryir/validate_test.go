package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/drillstore/internal/ir"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		stmt    Statement
		wantErr bool
	}{
		{"select", Select{From: "pages", Filter: ByID(1)}, false},
		{"select pointer", &Select{From: "pages"}, false},
		{"select bad table", Select{From: "pages; DROP TABLE x"}, true},
		{"select bad order", Select{From: "pages", OrderBy: []Order{{Field: "Id"}}}, true},
		{"select negative limit", Select{From: "pages", Limit: -1}, true},
		{"insert", Insert{Into: "pages", Values: ir.Row{"counts": ir.IRInt(8)}}, false},
		{"insert default values", Insert{Into: "pages"}, false},
		{"insert bad column", Insert{Into: "pages", Values: ir.Row{"a b": ir.IRInt(1)}}, true},
		{"update", Update{Table: "pages", Set: ir.Row{"counts": ir.IRInt(1)}, Filter: ByID(1)}, false},
		{"update without filter", Update{Table: "pages", Set: ir.Row{"counts": ir.IRInt(1)}}, true},
		{"update without set", Update{Table: "pages", Filter: ByID(1)}, true},
		{"delete", Delete{From: "pages", Filter: IDs([]int64{1, 2})}, false},
		{"delete without filter", Delete{From: "pages"}, true},
		{"and with nil", Select{From: "pages", Filter: And{Predicates: []Predicate{nil}}}, true},
		{"nested and", Select{From: "pages", Filter: And{Predicates: []Predicate{
			Equals{Field: "page_id", Value: ir.IRInt(1)},
			And{Predicates: []Predicate{Ints("marcher_id", []int64{2})}},
		}}}, false},
		{"nil", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.stmt)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidIdent(t *testing.T) {
	assert.True(t, ValidIdent("shape_page_marchers"))
	assert.True(t, ValidIdent("_x1"))
	assert.False(t, ValidIdent("1x"))
	assert.False(t, ValidIdent(""))
	assert.False(t, ValidIdent(`id"`))
}
