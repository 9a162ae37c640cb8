package queryir

import "github.com/roach88/drillstore/internal/ir"

// Statement is a single SQL statement in the IR.
//
// This is a sealed interface - only types in this package implement it.
type Statement interface {
	statementNode()
}

// Predicate is a WHERE condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Select reads rows from one table.
//
//	SELECT <columns|*> FROM <from> WHERE <filter> ORDER BY <order_by> LIMIT <limit>
//
// An empty OrderBy orders by id so reads are always deterministic.
type Select struct {
	From    string
	Columns []string  // nil = all columns
	Filter  Predicate // nil = no filter
	OrderBy []Order
	Limit   int // 0 = no limit
}

func (Select) statementNode() {}

// Order is one ORDER BY key.
type Order struct {
	Field string
	Desc  bool
}

// Insert adds one row. An empty Values map inserts DEFAULT VALUES.
type Insert struct {
	Into   string
	Values ir.Row
}

func (Insert) statementNode() {}

// Update sets columns on every row matching Filter.
// A nil Filter is rejected by Validate.
type Update struct {
	Table  string
	Set    ir.Row
	Filter Predicate
}

func (Update) statementNode() {}

// Delete removes every row matching Filter.
// A nil Filter is rejected by Validate.
type Delete struct {
	From   string
	Filter Predicate
}

func (Delete) statementNode() {}

// Equals matches field = value, or field IS NULL for ir.IRNull.
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// In matches field IN (values...). An empty list matches nothing.
type In struct {
	Field  string
	Values []ir.IRValue
}

func (In) predicateNode() {}

// And is a conjunction. An empty list is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// ByID is shorthand for the primary-key predicate.
func ByID(id int64) Equals {
	return Equals{Field: ir.ColumnID, Value: ir.IRInt(id)}
}

// IDs is shorthand for an id IN (...) predicate.
func IDs(ids []int64) In {
	vals := make([]ir.IRValue, len(ids))
	for i, id := range ids {
		vals[i] = ir.IRInt(id)
	}
	return In{Field: ir.ColumnID, Values: vals}
}

// Ints is shorthand for field IN (...) over integer keys.
func Ints(field string, keys []int64) In {
	vals := make([]ir.IRValue, len(keys))
	for i, k := range keys {
		vals[i] = ir.IRInt(k)
	}
	return In{Field: field, Values: vals}
}
