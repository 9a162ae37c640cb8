// Package queryir provides a small statement intermediate representation
// for the row-level reads and writes drillstore performs.
//
// Every write to a document table and every read behind a feature
// operation is expressed as a queryir.Statement and compiled by
// querysql. Keeping the statements as data lets the change-capture layer
// and the undo/redo executor share one code path for SQL generation, and
// keeps identifiers and values from ever being spliced into SQL text.
//
// SEALED INTERFACES:
//
// Statement and Predicate are sealed with marker methods, so backends can
// switch exhaustively:
//
//	switch s := stmt.(type) {
//	case Select:
//	case Insert:
//	case Update:
//	case Delete:
//	}
//
// NULL HANDLING:
//
// Equals with an ir.IRNull value compiles to IS NULL. In with an empty
// value list matches nothing.
package queryir
