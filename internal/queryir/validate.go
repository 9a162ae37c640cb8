package queryir

import (
	"fmt"
	"regexp"
)

// identPattern restricts table and column names to lower snake case.
// Names are quoted by the compiler as well; the pattern keeps typos and
// injected text out of the SQL entirely.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidIdent reports whether name may be used as a table or column.
func ValidIdent(name string) bool {
	return identPattern.MatchString(name)
}

// Validate checks a statement before compilation.
//
// Validate is a pure function with no side effects.
func Validate(stmt Statement) error {
	switch s := stmt.(type) {
	case nil:
		return fmt.Errorf("nil statement")
	case Select:
		return validateSelect(s)
	case *Select:
		return validateSelect(*s)
	case Insert:
		return validateInsert(s)
	case *Insert:
		return validateInsert(*s)
	case Update:
		return validateUpdate(s)
	case *Update:
		return validateUpdate(*s)
	case Delete:
		return validateDelete(s)
	case *Delete:
		return validateDelete(*s)
	default:
		return fmt.Errorf("unknown statement type %T", stmt)
	}
}

func validateSelect(s Select) error {
	if err := checkIdent("table", s.From); err != nil {
		return err
	}
	for _, c := range s.Columns {
		if err := checkIdent("column", c); err != nil {
			return err
		}
	}
	for _, o := range s.OrderBy {
		if err := checkIdent("order column", o.Field); err != nil {
			return err
		}
	}
	if s.Limit < 0 {
		return fmt.Errorf("negative limit %d", s.Limit)
	}
	return validatePredicate(s.Filter)
}

func validateInsert(s Insert) error {
	if err := checkIdent("table", s.Into); err != nil {
		return err
	}
	for c := range s.Values {
		if err := checkIdent("column", c); err != nil {
			return err
		}
	}
	return nil
}

func validateUpdate(s Update) error {
	if err := checkIdent("table", s.Table); err != nil {
		return err
	}
	if len(s.Set) == 0 {
		return fmt.Errorf("update %s: no columns to set", s.Table)
	}
	for c := range s.Set {
		if err := checkIdent("column", c); err != nil {
			return err
		}
	}
	if s.Filter == nil {
		return fmt.Errorf("update %s: filter is required", s.Table)
	}
	return validatePredicate(s.Filter)
}

func validateDelete(s Delete) error {
	if err := checkIdent("table", s.From); err != nil {
		return err
	}
	if s.Filter == nil {
		return fmt.Errorf("delete %s: filter is required", s.From)
	}
	return validatePredicate(s.Filter)
}

func validatePredicate(p Predicate) error {
	switch pred := p.(type) {
	case nil:
		return nil
	case Equals:
		return checkIdent("column", pred.Field)
	case *Equals:
		return checkIdent("column", pred.Field)
	case In:
		return checkIdent("column", pred.Field)
	case *In:
		return checkIdent("column", pred.Field)
	case And:
		return validateAnd(pred)
	case *And:
		return validateAnd(*pred)
	default:
		return fmt.Errorf("unknown predicate type %T", p)
	}
}

func validateAnd(a And) error {
	for i, p := range a.Predicates {
		if p == nil {
			return fmt.Errorf("and[%d]: nil predicate", i)
		}
		if err := validatePredicate(p); err != nil {
			return fmt.Errorf("and[%d]: %w", i, err)
		}
	}
	return nil
}

func checkIdent(kind, name string) error {
	if !ValidIdent(name) {
		return fmt.Errorf("invalid %s name %q", kind, name)
	}
	return nil
}
