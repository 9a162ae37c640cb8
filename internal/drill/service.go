package drill

import (
	"context"

	"github.com/roach88/drillstore/internal/engine"
	"github.com/roach88/drillstore/internal/ir"
	"github.com/roach88/drillstore/internal/queryir"
)

// DefaultX and DefaultY are where a marcher stands on a page that has no
// earlier placement to copy.
const (
	DefaultX = 100.0
	DefaultY = 100.0
)

// Placement is a marcher position on the field.
type Placement struct {
	X float64
	Y float64
}

// Service runs feature operations on one document.
type Service struct {
	engine    *engine.Engine
	placement Placement
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultPlacement overrides where new marcher-page rows start when
// there is no preceding page to copy from.
func WithDefaultPlacement(x, y float64) Option {
	return func(s *Service) {
		s.placement = Placement{X: x, Y: y}
	}
}

// New creates a Service on e.
func New(e *engine.Engine, opts ...Option) *Service {
	s := &Service{engine: e, placement: Placement{X: DefaultX, Y: DefaultY}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the engine the service runs actions on.
func (s *Service) Engine() *engine.Engine {
	return s.engine
}

var current = engine.UseCurrentGroup()

// rowReader is satisfied by both *store.Store and *engine.Tx, so read
// helpers serve accessors and action bodies alike.
type rowReader interface {
	Select(ctx context.Context, q queryir.Select) ([]ir.Row, error)
}

func selectWhere(ctx context.Context, r rowReader, table string, filter queryir.Predicate) ([]ir.Row, error) {
	return r.Select(ctx, queryir.Select{From: table, Filter: filter})
}

func project[T any](rows []ir.Row, fn func(ir.Row) T) []T {
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = fn(r)
	}
	return out
}

func rowIDs(rows []ir.Row) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		if id, ok := r.ID(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func eqInt(field string, v int64) queryir.Equals {
	return queryir.Equals{Field: field, Value: ir.IRInt(v)}
}

// patch builds an update row from optional fields. Only set fields are
// included, so absent fields stay untouched.
type patch ir.Row

func newPatch(id int64) patch {
	return patch{ir.ColumnID: ir.IRInt(id)}
}

func (p patch) str(col string, o ir.Opt[string]) patch {
	if v, ok := o.Get(); ok {
		p[col] = ir.IRString(v)
	}
	return p
}

func (p patch) nullableStr(col string, o ir.Opt[*string]) patch {
	if v, ok := o.Get(); ok {
		p[col] = ir.NullableString(v)
	}
	return p
}

func (p patch) integer(col string, o ir.Opt[int64]) patch {
	if v, ok := o.Get(); ok {
		p[col] = ir.IRInt(v)
	}
	return p
}

func (p patch) float(col string, o ir.Opt[float64]) patch {
	if v, ok := o.Get(); ok {
		p[col] = ir.IRFloat(v)
	}
	return p
}

func (p patch) boolean(col string, o ir.Opt[bool]) patch {
	if v, ok := o.Get(); ok {
		p[col] = ir.Bool(v)
	}
	return p
}
