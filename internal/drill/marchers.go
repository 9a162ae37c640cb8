package drill

import (
	"context"

	"github.com/roach88/drillstore/internal/engine"
	"github.com/roach88/drillstore/internal/ir"
)

// NewMarcherArgs describes one marcher to create.
type NewMarcherArgs struct {
	Name        *string `json:"name,omitempty" yaml:"name"`
	Section     string  `json:"section" yaml:"section"`
	DrillPrefix string  `json:"drill_prefix" yaml:"drill_prefix"`
	DrillOrder  int64   `json:"drill_order" yaml:"drill_order"`
	Notes       *string `json:"notes,omitempty" yaml:"notes"`
}

// ModifiedMarcher is a partial marcher update.
type ModifiedMarcher struct {
	ID          int64
	Name        ir.Opt[*string]
	Section     ir.Opt[string]
	DrillPrefix ir.Opt[string]
	DrillOrder  ir.Opt[int64]
	Notes       ir.Opt[*string]
}

// CreateMarchers creates marchers and places each on every page.
func (s *Service) CreateMarchers(ctx context.Context, args []NewMarcherArgs) engine.Result[[]ir.Marcher] {
	return engine.Run(ctx, s.engine, "create-marchers", func(ctx context.Context, tx *engine.Tx) ([]ir.Marcher, error) {
		return s.createMarchers(ctx, tx, args)
	})
}

// UpdateMarchers applies partial marcher updates.
func (s *Service) UpdateMarchers(ctx context.Context, mods []ModifiedMarcher) engine.Result[[]ir.Marcher] {
	return engine.Run(ctx, s.engine, "update-marchers", func(ctx context.Context, tx *engine.Tx) ([]ir.Marcher, error) {
		rows := make([]ir.Row, len(mods))
		for i, m := range mods {
			rows[i] = ir.Row(newPatch(m.ID).
				nullableStr("name", m.Name).
				str("section", m.Section).
				str("drill_prefix", m.DrillPrefix).
				integer("drill_order", m.DrillOrder).
				nullableStr("notes", m.Notes))
		}
		updated, err := tx.UpdateItems(ctx, ir.TableMarchers, rows, current)
		if err != nil {
			return nil, err
		}
		return project(updated, ir.MarcherFromRow), nil
	})
}

// DeleteMarchers deletes marchers together with their placements and
// shape memberships.
func (s *Service) DeleteMarchers(ctx context.Context, ids []int64) engine.Result[[]ir.Marcher] {
	return engine.Run(ctx, s.engine, "delete-marchers", func(ctx context.Context, tx *engine.Tx) ([]ir.Marcher, error) {
		return s.deleteMarchers(ctx, tx, ids)
	})
}

// GetMarchers returns every marcher by id.
func (s *Service) GetMarchers(ctx context.Context) engine.Result[[]ir.Marcher] {
	rows, err := selectWhere(ctx, s.engine.Store(), ir.TableMarchers, nil)
	if err != nil {
		return engine.Fail[[]ir.Marcher](err)
	}
	return engine.Ok(project(rows, ir.MarcherFromRow))
}

func (s *Service) createMarchers(ctx context.Context, tx *engine.Tx, args []NewMarcherArgs) ([]ir.Marcher, error) {
	rows := make([]ir.Row, len(args))
	for i, a := range args {
		rows[i] = ir.Row{
			"name":         ir.NullableString(a.Name),
			"section":      ir.IRString(a.Section),
			"drill_prefix": ir.IRString(a.DrillPrefix),
			"drill_order":  ir.IRInt(a.DrillOrder),
			"notes":        ir.NullableString(a.Notes),
		}
	}
	created, err := tx.CreateItems(ctx, ir.TableMarchers, rows, current)
	if err != nil {
		return nil, err
	}
	if err := s.placeNewMarchers(ctx, tx, rowIDs(created)); err != nil {
		return nil, err
	}
	return project(created, ir.MarcherFromRow), nil
}

func (s *Service) deleteMarchers(ctx context.Context, tx *engine.Tx, ids []int64) ([]ir.Marcher, error) {
	if len(ids) == 0 {
		return []ir.Marcher{}, nil
	}
	missing, err := tx.MissingIDs(ctx, ir.TableMarchers, ids)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, engine.NotFoundError(ir.TableMarchers, missing)
	}

	if err := s.clearMarchers(ctx, tx, ids); err != nil {
		return nil, err
	}
	deleted, err := tx.DeleteItems(ctx, ir.TableMarchers, ids, current)
	if err != nil {
		return nil, err
	}
	return project(deleted, ir.MarcherFromRow), nil
}
