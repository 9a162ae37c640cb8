package drill

import (
	"context"

	"github.com/roach88/drillstore/internal/engine"
	"github.com/roach88/drillstore/internal/geom"
	"github.com/roach88/drillstore/internal/ir"
	"github.com/roach88/drillstore/internal/queryir"
)

// NewShapePageArgs describes a shape's geometry on one page.
//
// When ShapeID is nil a new shape named ShapeName is created. MarcherIDs
// become members in the given order and are spread along the path.
type NewShapePageArgs struct {
	ShapeID    *int64  `json:"shape_id,omitempty" yaml:"shape_id"`
	ShapeName  string  `json:"shape_name,omitempty" yaml:"shape_name"`
	PageID     int64   `json:"page_id" yaml:"page_id"`
	SvgPath    string  `json:"svg_path" yaml:"svg_path"`
	Notes      *string `json:"notes,omitempty" yaml:"notes"`
	MarcherIDs []int64 `json:"marcher_ids,omitempty" yaml:"marcher_ids"`
}

// ModifiedShapePage is a partial shape page update. A new SvgPath moves
// the members onto the new geometry.
type ModifiedShapePage struct {
	ID      int64
	SvgPath ir.Opt[string]
	Notes   ir.Opt[*string]
}

// CreateShapePages creates shape pages with their members.
func (s *Service) CreateShapePages(ctx context.Context, args []NewShapePageArgs) engine.Result[[]ir.ShapePage] {
	return engine.Run(ctx, s.engine, "create-shape-pages", func(ctx context.Context, tx *engine.Tx) ([]ir.ShapePage, error) {
		return createShapePages(ctx, tx, args)
	})
}

// UpdateShapePages applies partial shape page updates.
func (s *Service) UpdateShapePages(ctx context.Context, mods []ModifiedShapePage) engine.Result[[]ir.ShapePage] {
	return engine.Run(ctx, s.engine, "update-shape-pages", func(ctx context.Context, tx *engine.Tx) ([]ir.ShapePage, error) {
		return updateShapePages(ctx, tx, mods)
	})
}

// DeleteShapePages deletes shape pages, their members, and shapes left
// with no shape page.
func (s *Service) DeleteShapePages(ctx context.Context, ids []int64) engine.Result[[]ir.ShapePage] {
	return engine.Run(ctx, s.engine, "delete-shape-pages", func(ctx context.Context, tx *engine.Tx) ([]ir.ShapePage, error) {
		if err := requireRows(ctx, tx, ir.TableShapePages, ids); err != nil {
			return nil, err
		}
		return deleteShapePages(ctx, tx, ids)
	})
}

// GetShapes returns every shape by id.
func (s *Service) GetShapes(ctx context.Context) engine.Result[[]ir.Shape] {
	rows, err := selectWhere(ctx, s.engine.Store(), ir.TableShapes, nil)
	if err != nil {
		return engine.Fail[[]ir.Shape](err)
	}
	return engine.Ok(project(rows, ir.ShapeFromRow))
}

// GetShapePages returns shape pages, limited to one page when pageID is set.
func (s *Service) GetShapePages(ctx context.Context, pageID *int64) engine.Result[[]ir.ShapePage] {
	var rows []ir.Row
	var err error
	if pageID != nil {
		rows, err = selectWhere(ctx, s.engine.Store(), ir.TableShapePages, eqInt("page_id", *pageID))
	} else {
		rows, err = selectWhere(ctx, s.engine.Store(), ir.TableShapePages, nil)
	}
	if err != nil {
		return engine.Fail[[]ir.ShapePage](err)
	}
	return engine.Ok(project(rows, ir.ShapePageFromRow))
}

func createShapePages(ctx context.Context, tx *engine.Tx, args []NewShapePageArgs) ([]ir.ShapePage, error) {
	if len(args) == 0 {
		return []ir.ShapePage{}, nil
	}

	var pageIDs, shapeIDs, marcherIDs []int64
	for i, a := range args {
		if _, err := geom.Parse(a.SvgPath); err != nil {
			return nil, engine.InvalidArgument("shape page %d: %v", i, err)
		}
		pageIDs = append(pageIDs, a.PageID)
		if a.ShapeID != nil {
			shapeIDs = append(shapeIDs, *a.ShapeID)
		}
		marcherIDs = append(marcherIDs, a.MarcherIDs...)
	}
	if err := requireRows(ctx, tx, ir.TablePages, pageIDs); err != nil {
		return nil, err
	}
	if err := requireRows(ctx, tx, ir.TableShapes, shapeIDs); err != nil {
		return nil, err
	}
	if err := requireRows(ctx, tx, ir.TableMarchers, marcherIDs); err != nil {
		return nil, err
	}

	var ids []int64
	for _, a := range args {
		shapeID, err := resolveShape(ctx, tx, a)
		if err != nil {
			return nil, err
		}
		created, err := tx.CreateItems(ctx, ir.TableShapePages, []ir.Row{{
			"shape_id": ir.IRInt(shapeID),
			"page_id":  ir.IRInt(a.PageID),
			"svg_path": ir.IRString(a.SvgPath),
			"notes":    ir.NullableString(a.Notes),
		}}, current)
		if err != nil {
			return nil, err
		}
		spID := rowIDs(created)[0]
		ids = append(ids, spID)

		members := make([]ir.Row, len(a.MarcherIDs))
		for i, m := range a.MarcherIDs {
			if err := checkFreeOnPage(ctx, tx, a.PageID, m); err != nil {
				return nil, err
			}
			members[i] = ir.Row{
				"shape_page_id":     ir.IRInt(spID),
				"marcher_id":        ir.IRInt(m),
				columnPositionOrder: ir.IRInt(positionBase + int64(i)),
			}
		}
		if _, err := tx.CreateItems(ctx, ir.TableShapePageMarchers, members, current); err != nil {
			return nil, err
		}
	}

	if err := redistribute(ctx, tx, ids); err != nil {
		return nil, err
	}
	return readShapePages(ctx, tx, ids)
}

func resolveShape(ctx context.Context, tx *engine.Tx, a NewShapePageArgs) (int64, error) {
	if a.ShapeID != nil {
		return *a.ShapeID, nil
	}
	created, err := tx.CreateItems(ctx, ir.TableShapes, []ir.Row{{"name": ir.IRString(a.ShapeName)}}, current)
	if err != nil {
		return 0, err
	}
	return rowIDs(created)[0], nil
}

func updateShapePages(ctx context.Context, tx *engine.Tx, mods []ModifiedShapePage) ([]ir.ShapePage, error) {
	if len(mods) == 0 {
		return []ir.ShapePage{}, nil
	}
	rows := make([]ir.Row, len(mods))
	var reshaped []int64
	for i, m := range mods {
		if path, ok := m.SvgPath.Get(); ok {
			if _, err := geom.Parse(path); err != nil {
				return nil, engine.InvalidArgument("shape page %d: %v", m.ID, err)
			}
			reshaped = append(reshaped, m.ID)
		}
		rows[i] = ir.Row(newPatch(m.ID).
			str("svg_path", m.SvgPath).
			nullableStr("notes", m.Notes))
	}

	updated, err := tx.UpdateItems(ctx, ir.TableShapePages, rows, current)
	if err != nil {
		return nil, err
	}
	if err := redistribute(ctx, tx, reshaped); err != nil {
		return nil, err
	}
	return project(updated, ir.ShapePageFromRow), nil
}

func readShapePages(ctx context.Context, r rowReader, ids []int64) ([]ir.ShapePage, error) {
	rows, err := selectWhere(ctx, r, ir.TableShapePages, queryir.IDs(ids))
	if err != nil {
		return nil, err
	}
	return project(rows, ir.ShapePageFromRow), nil
}
