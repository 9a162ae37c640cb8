package drill

import (
	"context"

	"github.com/roach88/drillstore/internal/engine"
	"github.com/roach88/drillstore/internal/geom"
	"github.com/roach88/drillstore/internal/ir"
	"github.com/roach88/drillstore/internal/queryir"
)

// Cascades keep dependent tables complete: every marcher has exactly one
// placement per page, and no shape page or membership outlives the page
// or marcher it references. All cascade writes join the open group.

// placeNewMarchers gives each marcher a default placement on every page.
func (s *Service) placeNewMarchers(ctx context.Context, tx *engine.Tx, marcherIDs []int64) error {
	if len(marcherIDs) == 0 {
		return nil
	}
	pages, err := selectWhere(ctx, tx, ir.TablePages, nil)
	if err != nil {
		return err
	}

	rows := make([]ir.Row, 0, len(marcherIDs)*len(pages))
	for _, m := range marcherIDs {
		for _, p := range pages {
			pageID, _ := p.ID()
			rows = append(rows, s.placementRow(m, pageID, s.placement))
		}
	}
	_, err = tx.CreateItems(ctx, ir.TableMarcherPages, rows, current)
	return err
}

// placeMarchersOnPage gives every marcher a placement on a new page,
// copied from the page before it when that page has one.
func (s *Service) placeMarchersOnPage(ctx context.Context, tx *engine.Tx, pageID int64, previous *int64) error {
	marchers, err := selectWhere(ctx, tx, ir.TableMarchers, nil)
	if err != nil {
		return err
	}
	if len(marchers) == 0 {
		return nil
	}

	prior := make(map[int64]Placement)
	if previous != nil {
		existing, err := selectWhere(ctx, tx, ir.TableMarcherPages, eqInt("page_id", *previous))
		if err != nil {
			return err
		}
		for _, row := range existing {
			mp := ir.MarcherPageFromRow(row)
			prior[mp.MarcherID] = Placement{X: mp.X, Y: mp.Y}
		}
	}

	rows := make([]ir.Row, len(marchers))
	for i, m := range marchers {
		marcherID, _ := m.ID()
		at, ok := prior[marcherID]
		if !ok {
			at = s.placement
		}
		rows[i] = s.placementRow(marcherID, pageID, at)
	}
	_, err = tx.CreateItems(ctx, ir.TableMarcherPages, rows, current)
	return err
}

func (s *Service) placementRow(marcherID, pageID int64, at Placement) ir.Row {
	return ir.Row{
		"marcher_id": ir.IRInt(marcherID),
		"page_id":    ir.IRInt(pageID),
		"x":          ir.IRFloat(at.X),
		"y":          ir.IRFloat(at.Y),
	}
}

// clearPages removes everything placed on pages about to be deleted.
func (s *Service) clearPages(ctx context.Context, tx *engine.Tx, pageIDs []int64) error {
	placements, err := selectWhere(ctx, tx, ir.TableMarcherPages, queryir.Ints("page_id", pageIDs))
	if err != nil {
		return err
	}
	if _, err := tx.DeleteItems(ctx, ir.TableMarcherPages, rowIDs(placements), current); err != nil {
		return err
	}

	shapePages, err := selectWhere(ctx, tx, ir.TableShapePages, queryir.Ints("page_id", pageIDs))
	if err != nil {
		return err
	}
	_, err = deleteShapePages(ctx, tx, rowIDs(shapePages))
	return err
}

// clearMarchers removes a marcher's placements and memberships, then
// closes the gaps left in the shape pages it belonged to.
func (s *Service) clearMarchers(ctx context.Context, tx *engine.Tx, marcherIDs []int64) error {
	placements, err := selectWhere(ctx, tx, ir.TableMarcherPages, queryir.Ints("marcher_id", marcherIDs))
	if err != nil {
		return err
	}
	if _, err := tx.DeleteItems(ctx, ir.TableMarcherPages, rowIDs(placements), current); err != nil {
		return err
	}

	members, err := selectWhere(ctx, tx, ir.TableShapePageMarchers, queryir.Ints("marcher_id", marcherIDs))
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	touched := shapePagesOf(members)
	if _, err := tx.DeleteItems(ctx, ir.TableShapePageMarchers, rowIDs(members), current); err != nil {
		return err
	}
	return flattenShapePages(ctx, tx, touched)
}

// deleteShapePages deletes shape pages with their memberships, then any
// shape left without a shape page.
func deleteShapePages(ctx context.Context, tx *engine.Tx, ids []int64) ([]ir.ShapePage, error) {
	if len(ids) == 0 {
		return []ir.ShapePage{}, nil
	}
	members, err := selectWhere(ctx, tx, ir.TableShapePageMarchers, queryir.Ints("shape_page_id", ids))
	if err != nil {
		return nil, err
	}
	if _, err := tx.DeleteItems(ctx, ir.TableShapePageMarchers, rowIDs(members), current); err != nil {
		return nil, err
	}

	deleted, err := tx.DeleteItems(ctx, ir.TableShapePages, ids, current)
	if err != nil {
		return nil, err
	}
	shapePages := project(deleted, ir.ShapePageFromRow)

	shapeIDs := make([]int64, 0, len(shapePages))
	seen := make(map[int64]bool)
	for _, sp := range shapePages {
		if !seen[sp.ShapeID] {
			seen[sp.ShapeID] = true
			shapeIDs = append(shapeIDs, sp.ShapeID)
		}
	}
	remaining, err := selectWhere(ctx, tx, ir.TableShapePages, queryir.Ints("shape_id", shapeIDs))
	if err != nil {
		return nil, err
	}
	for _, row := range remaining {
		delete(seen, ir.ShapePageFromRow(row).ShapeID)
	}
	var orphans []int64
	for _, id := range shapeIDs {
		if seen[id] {
			orphans = append(orphans, id)
		}
	}
	if _, err := tx.DeleteItems(ctx, ir.TableShapes, orphans, current); err != nil {
		return nil, err
	}
	if len(orphans) > 0 {
		tx.Logger().Debug("orphan shapes deleted", "count", len(orphans))
	}
	return shapePages, nil
}

func shapePagesOf(members []ir.Row) []int64 {
	var ids []int64
	seen := make(map[int64]bool)
	for _, row := range members {
		id := ir.ShapePageMarcherFromRow(row).ShapePageID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// redistribute spreads each shape page's members evenly along its path,
// in position order, and moves their placements on the shape page's page.
//
// The placement batch is folded into the group the action opened, so it
// must be the action's last write.
func redistribute(ctx context.Context, tx *engine.Tx, shapePageIDs []int64) error {
	if len(shapePageIDs) == 0 {
		return nil
	}
	rows, err := selectWhere(ctx, tx, ir.TableShapePages, queryir.IDs(shapePageIDs))
	if err != nil {
		return err
	}

	var mods []ModifiedMarcherPage
	for _, row := range rows {
		sp := ir.ShapePageFromRow(row)
		path, err := geom.Parse(sp.SvgPath)
		if err != nil {
			return engine.BrokenInvariant(ir.TableShapePages, err)
		}
		order, _, err := loadOrder(ctx, tx, sp.ID)
		if err != nil {
			return err
		}
		keys, err := order.Keys()
		if err != nil {
			return engine.BrokenInvariant(ir.TableShapePageMarchers, err)
		}
		members, err := membersByID(ctx, tx, keys)
		if err != nil {
			return err
		}

		points := geom.Distribute(path, len(keys))
		for i, key := range keys {
			mods = append(mods, ModifiedMarcherPage{
				MarcherID: members[key],
				PageID:    sp.PageID,
				X:         ir.Some(points[i].X),
				Y:         ir.Some(points[i].Y),
			})
		}
	}
	if len(mods) == 0 {
		return nil
	}

	return foldIntoParent(ctx, tx, func() error {
		_, err := updateMarcherPages(ctx, tx, mods)
		return err
	})
}

// foldIntoParent runs write in a group of its own and then merges that
// group into the one the action opened.
func foldIntoParent(ctx context.Context, tx *engine.Tx, write func() error) error {
	parent, err := tx.CurrentGroup(ctx)
	if err != nil {
		return err
	}
	size, err := tx.GroupSize(ctx, parent)
	if err != nil {
		return err
	}
	if size == 0 {
		return write()
	}

	group, err := tx.AdvanceGroup(ctx)
	if err != nil {
		return err
	}
	if err := write(); err != nil {
		return err
	}
	_, err = tx.MergeIntoPrevious(ctx, group)
	return err
}

func membersByID(ctx context.Context, r rowReader, ids []int64) (map[int64]int64, error) {
	rows, err := selectWhere(ctx, r, ir.TableShapePageMarchers, queryir.IDs(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int64, len(rows))
	for _, row := range rows {
		spm := ir.ShapePageMarcherFromRow(row)
		out[spm.ID] = spm.MarcherID
	}
	return out, nil
}
