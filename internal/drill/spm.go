package drill

import (
	"context"

	"github.com/roach88/drillstore/internal/engine"
	"github.com/roach88/drillstore/internal/ir"
	"github.com/roach88/drillstore/internal/ordering"
	"github.com/roach88/drillstore/internal/queryir"
)

const columnPositionOrder = "position_order"

// positionBase is the first position on every shape page.
const positionBase int64 = 0

// NewShapePageMarcherArgs assigns a marcher to a shape page. A nil
// PositionOrder appends the marcher after the current last slot.
type NewShapePageMarcherArgs struct {
	ShapePageID   int64   `json:"shape_page_id" yaml:"shape_page_id"`
	MarcherID     int64   `json:"marcher_id" yaml:"marcher_id"`
	PositionOrder *int64  `json:"position_order,omitempty" yaml:"position_order"`
	Notes         *string `json:"notes,omitempty" yaml:"notes"`
}

// ModifiedShapePageMarcher is a partial membership update.
type ModifiedShapePageMarcher struct {
	ID            int64
	PositionOrder ir.Opt[int64]
	Notes         ir.Opt[*string]
}

// ShapePageMarcherFilter narrows GetShapePageMarchers.
type ShapePageMarcherFilter struct {
	ShapePageID *int64
	MarcherID   *int64
}

// CreateShapePageMarchers assigns marchers to shape pages.
func (s *Service) CreateShapePageMarchers(ctx context.Context, args []NewShapePageMarcherArgs) engine.Result[[]ir.ShapePageMarcher] {
	return engine.Run(ctx, s.engine, "create-shape-page-marchers", func(ctx context.Context, tx *engine.Tx) ([]ir.ShapePageMarcher, error) {
		return createMembers(ctx, tx, args)
	})
}

// UpdateShapePageMarchers moves members or edits their notes.
func (s *Service) UpdateShapePageMarchers(ctx context.Context, mods []ModifiedShapePageMarcher) engine.Result[[]ir.ShapePageMarcher] {
	return engine.Run(ctx, s.engine, "update-shape-page-marchers", func(ctx context.Context, tx *engine.Tx) ([]ir.ShapePageMarcher, error) {
		return updateMembers(ctx, tx, mods)
	})
}

// DeleteShapePageMarchers removes members and closes the gaps they leave.
func (s *Service) DeleteShapePageMarchers(ctx context.Context, ids []int64) engine.Result[[]ir.ShapePageMarcher] {
	return engine.Run(ctx, s.engine, "delete-shape-page-marchers", func(ctx context.Context, tx *engine.Tx) ([]ir.ShapePageMarcher, error) {
		return deleteMembers(ctx, tx, ids)
	})
}

// SwapPositionOrder exchanges two members' positions on one shape page.
// With useCurrentGroup the swap joins the previous action's undo step.
func (s *Service) SwapPositionOrder(ctx context.Context, a, b int64, useCurrentGroup bool) engine.Result[[]ir.ShapePageMarcher] {
	return engine.Run(ctx, s.engine, "swap-position-order", func(ctx context.Context, tx *engine.Tx) ([]ir.ShapePageMarcher, error) {
		swapped, err := swapMembers(ctx, tx, a, b)
		if err != nil {
			return nil, err
		}
		if useCurrentGroup {
			group, err := tx.CurrentGroup(ctx)
			if err != nil {
				return nil, err
			}
			if _, err := tx.MergeIntoPrevious(ctx, group); err != nil {
				return nil, err
			}
		}
		return swapped, nil
	})
}

// GetShapePageMarchers returns memberships matching the filter, grouped by
// shape page and in position order.
func (s *Service) GetShapePageMarchers(ctx context.Context, filter ShapePageMarcherFilter) engine.Result[[]ir.ShapePageMarcher] {
	var preds []queryir.Predicate
	if filter.ShapePageID != nil {
		preds = append(preds, eqInt("shape_page_id", *filter.ShapePageID))
	}
	if filter.MarcherID != nil {
		preds = append(preds, eqInt("marcher_id", *filter.MarcherID))
	}
	q := queryir.Select{
		From:    ir.TableShapePageMarchers,
		OrderBy: []queryir.Order{{Field: "shape_page_id"}, {Field: columnPositionOrder}, {Field: ir.ColumnID}},
	}
	if len(preds) > 0 {
		q.Filter = queryir.And{Predicates: preds}
	}
	rows, err := s.engine.Store().Select(ctx, q)
	if err != nil {
		return engine.Fail[[]ir.ShapePageMarcher](err)
	}
	return engine.Ok(project(rows, ir.ShapePageMarcherFromRow))
}

func createMembers(ctx context.Context, tx *engine.Tx, args []NewShapePageMarcherArgs) ([]ir.ShapePageMarcher, error) {
	if len(args) == 0 {
		return []ir.ShapePageMarcher{}, nil
	}
	shapePageIDs := make([]int64, len(args))
	marcherIDs := make([]int64, len(args))
	for i, a := range args {
		shapePageIDs[i] = a.ShapePageID
		marcherIDs[i] = a.MarcherID
		if a.PositionOrder != nil && *a.PositionOrder < positionBase {
			return nil, engine.InvalidArgument("position order must not be negative, got %d", *a.PositionOrder)
		}
	}
	if err := requireRows(ctx, tx, ir.TableShapePages, shapePageIDs); err != nil {
		return nil, err
	}
	if err := requireRows(ctx, tx, ir.TableMarchers, marcherIDs); err != nil {
		return nil, err
	}

	var ids []int64
	touched := make(map[int64]bool)
	var touchedOrder []int64
	for _, a := range args {
		sp, err := readShapePage(ctx, tx, a.ShapePageID)
		if err != nil {
			return nil, err
		}
		if err := checkFreeOnPage(ctx, tx, sp.PageID, a.MarcherID); err != nil {
			return nil, err
		}

		order, _, err := loadOrder(ctx, tx, sp.ID)
		if err != nil {
			return nil, err
		}
		pos := positionBase + int64(order.Len())
		if a.PositionOrder != nil {
			pos = *a.PositionOrder
		}
		// The new row does not exist yet, so it is placed under a key no
		// member can hold. Only the shifts are written here.
		shifts, err := order.Place(-1, pos)
		if err != nil {
			return nil, err
		}
		if err := applyOrderChanges(ctx, tx, shifts); err != nil {
			return nil, err
		}

		created, err := tx.CreateItems(ctx, ir.TableShapePageMarchers, []ir.Row{{
			"shape_page_id":     ir.IRInt(sp.ID),
			"marcher_id":        ir.IRInt(a.MarcherID),
			columnPositionOrder: ir.IRInt(pos),
			"notes":             ir.NullableString(a.Notes),
		}}, current)
		if err != nil {
			return nil, err
		}
		ids = append(ids, rowIDs(created)...)
		if !touched[sp.ID] {
			touched[sp.ID] = true
			touchedOrder = append(touchedOrder, sp.ID)
		}
	}

	if err := flattenShapePages(ctx, tx, touchedOrder); err != nil {
		return nil, err
	}
	return readMembers(ctx, tx, ids)
}

func updateMembers(ctx context.Context, tx *engine.Tx, mods []ModifiedShapePageMarcher) ([]ir.ShapePageMarcher, error) {
	if len(mods) == 0 {
		return []ir.ShapePageMarcher{}, nil
	}
	ids := make([]int64, len(mods))
	for i, m := range mods {
		ids[i] = m.ID
		if p, ok := m.PositionOrder.Get(); ok && p < positionBase {
			return nil, engine.InvalidArgument("position order must not be negative, got %d", p)
		}
	}
	if err := requireRows(ctx, tx, ir.TableShapePageMarchers, ids); err != nil {
		return nil, err
	}

	var touched []int64
	seen := make(map[int64]bool)
	for _, m := range mods {
		member, err := readMember(ctx, tx, m.ID)
		if err != nil {
			return nil, err
		}
		if pos, ok := m.PositionOrder.Get(); ok {
			order, _, err := loadOrder(ctx, tx, member.ShapePageID)
			if err != nil {
				return nil, err
			}
			changes, err := order.MoveTo(m.ID, pos)
			if err != nil {
				return nil, err
			}
			if err := applyOrderChanges(ctx, tx, changes); err != nil {
				return nil, err
			}
			if !seen[member.ShapePageID] {
				seen[member.ShapePageID] = true
				touched = append(touched, member.ShapePageID)
			}
		}
		if m.Notes.IsSet() {
			p := newPatch(m.ID).nullableStr("notes", m.Notes)
			if _, err := tx.UpdateItems(ctx, ir.TableShapePageMarchers, []ir.Row{ir.Row(p)}, current); err != nil {
				return nil, err
			}
		}
	}

	if err := flattenShapePages(ctx, tx, touched); err != nil {
		return nil, err
	}
	return readMembers(ctx, tx, ids)
}

func deleteMembers(ctx context.Context, tx *engine.Tx, ids []int64) ([]ir.ShapePageMarcher, error) {
	if len(ids) == 0 {
		return []ir.ShapePageMarcher{}, nil
	}
	if err := requireRows(ctx, tx, ir.TableShapePageMarchers, ids); err != nil {
		return nil, err
	}
	deleted, err := tx.DeleteItems(ctx, ir.TableShapePageMarchers, ids, current)
	if err != nil {
		return nil, err
	}
	if err := flattenShapePages(ctx, tx, shapePagesOf(deleted)); err != nil {
		return nil, err
	}
	return project(deleted, ir.ShapePageMarcherFromRow), nil
}

func swapMembers(ctx context.Context, tx *engine.Tx, a, b int64) ([]ir.ShapePageMarcher, error) {
	if err := requireRows(ctx, tx, ir.TableShapePageMarchers, []int64{a, b}); err != nil {
		return nil, err
	}
	ma, err := readMember(ctx, tx, a)
	if err != nil {
		return nil, err
	}
	mb, err := readMember(ctx, tx, b)
	if err != nil {
		return nil, err
	}
	if ma.ShapePageID != mb.ShapePageID {
		return nil, engine.InvalidArgument("cannot swap members of different shape pages (%d, %d)", ma.ShapePageID, mb.ShapePageID)
	}

	order, _, err := loadOrder(ctx, tx, ma.ShapePageID)
	if err != nil {
		return nil, err
	}
	changes, err := order.Swap(a, b)
	if err != nil {
		return nil, err
	}
	if err := applyOrderChanges(ctx, tx, changes); err != nil {
		return nil, err
	}
	return readMembers(ctx, tx, []int64{a, b})
}

// loadOrder reads a shape page's memberships into a compact order keyed
// by membership id.
func loadOrder(ctx context.Context, r rowReader, shapePageID int64) (*ordering.CompactOrder[int64], []ir.Row, error) {
	rows, err := selectWhere(ctx, r, ir.TableShapePageMarchers, eqInt("shape_page_id", shapePageID))
	if err != nil {
		return nil, nil, err
	}
	order := ordering.NewCompactOrder[int64](positionBase)
	for _, row := range rows {
		id, _ := row.ID()
		order.Add(id, row.IntPtr(columnPositionOrder))
	}
	return order, rows, nil
}

// applyOrderChanges writes position changes in the order given. Each
// write must leave positions unique, which the ordering package
// guarantees for the sequences it emits.
func applyOrderChanges(ctx context.Context, tx *engine.Tx, changes []ordering.Change[int64, int64]) error {
	if len(changes) == 0 {
		return nil
	}
	rows := make([]ir.Row, len(changes))
	for i, c := range changes {
		rows[i] = ir.Row{ir.ColumnID: ir.IRInt(c.Key), columnPositionOrder: ir.NullableInt(c.Value)}
	}
	_, err := tx.UpdateItems(ctx, ir.TableShapePageMarchers, rows, current)
	return err
}

// flattenShapePages renumbers each shape page's members densely from
// positionBase.
func flattenShapePages(ctx context.Context, tx *engine.Tx, shapePageIDs []int64) error {
	for _, id := range shapePageIDs {
		order, _, err := loadOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := applyOrderChanges(ctx, tx, order.Flatten()); err != nil {
			return err
		}
	}
	return nil
}

// checkFreeOnPage rejects a marcher that already belongs to a shape on the
// page.
func checkFreeOnPage(ctx context.Context, r rowReader, pageID, marcherID int64) error {
	shapePages, err := selectWhere(ctx, r, ir.TableShapePages, eqInt("page_id", pageID))
	if err != nil {
		return err
	}
	if len(shapePages) == 0 {
		return nil
	}
	taken, err := selectWhere(ctx, r, ir.TableShapePageMarchers, queryir.And{Predicates: []queryir.Predicate{
		queryir.Ints("shape_page_id", rowIDs(shapePages)),
		eqInt("marcher_id", marcherID),
	}})
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		spm := ir.ShapePageMarcherFromRow(taken[0])
		return engine.ConstraintViolation(ir.TableShapePageMarchers,
			"marcher %d is already in shape page %d on page %d", marcherID, spm.ShapePageID, pageID)
	}
	return nil
}

func requireRows(ctx context.Context, tx *engine.Tx, table string, ids []int64) error {
	missing, err := tx.MissingIDs(ctx, table, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return engine.NotFoundError(table, missing)
	}
	return nil
}

func readMember(ctx context.Context, tx *engine.Tx, id int64) (ir.ShapePageMarcher, error) {
	row, ok, err := tx.GetRow(ctx, ir.TableShapePageMarchers, id)
	if err != nil {
		return ir.ShapePageMarcher{}, err
	}
	if !ok {
		return ir.ShapePageMarcher{}, engine.NotFoundError(ir.TableShapePageMarchers, []int64{id})
	}
	return ir.ShapePageMarcherFromRow(row), nil
}

func readMembers(ctx context.Context, r rowReader, ids []int64) ([]ir.ShapePageMarcher, error) {
	rows, err := selectWhere(ctx, r, ir.TableShapePageMarchers, queryir.IDs(ids))
	if err != nil {
		return nil, err
	}
	return project(rows, ir.ShapePageMarcherFromRow), nil
}

func readShapePage(ctx context.Context, tx *engine.Tx, id int64) (ir.ShapePage, error) {
	row, ok, err := tx.GetRow(ctx, ir.TableShapePages, id)
	if err != nil {
		return ir.ShapePage{}, err
	}
	if !ok {
		return ir.ShapePage{}, engine.NotFoundError(ir.TableShapePages, []int64{id})
	}
	return ir.ShapePageFromRow(row), nil
}
