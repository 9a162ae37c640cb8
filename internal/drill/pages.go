package drill

import (
	"context"

	"github.com/roach88/drillstore/internal/engine"
	"github.com/roach88/drillstore/internal/ir"
	"github.com/roach88/drillstore/internal/ordering"
	"github.com/roach88/drillstore/internal/queryir"
)

const columnNextPageID = "next_page_id"

// NewPageArgs describes one page to create.
//
// PreviousPageID names the page the new one follows. When it is nil the
// page follows the first page. Several new pages naming the same
// predecessor are threaded in argument order.
type NewPageArgs struct {
	Counts         int64   `json:"counts" yaml:"counts"`
	IsSubset       bool    `json:"is_subset" yaml:"is_subset"`
	Notes          *string `json:"notes,omitempty" yaml:"notes"`
	PreviousPageID *int64  `json:"previous_page_id,omitempty" yaml:"previous_page_id"`
}

// ModifiedPage is a partial page update. The first page accepts notes only.
type ModifiedPage struct {
	ID       int64
	Counts   ir.Opt[int64]
	IsSubset ir.Opt[bool]
	Notes    ir.Opt[*string]
}

// CreatePages creates pages, threads them into the timeline and gives
// every marcher a placement on each new page.
func (s *Service) CreatePages(ctx context.Context, args []NewPageArgs) engine.Result[[]ir.Page] {
	return engine.Run(ctx, s.engine, "create-pages", func(ctx context.Context, tx *engine.Tx) ([]ir.Page, error) {
		return s.createPages(ctx, tx, args)
	})
}

// UpdatePages applies partial page updates.
func (s *Service) UpdatePages(ctx context.Context, mods []ModifiedPage) engine.Result[[]ir.Page] {
	return engine.Run(ctx, s.engine, "update-pages", func(ctx context.Context, tx *engine.Tx) ([]ir.Page, error) {
		return s.updatePages(ctx, tx, mods)
	})
}

// DeletePages deletes pages with everything placed on them and closes
// the timeline around them. The first page cannot be deleted.
func (s *Service) DeletePages(ctx context.Context, ids []int64) engine.Result[[]ir.Page] {
	return engine.Run(ctx, s.engine, "delete-pages", func(ctx context.Context, tx *engine.Tx) ([]ir.Page, error) {
		return s.deletePages(ctx, tx, ids)
	})
}

// GetPages returns every page by id.
func (s *Service) GetPages(ctx context.Context) engine.Result[[]ir.Page] {
	rows, err := selectWhere(ctx, s.engine.Store(), ir.TablePages, nil)
	if err != nil {
		return engine.Fail[[]ir.Page](err)
	}
	return engine.Ok(project(rows, ir.PageFromRow))
}

// GetPagesInOrder returns the pages in timeline order.
func (s *Service) GetPagesInOrder(ctx context.Context) engine.Result[[]ir.Page] {
	pages, err := pagesInOrder(ctx, s.engine.Store())
	if err != nil {
		return engine.Fail[[]ir.Page](err)
	}
	return engine.Ok(pages)
}

func (s *Service) createPages(ctx context.Context, tx *engine.Tx, args []NewPageArgs) ([]ir.Page, error) {
	if len(args) == 0 {
		return []ir.Page{}, nil
	}

	list, _, err := loadPageList(ctx, tx)
	if err != nil {
		return nil, err
	}

	preds := make([]int64, len(args))
	var missing []int64
	for i, a := range args {
		preds[i] = ir.FirstPageID
		if a.PreviousPageID != nil {
			preds[i] = *a.PreviousPageID
		}
		if !list.Contains(preds[i]) {
			missing = append(missing, preds[i])
		}
		if a.Counts < 0 {
			return nil, engine.InvalidArgument("page counts must not be negative, got %d", a.Counts)
		}
	}
	if len(missing) > 0 {
		return nil, engine.NotFoundError(ir.TablePages, missing)
	}

	rows := make([]ir.Row, len(args))
	for i, a := range args {
		rows[i] = ir.Row{
			"counts":    ir.IRInt(a.Counts),
			"is_subset": ir.Bool(a.IsSubset),
			"notes":     ir.NullableString(a.Notes),
		}
	}
	created, err := tx.CreateItems(ctx, ir.TablePages, rows, current)
	if err != nil {
		return nil, err
	}
	ids := rowIDs(created)

	// Pages naming the same predecessor chain behind each other.
	lastAfter := make(map[int64]int64)
	for i, id := range ids {
		pred := preds[i]
		if last, ok := lastAfter[pred]; ok {
			pred = last
		}
		lastAfter[preds[i]] = id

		changes, err := list.InsertAfter(pred, id)
		if err != nil {
			return nil, err
		}
		if err := applyPageChanges(ctx, tx, changes); err != nil {
			return nil, err
		}
		if err := s.placeMarchersOnPage(ctx, tx, id, &pred); err != nil {
			return nil, err
		}
	}

	tx.Logger().Debug("pages created", "count", len(ids))
	return readPages(ctx, tx, ids)
}

func (s *Service) updatePages(ctx context.Context, tx *engine.Tx, mods []ModifiedPage) ([]ir.Page, error) {
	rows := make([]ir.Row, len(mods))
	for i, m := range mods {
		if m.ID == ir.FirstPageID && (m.Counts.IsSet() || m.IsSubset.IsSet()) {
			return nil, engine.InvalidArgument("the first page only accepts note changes")
		}
		if c, ok := m.Counts.Get(); ok && c < 0 {
			return nil, engine.InvalidArgument("page counts must not be negative, got %d", c)
		}
		rows[i] = ir.Row(newPatch(m.ID).
			integer("counts", m.Counts).
			boolean("is_subset", m.IsSubset).
			nullableStr("notes", m.Notes))
	}

	updated, err := tx.UpdateItems(ctx, ir.TablePages, rows, current)
	if err != nil {
		return nil, err
	}
	return project(updated, ir.PageFromRow), nil
}

func (s *Service) deletePages(ctx context.Context, tx *engine.Tx, ids []int64) ([]ir.Page, error) {
	if len(ids) == 0 {
		return []ir.Page{}, nil
	}
	for _, id := range ids {
		if id == ir.FirstPageID {
			return nil, engine.InvalidArgument("the first page cannot be deleted")
		}
	}
	missing, err := tx.MissingIDs(ctx, ir.TablePages, ids)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, engine.NotFoundError(ir.TablePages, missing)
	}

	list, _, err := loadPageList(ctx, tx)
	if err != nil {
		return nil, err
	}
	changes, err := list.Remove(ids...)
	if err != nil {
		return nil, err
	}
	if err := applyPageChanges(ctx, tx, changes); err != nil {
		return nil, err
	}

	if err := s.clearPages(ctx, tx, ids); err != nil {
		return nil, err
	}

	deleted, err := tx.DeleteItems(ctx, ir.TablePages, ids, current)
	if err != nil {
		return nil, err
	}
	tx.Logger().Debug("pages deleted", "count", len(deleted))
	return project(deleted, ir.PageFromRow), nil
}

// loadPageList reads every page into a linked list and verifies it.
func loadPageList(ctx context.Context, r rowReader) (*ordering.LinkedList[int64], []ir.Row, error) {
	rows, err := selectWhere(ctx, r, ir.TablePages, nil)
	if err != nil {
		return nil, nil, err
	}
	list := ordering.NewLinkedList[int64]()
	for _, row := range rows {
		id, _ := row.ID()
		list.Add(id, row.IntPtr(columnNextPageID))
	}
	if _, err := list.Keys(); err != nil {
		return nil, nil, engine.BrokenInvariant(ir.TablePages, err)
	}
	return list, rows, nil
}

func pagesInOrder(ctx context.Context, r rowReader) ([]ir.Page, error) {
	list, rows, err := loadPageList(ctx, r)
	if err != nil {
		return nil, err
	}
	order, err := list.Keys()
	if err != nil {
		return nil, engine.BrokenInvariant(ir.TablePages, err)
	}

	byID := make(map[int64]ir.Row, len(rows))
	for _, row := range rows {
		id, _ := row.ID()
		byID[id] = row
	}
	pages := make([]ir.Page, len(order))
	for i, id := range order {
		pages[i] = ir.PageFromRow(byID[id])
	}
	return pages, nil
}

func applyPageChanges(ctx context.Context, tx *engine.Tx, changes []ordering.Change[int64, int64]) error {
	if len(changes) == 0 {
		return nil
	}
	rows := make([]ir.Row, len(changes))
	for i, c := range changes {
		rows[i] = ir.Row{ir.ColumnID: ir.IRInt(c.Key), columnNextPageID: ir.NullableInt(c.Value)}
	}
	_, err := tx.UpdateItems(ctx, ir.TablePages, rows, current)
	return err
}

func readPages(ctx context.Context, r rowReader, ids []int64) ([]ir.Page, error) {
	rows, err := selectWhere(ctx, r, ir.TablePages, queryir.IDs(ids))
	if err != nil {
		return nil, err
	}
	return project(rows, ir.PageFromRow), nil
}
