package drill

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/drillstore/internal/engine"
	"github.com/roach88/drillstore/internal/ir"
	"github.com/roach88/drillstore/internal/queryir"
)

// MarcherPageFilter narrows GetMarcherPages. Nil fields match everything.
type MarcherPageFilter struct {
	MarcherID *int64
	PageID    *int64
}

func (f MarcherPageFilter) predicate() queryir.Predicate {
	var preds []queryir.Predicate
	if f.MarcherID != nil {
		preds = append(preds, eqInt("marcher_id", *f.MarcherID))
	}
	if f.PageID != nil {
		preds = append(preds, eqInt("page_id", *f.PageID))
	}
	if len(preds) == 0 {
		return nil
	}
	return queryir.And{Predicates: preds}
}

// ModifiedMarcherPage is a partial placement update keyed by marcher and page.
type ModifiedMarcherPage struct {
	MarcherID int64
	PageID    int64
	X         ir.Opt[float64]
	Y         ir.Opt[float64]
	Notes     ir.Opt[*string]
}

// GetMarcherPages returns placements matching the filter.
func (s *Service) GetMarcherPages(ctx context.Context, filter MarcherPageFilter) engine.Result[[]ir.MarcherPage] {
	rows, err := selectWhere(ctx, s.engine.Store(), ir.TableMarcherPages, filter.predicate())
	if err != nil {
		return engine.Fail[[]ir.MarcherPage](err)
	}
	return engine.Ok(project(rows, ir.MarcherPageFromRow))
}

// UpdateMarcherPages moves marchers on pages.
func (s *Service) UpdateMarcherPages(ctx context.Context, mods []ModifiedMarcherPage) engine.Result[[]ir.MarcherPage] {
	return engine.Run(ctx, s.engine, "update-marcher-pages", func(ctx context.Context, tx *engine.Tx) ([]ir.MarcherPage, error) {
		return updateMarcherPages(ctx, tx, mods)
	})
}

func updateMarcherPages(ctx context.Context, tx *engine.Tx, mods []ModifiedMarcherPage) ([]ir.MarcherPage, error) {
	if len(mods) == 0 {
		return []ir.MarcherPage{}, nil
	}
	index, err := marcherPageIndex(ctx, tx, mods)
	if err != nil {
		return nil, err
	}

	rows := make([]ir.Row, len(mods))
	var missing []string
	for i, m := range mods {
		id, ok := index[marcherPageKey{m.MarcherID, m.PageID}]
		if !ok {
			missing = append(missing, fmt.Sprintf("(marcher %d, page %d)", m.MarcherID, m.PageID))
			continue
		}
		rows[i] = ir.Row(newPatch(id).
			float("x", m.X).
			float("y", m.Y).
			nullableStr("notes", m.Notes))
	}
	if len(missing) > 0 {
		return nil, &engine.Error{
			Code:    engine.ErrCodeNotFound,
			Message: "No marcher pages for " + strings.Join(missing, ", "),
			Table:   ir.TableMarcherPages,
		}
	}

	updated, err := tx.UpdateItems(ctx, ir.TableMarcherPages, rows, current)
	if err != nil {
		return nil, err
	}
	return project(updated, ir.MarcherPageFromRow), nil
}

type marcherPageKey struct {
	marcherID int64
	pageID    int64
}

// marcherPageIndex maps (marcher, page) to marcher-page id for the pages
// the updates touch.
func marcherPageIndex(ctx context.Context, r rowReader, mods []ModifiedMarcherPage) (map[marcherPageKey]int64, error) {
	pageIDs := make([]int64, 0, len(mods))
	seen := make(map[int64]bool)
	for _, m := range mods {
		if !seen[m.PageID] {
			seen[m.PageID] = true
			pageIDs = append(pageIDs, m.PageID)
		}
	}

	rows, err := selectWhere(ctx, r, ir.TableMarcherPages, queryir.Ints("page_id", pageIDs))
	if err != nil {
		return nil, err
	}
	index := make(map[marcherPageKey]int64, len(rows))
	for _, row := range rows {
		mp := ir.MarcherPageFromRow(row)
		index[marcherPageKey{mp.MarcherID, mp.PageID}] = mp.ID
	}
	return index, nil
}
