package ir

import "strconv"

// Document table names.
const (
	TablePages             = "pages"
	TableMarchers          = "marchers"
	TableMarcherPages      = "marcher_pages"
	TableShapes            = "shapes"
	TableShapePages        = "shape_pages"
	TableShapePageMarchers = "shape_page_marchers"
)

// DocumentTables lists every tracked table in dependency order: parents
// before children. Snapshots and dumps iterate in this order.
var DocumentTables = []string{
	TablePages,
	TableMarchers,
	TableMarcherPages,
	TableShapes,
	TableShapePages,
	TableShapePageMarchers,
}

// FirstPageID is the id of the page created with the schema.
const FirstPageID int64 = 0

// Page is one entry of the page timeline.
type Page struct {
	ID         int64   `json:"id"`
	IsSubset   bool    `json:"is_subset"`
	Notes      *string `json:"notes"`
	Counts     int64   `json:"counts"`
	NextPageID *int64  `json:"next_page_id"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

// PageFromRow projects a pages row, normalizing is_subset to bool.
func PageFromRow(r Row) Page {
	id, _ := r.ID()
	counts, _ := r.Int("counts")
	createdAt, _ := r.String("created_at")
	updatedAt, _ := r.String("updated_at")
	return Page{
		ID:         id,
		IsSubset:   r.Bool("is_subset"),
		Notes:      r.StringPtr("notes"),
		Counts:     counts,
		NextPageID: r.IntPtr("next_page_id"),
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
}

// Marcher is a performer on the field.
type Marcher struct {
	ID          int64   `json:"id"`
	Name        *string `json:"name"`
	Section     string  `json:"section"`
	DrillPrefix string  `json:"drill_prefix"`
	DrillOrder  int64   `json:"drill_order"`
	Notes       *string `json:"notes"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// DrillNumber is the marcher's printed label, e.g. "T12".
func (m Marcher) DrillNumber() string {
	return m.DrillPrefix + strconv.FormatInt(m.DrillOrder, 10)
}

// MarcherFromRow projects a marchers row.
func MarcherFromRow(r Row) Marcher {
	id, _ := r.ID()
	section, _ := r.String("section")
	prefix, _ := r.String("drill_prefix")
	order, _ := r.Int("drill_order")
	createdAt, _ := r.String("created_at")
	updatedAt, _ := r.String("updated_at")
	return Marcher{
		ID:          id,
		Name:        r.StringPtr("name"),
		Section:     section,
		DrillPrefix: prefix,
		DrillOrder:  order,
		Notes:       r.StringPtr("notes"),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// MarcherPage is a marcher's placement on one page.
type MarcherPage struct {
	ID        int64   `json:"id"`
	MarcherID int64   `json:"marcher_id"`
	PageID    int64   `json:"page_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Notes     *string `json:"notes"`
}

// MarcherPageFromRow projects a marcher_pages row.
func MarcherPageFromRow(r Row) MarcherPage {
	id, _ := r.ID()
	marcherID, _ := r.Int("marcher_id")
	pageID, _ := r.Int("page_id")
	x, _ := r.Float("x")
	y, _ := r.Float("y")
	return MarcherPage{
		ID:        id,
		MarcherID: marcherID,
		PageID:    pageID,
		X:         x,
		Y:         y,
		Notes:     r.StringPtr("notes"),
	}
}

// Shape groups shape pages that describe the same formation over time.
type Shape struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Notes *string `json:"notes"`
}

// ShapeFromRow projects a shapes row.
func ShapeFromRow(r Row) Shape {
	id, _ := r.ID()
	name, _ := r.String("name")
	return Shape{ID: id, Name: name, Notes: r.StringPtr("notes")}
}

// ShapePage is a shape's geometry on one page.
type ShapePage struct {
	ID      int64   `json:"id"`
	ShapeID int64   `json:"shape_id"`
	PageID  int64   `json:"page_id"`
	SvgPath string  `json:"svg_path"`
	Notes   *string `json:"notes"`
}

// ShapePageFromRow projects a shape_pages row.
func ShapePageFromRow(r Row) ShapePage {
	id, _ := r.ID()
	shapeID, _ := r.Int("shape_id")
	pageID, _ := r.Int("page_id")
	path, _ := r.String("svg_path")
	return ShapePage{
		ID:      id,
		ShapeID: shapeID,
		PageID:  pageID,
		SvgPath: path,
		Notes:   r.StringPtr("notes"),
	}
}

// ShapePageMarcher assigns a marcher to a slot on a shape page.
// PositionOrder is NULL only transiently, during a swap.
type ShapePageMarcher struct {
	ID            int64   `json:"id"`
	ShapePageID   int64   `json:"shape_page_id"`
	MarcherID     int64   `json:"marcher_id"`
	PositionOrder *int64  `json:"position_order"`
	Notes         *string `json:"notes"`
}

// ShapePageMarcherFromRow projects a shape_page_marchers row.
func ShapePageMarcherFromRow(r Row) ShapePageMarcher {
	id, _ := r.ID()
	spID, _ := r.Int("shape_page_id")
	marcherID, _ := r.Int("marcher_id")
	return ShapePageMarcher{
		ID:            id,
		ShapePageID:   spID,
		MarcherID:     marcherID,
		PositionOrder: r.IntPtr("position_order"),
		Notes:         r.StringPtr("notes"),
	}
}
