package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/drillstore/internal/drill"
	"github.com/roach88/drillstore/internal/ir"
)

// NewShapeCommand creates the shape command group.
func NewShapeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shape",
		Short: "Place shapes on pages",
	}
	cmd.AddCommand(newShapeAddCommand(rootOpts))
	cmd.AddCommand(newShapeListCommand(rootOpts))
	return cmd
}

func newShapeAddCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		page     int64
		path     string
		name     string
		shapeID  int64
		marchers []int64
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Draw a shape on a page and spread marchers along it",
		Long: `Draw a shape on a page. The listed marchers join the shape in
order and are spread evenly along its path.

Example:
  drillstore shape add --page 2 --path "M 0 0 L 80 0" --marchers 1,2,3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := drill.NewShapePageArgs{PageID: page, SvgPath: path, ShapeName: name, MarcherIDs: marchers}
			if cmd.Flags().Changed("shape") {
				req.ShapeID = &shapeID
			}
			return withDocument(cmd, rootOpts, func(doc *document, out *OutputFormatter) error {
				res := doc.service.CreateShapePages(cmd.Context(), []drill.NewShapePageArgs{req})
				if err := report(out, res); err != nil {
					return err
				}
				return out.Emit(res.Data, shapePageLines(res.Data))
			})
		},
	}

	cmd.Flags().Int64Var(&page, "page", 0, "page to draw on")
	cmd.Flags().StringVar(&path, "path", "", "SVG path of the shape")
	cmd.Flags().StringVar(&name, "name", "", "name of a new shape")
	cmd.Flags().Int64Var(&shapeID, "shape", 0, "existing shape to continue on this page")
	cmd.Flags().Int64SliceVar(&marchers, "marchers", nil, "marcher ids in shape order")
	_ = cmd.MarkFlagRequired("page")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func newShapeListCommand(rootOpts *RootOptions) *cobra.Command {
	var page int64

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List shapes drawn on pages",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *int64
			if cmd.Flags().Changed("page") {
				filter = &page
			}
			return withDocument(cmd, rootOpts, func(doc *document, out *OutputFormatter) error {
				res := doc.service.GetShapePages(cmd.Context(), filter)
				if err := report(out, res); err != nil {
					return err
				}
				return out.Emit(res.Data, shapePageLines(res.Data))
			})
		},
	}

	cmd.Flags().Int64Var(&page, "page", 0, "only shapes on this page")
	return cmd
}

func shapePageLines(sps []ir.ShapePage) []string {
	lines := make([]string, len(sps))
	for i, sp := range sps {
		lines[i] = fmt.Sprintf("shape page %d shape=%d page=%d path=%q", sp.ID, sp.ShapeID, sp.PageID, sp.SvgPath)
	}
	return lines
}
