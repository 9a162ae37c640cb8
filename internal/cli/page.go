package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/drillstore/internal/drill"
	"github.com/roach88/drillstore/internal/ir"
)

// PageAddOptions holds flags for page add.
type PageAddOptions struct {
	*RootOptions
	Counts int64
	Subset bool
	After  int64
	Notes  string
}

// NewPageCommand creates the page command group.
func NewPageCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Add, list, update and delete pages",
	}
	cmd.AddCommand(newPageAddCommand(rootOpts))
	cmd.AddCommand(newPageListCommand(rootOpts))
	cmd.AddCommand(newPageUpdateCommand(rootOpts))
	cmd.AddCommand(newPageDeleteCommand(rootOpts))
	return cmd
}

func newPageAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PageAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a page to the timeline",
		Long: `Add a page after another page. Without --after the page follows
the first page. Every marcher is placed on the new page where it stood
on the page before.

Examples:
  drillstore page add --counts 16
  drillstore page add --counts 8 --after 2 --subset`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := drill.NewPageArgs{Counts: opts.Counts, IsSubset: opts.Subset}
			if cmd.Flags().Changed("after") {
				req.PreviousPageID = &opts.After
			}
			if cmd.Flags().Changed("notes") {
				req.Notes = &opts.Notes
			}
			return withDocument(cmd, rootOpts, func(doc *document, out *OutputFormatter) error {
				res := doc.service.CreatePages(cmd.Context(), []drill.NewPageArgs{req})
				if err := report(out, res); err != nil {
					return err
				}
				return out.Emit(res.Data, pageLines(res.Data))
			})
		},
	}

	cmd.Flags().Int64Var(&opts.Counts, "counts", 0, "length of the page in counts")
	cmd.Flags().BoolVar(&opts.Subset, "subset", false, "mark the page as a subset page")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "id of the page the new page follows")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "page notes")
	return cmd
}

func newPageListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List pages in timeline order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocument(cmd, rootOpts, func(doc *document, out *OutputFormatter) error {
				pages := doc.service.GetPagesInOrder(cmd.Context())
				if err := report(out, pages); err != nil {
					return err
				}
				names := drill.NamePages(pages.Data)

				type listedPage struct {
					ir.Page
					Name string `json:"name"`
				}
				listed := make([]listedPage, len(pages.Data))
				lines := make([]string, len(pages.Data))
				for i, p := range pages.Data {
					listed[i] = listedPage{Page: p, Name: names[i].Name}
					lines[i] = fmt.Sprintf("%-4s id=%d counts=%d%s", names[i].Name, p.ID, p.Counts, subsetMark(p))
				}
				return out.Emit(listed, lines)
			})
		},
	}
}

func newPageUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		counts int64
		subset bool
		notes  string
	)

	cmd := &cobra.Command{
		Use:           "update <page-id>",
		Short:         "Change a page's counts, subset flag or notes",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			mod := drill.ModifiedPage{ID: ids[0]}
			if cmd.Flags().Changed("counts") {
				mod.Counts = ir.Some(counts)
			}
			if cmd.Flags().Changed("subset") {
				mod.IsSubset = ir.Some(subset)
			}
			if cmd.Flags().Changed("notes") {
				mod.Notes = ir.Some(&notes)
			}
			return withDocument(cmd, rootOpts, func(doc *document, out *OutputFormatter) error {
				res := doc.service.UpdatePages(cmd.Context(), []drill.ModifiedPage{mod})
				if err := report(out, res); err != nil {
					return err
				}
				return out.Emit(res.Data, pageLines(res.Data))
			})
		},
	}

	cmd.Flags().Int64Var(&counts, "counts", 0, "length of the page in counts")
	cmd.Flags().BoolVar(&subset, "subset", false, "mark the page as a subset page")
	cmd.Flags().StringVar(&notes, "notes", "", "page notes")
	return cmd
}

func newPageDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <page-id>...",
		Short:         "Delete pages and everything placed on them",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withDocument(cmd, rootOpts, func(doc *document, out *OutputFormatter) error {
				res := doc.service.DeletePages(cmd.Context(), ids)
				if err := report(out, res); err != nil {
					return err
				}
				return out.Emit(res.Data, []string{fmt.Sprintf("deleted %d page(s)", len(res.Data))})
			})
		},
	}
}

func pageLines(pages []ir.Page) []string {
	lines := make([]string, len(pages))
	for i, p := range pages {
		next := "-"
		if p.NextPageID != nil {
			next = strconv.FormatInt(*p.NextPageID, 10)
		}
		lines[i] = fmt.Sprintf("page %d counts=%d next=%s%s", p.ID, p.Counts, next, subsetMark(p))
	}
	return lines
}

func subsetMark(p ir.Page) string {
	if p.IsSubset {
		return " subset"
	}
	return ""
}
