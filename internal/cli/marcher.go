package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/drillstore/internal/drill"
	"github.com/roach88/drillstore/internal/ir"
)

// MarcherAddOptions holds flags for marcher add.
type MarcherAddOptions struct {
	*RootOptions
	Name    string
	Section string
	Prefix  string
	Order   int64
	Notes   string
}

// NewMarcherCommand creates the marcher command group.
func NewMarcherCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "marcher",
		Short: "Add, list and delete marchers",
	}
	cmd.AddCommand(newMarcherAddCommand(rootOpts))
	cmd.AddCommand(newMarcherListCommand(rootOpts))
	cmd.AddCommand(newMarcherDeleteCommand(rootOpts))
	return cmd
}

func newMarcherAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MarcherAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a marcher and place it on every page",
		Long: `Add a marcher. The marcher is placed at the default position on
every existing page.

Example:
  drillstore marcher add --section Trumpet --prefix T --order 12`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := drill.NewMarcherArgs{Section: opts.Section, DrillPrefix: opts.Prefix, DrillOrder: opts.Order}
			if cmd.Flags().Changed("name") {
				req.Name = &opts.Name
			}
			if cmd.Flags().Changed("notes") {
				req.Notes = &opts.Notes
			}
			return withDocument(cmd, rootOpts, func(doc *document, out *OutputFormatter) error {
				res := doc.service.CreateMarchers(cmd.Context(), []drill.NewMarcherArgs{req})
				if err := report(out, res); err != nil {
					return err
				}
				return out.Emit(res.Data, marcherLines(res.Data))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "marcher name")
	cmd.Flags().StringVar(&opts.Section, "section", "", "section, e.g. Trumpet")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "drill number prefix, e.g. T")
	cmd.Flags().Int64Var(&opts.Order, "order", 0, "drill number within the prefix")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "marcher notes")
	_ = cmd.MarkFlagRequired("section")
	_ = cmd.MarkFlagRequired("prefix")
	return cmd
}

func newMarcherListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List marchers",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocument(cmd, rootOpts, func(doc *document, out *OutputFormatter) error {
				res := doc.service.GetMarchers(cmd.Context())
				if err := report(out, res); err != nil {
					return err
				}
				return out.Emit(res.Data, marcherLines(res.Data))
			})
		},
	}
}

func newMarcherDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <marcher-id>...",
		Short:         "Delete marchers with their placements",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withDocument(cmd, rootOpts, func(doc *document, out *OutputFormatter) error {
				res := doc.service.DeleteMarchers(cmd.Context(), ids)
				if err := report(out, res); err != nil {
					return err
				}
				return out.Emit(res.Data, []string{fmt.Sprintf("deleted %d marcher(s)", len(res.Data))})
			})
		},
	}
}

func marcherLines(marchers []ir.Marcher) []string {
	lines := make([]string, len(marchers))
	for i, m := range marchers {
		name := ""
		if m.Name != nil {
			name = " " + *m.Name
		}
		lines[i] = fmt.Sprintf("%-5s id=%d %s%s", m.DrillNumber(), m.ID, m.Section, name)
	}
	return lines
}
