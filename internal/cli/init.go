package cli

import (
	"github.com/spf13/cobra"
)

// InitOutput is the init command's payload.
type InitOutput struct {
	Path        string `json:"path"`
	FirstPageID int64  `json:"first_page_id"`
	GroupLimit  int64  `json:"group_limit"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a drill database",
		Long: `Create a drill database with its first page, or upgrade an
existing one in place. Running init twice is harmless.

Examples:
  drillstore init --db show.db
  drillstore init --config drillstore.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocument(cmd, rootOpts, func(doc *document, out *OutputFormatter) error {
				pages := doc.service.GetPagesInOrder(cmd.Context())
				if err := report(out, pages); err != nil {
					return err
				}
				stats, err := doc.engine.History(cmd.Context())
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read history", err)
				}
				payload := InitOutput{Path: doc.store.Path(), GroupLimit: stats.GroupLimit}
				if len(pages.Data) > 0 {
					payload.FirstPageID = pages.Data[0].ID
				}
				doc.logger.Info("database ready", "path", payload.Path)
				return out.Emit(payload, []string{"initialized " + payload.Path})
			})
		},
	}
}
