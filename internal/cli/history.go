package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/drillstore/internal/engine"
	"github.com/roach88/drillstore/internal/store"
)

// NewUndoCommand creates the undo command.
func NewUndoCommand(rootOpts *RootOptions) *cobra.Command {
	return newReplayCommand(rootOpts, "undo", "Revert the most recent step", (*engine.Engine).Undo)
}

// NewRedoCommand creates the redo command.
func NewRedoCommand(rootOpts *RootOptions) *cobra.Command {
	return newReplayCommand(rootOpts, "redo", "Re-apply the most recently undone step", (*engine.Engine).Redo)
}

func newReplayCommand(rootOpts *RootOptions, use, short string, step func(*engine.Engine, context.Context) engine.Result[engine.HistoryResponse]) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocument(cmd, rootOpts, func(doc *document, out *OutputFormatter) error {
				res := step(doc.engine, cmd.Context())
				if err := report(out, res); err != nil {
					return err
				}
				line := fmt.Sprintf("nothing to %s", use)
				if res.Data.Count > 0 {
					line = fmt.Sprintf("%s group %d: %d change(s) to %s", use, res.Data.Group, res.Data.Count, strings.Join(res.Data.Tables, ", "))
				}
				return out.Emit(res.Data, []string{line})
			})
		},
	}
}

// HistoryOutput is the history command's payload.
type HistoryOutput struct {
	Stats store.HistoryStats   `json:"stats"`
	Undo  []store.GroupSummary `json:"undo"`
	Redo  []store.GroupSummary `json:"redo"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show undo and redo history",
		Long: `Show the undo and redo logs, next step to apply first.

Examples:
  drillstore history
  drillstore history --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocument(cmd, rootOpts, func(doc *document, out *OutputFormatter) error {
				ctx := cmd.Context()
				stats, err := doc.engine.History(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read history", err)
				}
				undo, err := doc.store.ListGroups(ctx, store.UndoLog, limit)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read undo log", err)
				}
				redo, err := doc.store.ListGroups(ctx, store.RedoLog, limit)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read redo log", err)
				}

				lines := []string{fmt.Sprintf("undo: %d step(s), redo: %d step(s), limit %d",
					stats.UndoGroups, stats.RedoGroups, stats.GroupLimit)}
				lines = append(lines, groupLines("undo", undo)...)
				lines = append(lines, groupLines("redo", redo)...)
				return out.Emit(HistoryOutput{Stats: stats, Undo: undo, Redo: redo}, lines)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "groups to show per log (0 for all)")
	return cmd
}

func groupLines(log string, groups []store.GroupSummary) []string {
	lines := make([]string, len(groups))
	for i, g := range groups {
		lines[i] = fmt.Sprintf("  %s %d %s (%d change(s): %s)", log, g.Group, actionName(g.Action), g.Images, strings.Join(g.Tables, ", "))
	}
	return lines
}

// actionName drops the token from a logged "name:token" action.
func actionName(action string) string {
	name, _, _ := strings.Cut(action, ":")
	return name
}
