package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/drillstore/internal/ir"
)

// DumpOutput is the dump command's payload. Tables is omitted with --hashes.
type DumpOutput struct {
	Hashes map[string]string    `json:"hashes"`
	Tables map[string][]ir.Row `json:"tables,omitempty"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	var hashesOnly bool

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print every document table",
		Long: `Print every document table with a content hash per table.
Two documents with equal hashes hold identical rows, so hashes taken
before an edit and after its undo must match.

Examples:
  drillstore dump --format json
  drillstore dump --hashes`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocument(cmd, rootOpts, func(doc *document, out *OutputFormatter) error {
				ctx := cmd.Context()
				hashes, err := doc.store.SnapshotHashes(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to hash document", err)
				}
				payload := DumpOutput{Hashes: hashes}
				if !hashesOnly {
					payload.Tables, err = doc.store.Snapshot(ctx)
					if err != nil {
						return WrapExitError(ExitCommandError, "failed to read document", err)
					}
				}
				return out.Emit(payload, dumpLines(payload))
			})
		},
	}

	cmd.Flags().BoolVar(&hashesOnly, "hashes", false, "print table hashes only")
	return cmd
}

func dumpLines(d DumpOutput) []string {
	tables := make([]string, 0, len(d.Hashes))
	for t := range d.Hashes {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	var lines []string
	for _, t := range tables {
		lines = append(lines, fmt.Sprintf("%s %s", t, d.Hashes[t]))
		for _, row := range d.Tables[t] {
			data, err := ir.MarshalCanonical(row)
			if err != nil {
				data = []byte(err.Error())
			}
			lines = append(lines, "  "+string(data))
		}
	}
	return lines
}
