package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// withDocument opens the configured document, runs fn and closes it.
func withDocument(cmd *cobra.Command, opts *RootOptions, fn func(doc *document, out *OutputFormatter) error) error {
	doc, err := openDocument(cmd.Context(), opts, cmd)
	if err != nil {
		return err
	}
	defer doc.Close()
	return fn(doc, newFormatter(opts, cmd))
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid id %q", a))
		}
		ids[i] = id
	}
	return ids, nil
}
