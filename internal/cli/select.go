package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/tracegraph/internal/graph"
	"github.com/roach88/tracegraph/internal/selection"
)

// SelectOptions holds flags for the select command.
type SelectOptions struct {
	*RootOptions
	Partial bool
	At      int
}

// SelectResult holds the mask between two nodes.
type SelectResult struct {
	Counter   int        `json:"counter"`
	Selection []int      `json:"selection"`
	Mask      []int      `json:"mask"`
	Nodes     graph.View `json:"nodes"`
}

// NewSelectCommand creates the select command.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SelectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "select <document> <a> <b>",
		Short: "Mask the paths between two nodes",
		Long: `Select two nodes and print the graph restricted to every node on a
directed walk from a to b or from b to a. Selecting a node that is not in
the graph yields an empty mask.

Examples:
  tracegraph select trace.json 0 3
  tracegraph select "sample:Simple graph" 0 4 --at 5`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Partial, "partial", false, "load missing or malformed sections as empty")
	cmd.Flags().IntVar(&opts.At, "at", 0, "counter position to select at")

	return cmd
}

func runSelect(opts *SelectOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ids := make([]int, 0, 2)
	for _, arg := range args[1:] {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return reportError(formatter, "bad node id",
				&LoadError{Code: ErrCodeBadSelection, Message: fmt.Sprintf("node id %q is not an integer", arg)})
		}
		ids = append(ids, id)
	}

	tr, err := loadForCommand(opts.RootOptions, args[0], opts.Partial, cmd)
	if err != nil {
		return reportError(formatter, "failed to load trace", err)
	}
	if err := tr.Seek(opts.At); err != nil {
		return reportError(formatter, "seek failed", err)
	}

	sel := &selection.Selector{}
	if err := sel.Select(tr.Nodes(), ids...); err != nil {
		return reportError(formatter, "select failed", err)
	}

	result := SelectResult{
		Counter:   tr.Counter(),
		Selection: sel.Selection(),
		Mask:      sel.Mask(),
		Nodes:     sel.MaskIfAvailable(tr.Nodes()),
	}

	return formatter.Result(result, func(w io.Writer) error {
		fmt.Fprintf(w, "mask: %v\n", result.Mask)
		fmt.Fprintln(w, graph.Dump(result.Counter, result.Nodes))
		return nil
	})
}
