package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/tracegraph/internal/graph"
	"github.com/roach88/tracegraph/internal/ir"
)

// PeekOptions holds flags for the peek command.
type PeekOptions struct {
	*RootOptions
	Partial bool
	At      int
}

// PeekResult holds the previews of what ApplyNext would do.
type PeekResult struct {
	Counter      int              `json:"counter"`
	Pending      *ir.Modification `json:"pending,omitempty"`
	Modification graph.View       `json:"modification,omitempty"`
	Increment    graph.View       `json:"increment,omitempty"`
}

// NewPeekCommand creates the peek command.
func NewPeekCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PeekOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "peek <document>",
		Short: "Preview the next modification and increment",
		Long: `Print small standalone graphs previewing the pending modification and
its increment, without changing the trace.

The modification preview has a header node 0 (Modify, Add, Remove, Join
or split) pointing at the nodes it acts on. The increment preview holds
the batch's new nodes with edges restricted to the batch.

Examples:
  tracegraph peek trace.json
  tracegraph peek "sample:Simple graph" --at 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeek(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Partial, "partial", false, "load missing or malformed sections as empty")
	cmd.Flags().IntVar(&opts.At, "at", 0, "counter position to peek from")

	return cmd
}

func runPeek(opts *PeekOptions, source string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	tr, err := loadForCommand(opts.RootOptions, source, opts.Partial, cmd)
	if err != nil {
		return reportError(formatter, "failed to load trace", err)
	}
	if err := tr.Seek(opts.At); err != nil {
		return reportError(formatter, "seek failed", err)
	}

	result := PeekResult{Counter: tr.Counter()}
	if m, ok := tr.Pending(); ok {
		result.Pending = &m
	}
	if v, ok := tr.PeekModification(); ok {
		result.Modification = v
	}
	if v, ok := tr.PeekIncrement(); ok {
		result.Increment = v
	}

	return formatter.Result(result, func(w io.Writer) error {
		fmt.Fprintf(w, "counter: %d\n", result.Counter)
		if result.Pending == nil {
			fmt.Fprintln(w, "nothing pending")
			return nil
		}
		fmt.Fprintf(w, "modification: %s\n", result.Pending.Type)
		fmt.Fprintln(w, result.Modification.String())
		if result.Increment != nil {
			fmt.Fprintln(w, "increment:")
			fmt.Fprintln(w, result.Increment.String())
		}
		return nil
	})
}
