package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/tracegraph/internal/engine"
	"github.com/roach88/tracegraph/internal/graph"
	"github.com/roach88/tracegraph/internal/ir"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Partial bool
	Seek    int
	Next    int
	Undo    int
}

// PlayResult is the state after playback.
type PlayResult struct {
	Counter  int                   `json:"counter"`
	Length   int                   `json:"length"`
	Nodes    graph.View            `json:"nodes"`
	Latest   *ir.Modification      `json:"latest,omitempty"`
	Warnings []engine.LogicWarning `json:"warnings"`
	Digest   string                `json:"digest"`
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <document>",
		Short: "Move through a trace and print the graph",
		Long: `Load a trace, move its counter and print the live graph.

Moves are applied in this order: --seek, then --next steps forward, then
--undo steps back. Steps past either end of the log are no-ops. The most
recently applied modification is printed so renderers can highlight its
causers and targets.

Examples:
  tracegraph play trace.json --next 3
  tracegraph play trace.json --seek 5 --undo 1
  tracegraph play "sample:Simple graph" --seek 5 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Partial, "partial", false, "load missing or malformed sections as empty")
	cmd.Flags().IntVar(&opts.Seek, "seek", -1, "move the counter to this position first")
	cmd.Flags().IntVar(&opts.Next, "next", 0, "apply this many modifications")
	cmd.Flags().IntVar(&opts.Undo, "undo", 0, "undo this many modifications")

	return cmd
}

func runPlay(opts *PlayOptions, source string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	tr, err := loadForCommand(opts.RootOptions, source, opts.Partial, cmd)
	if err != nil {
		return reportError(formatter, "failed to load trace", err)
	}

	if opts.Seek >= 0 {
		if err := tr.Seek(opts.Seek); err != nil {
			return reportError(formatter, "seek failed", err)
		}
	}
	for i := 0; i < opts.Next && tr.ApplyNext(); i++ {
	}
	for i := 0; i < opts.Undo && tr.ApplyUndo(); i++ {
	}

	digest, err := tr.Digest()
	if err != nil {
		return reportError(formatter, "digest failed", err)
	}

	result := PlayResult{
		Counter:  tr.Counter(),
		Length:   tr.Len(),
		Nodes:    tr.Nodes(),
		Warnings: tr.Warnings(),
		Digest:   digest,
	}
	if m, ok := tr.Latest(); ok {
		result.Latest = &m
	}

	if err := formatter.Result(result, func(w io.Writer) error {
		fmt.Fprintln(w, graph.Dump(result.Counter, result.Nodes))
		writeLatest(w, result.Latest)
		return nil
	}); err != nil {
		return err
	}
	formatter.LogicWarnings(result.Warnings)
	return nil
}

func writeLatest(w io.Writer, m *ir.Modification) {
	if m == nil {
		fmt.Fprintln(w, "latest: none")
		return
	}
	fmt.Fprintf(w, "latest: %s causers %v targets %v\n", m.Type, m.Causers, m.Targets)
}

// loadForCommand loads a trace with the command's logger.
func loadForCommand(opts *RootOptions, source string, partial bool, cmd *cobra.Command) (*engine.Trace, error) {
	mode := LoadModeStrict
	if partial {
		mode = LoadModePartial
	}
	return LoadTrace(source, mode, opts.Logger(cmd.ErrOrStderr()))
}
