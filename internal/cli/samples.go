package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/tracegraph/internal/builder"
	"github.com/roach88/tracegraph/internal/samples"
)

// SamplesOptions holds flags for the samples command.
type SamplesOptions struct {
	*RootOptions
	Encoding string
}

// NewSamplesCommand creates the samples command.
func NewSamplesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SamplesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "samples [name]",
		Short: "List or export the built-in samples",
		Long: `Without a name, list the built-in samples. With a name, print that
sample as a trace document that validate, play and catalog accept.

Other commands take a sample as "sample:<name>".

Examples:
  tracegraph samples
  tracegraph samples "Simple graph" --encoding yaml > simple.yaml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listSamples(opts, cmd)
			}
			return exportSample(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Encoding, "encoding", "json", "document encoding (json|yaml|cue)")

	return cmd
}

func listSamples(opts *SamplesOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	summaries := samples.Summaries()

	return formatter.Result(summaries, func(w io.Writer) error {
		for _, s := range summaries {
			fmt.Fprintf(w, "%s: %s (%d nodes, %d steps)\n", s.Name, s.Description, s.Nodes, s.Steps)
		}
		return nil
	})
}

func exportSample(opts *SamplesOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	tr, err := loadForCommand(opts.RootOptions, SamplePrefix+name, false, cmd)
	if err != nil {
		return reportError(formatter, "failed to load sample", err)
	}

	data, err := builder.EncodeDocument(tr.Document(), builder.Format(opts.Encoding))
	if err != nil {
		return reportError(formatter, "failed to encode sample", err)
	}

	// The document itself is the output; --format only affects listings.
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
