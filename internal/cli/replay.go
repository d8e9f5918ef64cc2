package cli

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/roach88/tracegraph/internal/samples"
)

// DefaultDocumentPattern matches trace documents anywhere below a root.
const DefaultDocumentPattern = "**/*.{json,yaml,yml,cue}"

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Pattern string
	Samples bool
	Partial bool
}

// ReplaySourceResult holds the round trip of a single document.
type ReplaySourceResult struct {
	Source     string   `json:"source"`
	Steps      int      `json:"steps"`
	Mismatches []int    `json:"mismatches"`
	Warnings   int      `json:"warnings"`
	OK         bool     `json:"ok"`
	Error      string   `json:"error,omitempty"`
	Digests    []string `json:"digests,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sources []ReplaySourceResult `json:"sources"`
	Total   int                  `json:"total"`
	AllOK   bool                 `json:"all_ok"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [path...]",
		Short: "Play traces forwards and back and verify every position",
		Long: `Play each trace to the end, undo it back to the start and check that
the graph at every counter is identical on both passes.

Paths may be documents or directories. Directories are searched with
--pattern. With no paths, or with --samples, the built-in samples are
replayed too.

Exit codes:
  0 - Every position was restored
  1 - A position differed or a document failed to load
  2 - Command error (path not found, bad pattern, etc.)

Examples:
  tracegraph replay
  tracegraph replay ./traces --pattern "**/*.json"
  tracegraph replay trace.json --samples --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Pattern, "pattern", DefaultDocumentPattern, "doublestar pattern for documents inside directories")
	cmd.Flags().BoolVar(&opts.Samples, "samples", false, "replay the built-in samples")
	cmd.Flags().BoolVar(&opts.Partial, "partial", false, "load missing or malformed sections as empty")

	return cmd
}

func runReplay(opts *ReplayOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if !doublestar.ValidatePattern(opts.Pattern) {
		return reportError(formatter, "bad pattern",
			&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("invalid pattern %q", opts.Pattern)})
	}

	var sources []string
	if len(paths) == 0 || opts.Samples {
		for _, s := range samples.All() {
			sources = append(sources, SamplePrefix+s.Name)
		}
	}
	for _, p := range paths {
		found, err := findDocuments(p, opts.Pattern)
		if err != nil {
			return reportError(formatter, "failed to find documents", err)
		}
		sources = append(sources, found...)
	}

	if len(sources) == 0 {
		return reportError(formatter, "nothing to replay",
			&LoadError{Code: ErrCodeNoFiles, Message: "no documents matched"})
	}

	result := ReplayResult{
		Sources: make([]ReplaySourceResult, 0, len(sources)),
		Total:   len(sources),
		AllOK:   true,
	}
	for _, source := range sources {
		r := replaySource(opts, source, cmd)
		if !r.OK {
			result.AllOK = false
		}
		result.Sources = append(result.Sources, r)
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

func replaySource(opts *ReplayOptions, source string, cmd *cobra.Command) ReplaySourceResult {
	tr, err := loadForCommand(opts.RootOptions, source, opts.Partial, cmd)
	if err != nil {
		return ReplaySourceResult{Source: source, Mismatches: []int{}, Error: err.Error()}
	}

	report, err := tr.Replay()
	if err != nil {
		return ReplaySourceResult{Source: source, Mismatches: []int{}, Error: err.Error()}
	}

	r := ReplaySourceResult{
		Source:     source,
		Steps:      report.Steps,
		Mismatches: report.Mismatches,
		Warnings:   report.Warnings,
		OK:         report.OK(),
	}
	if opts.Verbose {
		r.Digests = report.Forward
	}
	return r
}

// findDocuments expands a path into the documents to replay. A file is
// returned as is; a directory is walked and filtered with a doublestar
// pattern on the slash-separated relative path.
func findDocuments(root, pattern string) ([]string, error) {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", root)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: err.Error()}
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var found []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		ok, err := doublestar.Match(pattern, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		if ok {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: err.Error()}
	}
	return found, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllOK {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeReplayMismatch,
			Message: "replay verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllOK {
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d trace(s)\n", result.Total)
	fmt.Fprintln(w)

	for _, src := range result.Sources {
		status := "✓"
		if !src.OK {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", status, src.Source)

		if src.Error != "" {
			fmt.Fprintf(w, "  Load error: %s\n", src.Error)
			continue
		}
		fmt.Fprintf(w, "  Steps: %d, warnings: %d\n", src.Steps, src.Warnings)
		if len(src.Mismatches) > 0 {
			fmt.Fprintf(w, "  Mismatched counters: %v\n", src.Mismatches)
		}
		if verbose {
			for k, d := range src.Digests {
				fmt.Fprintf(w, "  %d %s\n", k, d)
			}
		}
	}
	fmt.Fprintln(w)

	if result.AllOK {
		fmt.Fprintln(w, "✓ All traces replayed cleanly")
		return nil
	}

	fmt.Fprintln(w, "✗ Replay verification failed")
	return NewExitError(ExitFailure, "replay verification failed")
}
