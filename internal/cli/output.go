package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/tracegraph/internal/engine"
)

// Exit codes for tracegraph commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // bad document, replay mismatch, failed scenario
	ExitCommandError = 2 // unreadable path, missing catalog entry, bad flag
)

// ExitError carries the process exit code out of a command's RunE.
// main passes it to os.Exit through GetExitCode.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string // what the command was doing, e.g. "invalid document"
	Err     error  // optional cause
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders command results. With --format json every result
// is wrapped in a CLIResponse envelope on stdout; in text mode each command
// supplies its own rendering (graph dumps, summaries, catalog tables).
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose diagnostics; falls back to Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope around every command result.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // command result: PlayResult, SelectResult, ...
	Error  *CLIError `json:"error,omitempty"` // set when Status is "error"
}

// CLIError carries a loader or validator failure. Codes E0xx come from the
// CLI itself, E2xx from log validation and E3xx from document decoding.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"` // source position, offending index, ...
}

// JSON reports whether results are written as CLIResponse envelopes.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Result writes data as an "ok" envelope in JSON mode. In text mode it
// calls text with the output writer, or prints data as is when text is nil.
func (f *OutputFormatter) Result(data any, text func(w io.Writer) error) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	if text == nil {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return text(f.Writer)
}

// Success writes data with its default text rendering.
func (f *OutputFormatter) Success(data any) error {
	return f.Result(data, nil)
}

// Error writes an "error" envelope, or an "Error [code]" line in text mode.
// Details are only printed in text mode when verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// LogicWarnings prints how many playback warnings a trace raised, with one
// line per warning in verbose mode. JSON results carry them in the payload,
// so nothing is written there.
func (f *OutputFormatter) LogicWarnings(warnings []engine.LogicWarning) {
	if f.JSON() || len(warnings) == 0 {
		return
	}
	fmt.Fprintf(f.Writer, "warnings: %d\n", len(warnings))
	for _, w := range warnings {
		f.VerboseLog("  %s", w)
	}
}

// VerboseLog writes a diagnostic line to ErrWriter when verbose, keeping
// JSON on Writer intact.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// newFormatter builds the formatter every command writes through.
// Verbose logs go to stderr so they never corrupt JSON on stdout.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// reportError writes err through the formatter and converts it into an
// ExitError carrying the matching exit code.
func reportError(f *OutputFormatter, message string, err error) error {
	code, exit, details := classifyError(err)
	if ferr := f.Error(code, fmt.Sprintf("%s: %v", message, err), details); ferr != nil {
		return ferr
	}
	return WrapExitError(exit, message, err)
}
