package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/tracegraph/internal/builder"
	"github.com/roach88/tracegraph/internal/engine"
	"github.com/roach88/tracegraph/internal/samples"
)

// LoadMode controls how malformed document sections are handled.
type LoadMode int

const (
	// LoadModeStrict rejects documents with missing or wrongly shaped
	// sections.
	LoadModeStrict LoadMode = iota
	// LoadModePartial logs such sections and loads them as empty.
	LoadModePartial
)

// SamplePrefix selects a built-in sample instead of a file:
// "sample:Simple graph".
const SamplePrefix = "sample:"

// Command-level error codes. Document and structural errors carry the
// builder's E2xx/E3xx codes.
const (
	ErrCodeGeneric        = "E001" // Generic/unknown error
	ErrCodeScanError      = "E002" // Directory scan error
	ErrCodeNoFiles        = "E003" // No documents found
	ErrCodeLoadFailed     = "E004" // Document could not be read
	ErrCodeNotFound       = "E005" // Path not found
	ErrCodeUnknownSample  = "E006" // No sample with that name
	ErrCodeWriteFailed    = "E007" // File write error
	ErrCodeBadPosition    = "E008" // Counter position out of range
	ErrCodeBadSelection   = "E009" // Selection needs two ids
	ErrCodeReplayMismatch = "E010" // Undo did not restore a position
	ErrCodeDatabase       = "E011" // Catalog database error
)

// LoadError represents an error that occurred before a document could be
// parsed.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadTrace builds a trace from a document path or a SamplePrefix name.
func LoadTrace(source string, mode LoadMode, logger *slog.Logger) (*engine.Trace, error) {
	if name, ok := strings.CutPrefix(source, SamplePrefix); ok {
		s, found := samples.ByName(name)
		if !found {
			return nil, &LoadError{Code: ErrCodeUnknownSample, Message: fmt.Sprintf("unknown sample %q", name)}
		}
		return s.Trace(builder.WithLogger(logger))
	}

	info, err := os.Stat(source)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("document not found: %s", source)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("error accessing document: %v", err)}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("is a directory: %s", source)}
	}

	opts := []builder.LoadOption{builder.WithLoadLogger(logger)}
	if mode == LoadModePartial {
		opts = append(opts, builder.WithPartialLoad())
	}
	return builder.LoadFile(source, opts...)
}

// classifyError maps an error to a response code, an exit code and
// optional details.
//
// Invalid documents are failures (exit 1); everything that stops a
// command from looking at a document at all is a command error (exit 2).
func classifyError(err error) (code string, exit int, details any) {
	var se *builder.StructuralError
	if errors.As(err, &se) {
		d := map[string]any{"index": se.Index}
		if se.HasElement {
			d["element"] = se.Element
		}
		return se.Code, ExitFailure, d
	}

	var de *builder.DocumentError
	if errors.As(err, &de) {
		d := map[string]any{"field": de.Field}
		if de.Pos.IsValid() {
			d["line"] = de.Pos.Line()
			d["column"] = de.Pos.Column()
		}
		return de.Code, ExitFailure, d
	}

	var le *LoadError
	if errors.As(err, &le) {
		return le.Code, ExitCommandError, nil
	}

	if engine.IsPositionError(err) {
		return ErrCodeBadPosition, ExitCommandError, nil
	}

	return ErrCodeGeneric, ExitCommandError, nil
}
