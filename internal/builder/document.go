package builder

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tracegraph/internal/engine"
	"github.com/roach88/tracegraph/internal/ir"
)

//go:embed schema.cue
var schemaSource string

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// LoadMode controls how malformed sections are handled.
type LoadMode int

const (
	// LoadModeStrict rejects a document with missing or wrongly shaped
	// sections.
	LoadModeStrict LoadMode = iota
	// LoadModePartial logs missing or wrongly shaped sections and loads
	// them as empty.
	LoadModePartial
)

// Required top-level sections, in the order they are reported.
var sections = []string{"nodes", "modifications", "increments"}

type loadConfig struct {
	format   Format
	mode     LoadMode
	filename string
	log      *slog.Logger
}

func (c *loadConfig) logger() *slog.Logger {
	if c.log == nil {
		return slog.Default()
	}
	return c.log
}

// LoadOption configures document loading.
type LoadOption func(*loadConfig)

// WithFormat sets the input encoding. Default: FormatJSON.
func WithFormat(f Format) LoadOption {
	return func(c *loadConfig) {
		c.format = f
	}
}

// WithPartialLoad switches to LoadModePartial.
func WithPartialLoad() LoadOption {
	return func(c *loadConfig) {
		c.mode = LoadModePartial
	}
}

// WithFilename names the input in CUE error positions.
func WithFilename(name string) LoadOption {
	return func(c *loadConfig) {
		c.filename = name
	}
}

// WithLoadLogger sets the logger that partial-mode warnings and the
// resulting trace log to. Only LoadFile reads it; FromDocument uses the
// builder's logger.
func WithLoadLogger(l *slog.Logger) LoadOption {
	return func(c *loadConfig) {
		c.log = l
	}
}

func loggerFrom(b *Builder) LoadOption {
	return func(c *loadConfig) {
		c.log = b.logger
	}
}

// FormatFromPath picks an encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", &DocumentError{
		Code:    ErrDocumentFormat,
		Field:   "path",
		Message: fmt.Sprintf("cannot infer document format from %q", path),
	}
}

// LoadFile reads a document from disk and builds it. The format comes from
// the file extension unless WithFormat is given.
func LoadFile(path string, opts ...LoadOption) (*engine.Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	opts = append([]LoadOption{WithFormat(format), WithFilename(path)}, opts...)

	cfg := &loadConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return New(WithLogger(cfg.logger())).FromDocument(data, opts...)
}

// FromDocument resets the builder, fills it from an encoded document and
// builds it.
func (b *Builder) FromDocument(data []byte, opts ...LoadOption) (*engine.Trace, error) {
	doc, err := ParseDocument(data, append(opts, loggerFrom(b))...)
	if err != nil {
		return nil, err
	}
	return b.FromParsed(doc)
}

// FromParsed resets the builder, fills it from an already decoded document
// and builds it.
func (b *Builder) FromParsed(doc ir.Document) (*engine.Trace, error) {
	b.Reset()

	keys := make([]string, 0, len(doc.Nodes))
	for k := range doc.Nodes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, nodeKeyError(k)
		}
		n := doc.Nodes[k]
		b.AppendNode(id, n.Code, n.Destinations...)
	}
	for _, m := range doc.Modifications {
		b.modifications = append(b.modifications, m.Clone())
	}
	for _, inc := range doc.Increments {
		b.increments = append(b.increments, inc.Clone())
	}
	return b.Build()
}

// ParseDocument decodes a document without building it.
func ParseDocument(data []byte, opts ...LoadOption) (ir.Document, error) {
	cfg := &loadConfig{format: FormatJSON, mode: LoadModeStrict, filename: "document"}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger()

	raw, err := toJSON(data, cfg)
	if err != nil {
		return ir.Document{}, err
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return ir.Document{}, &DocumentError{Code: ErrDocumentSyntax, Message: fmt.Sprintf("document must be an object: %v", err)}
	}

	if cfg.mode == LoadModeStrict {
		if err := checkShape(top); err != nil {
			return ir.Document{}, err
		}
		if err := checkSchema(raw, cfg.filename); err != nil {
			return ir.Document{}, err
		}
	}

	doc := ir.Document{
		Nodes:         map[string]ir.Node{},
		Modifications: []ir.Modification{},
		Increments:    []ir.Increment{},
	}

	for _, key := range sections {
		if _, ok := top[key]; !ok {
			logger.Warn("document section missing, using empty", "section", key)
		}
	}

	if msg, ok := top["nodes"]; ok {
		var nodes map[string]ir.Node
		if err := json.Unmarshal(msg, &nodes); err != nil {
			if cfg.mode == LoadModeStrict {
				return ir.Document{}, &DocumentError{Code: ErrDocumentNodes, Field: "nodes", Message: err.Error()}
			}
			logger.Error("nodes should be an object of node records, using empty", "error", err)
		} else {
			for k, n := range nodes {
				if _, err := strconv.Atoi(k); err != nil {
					if cfg.mode == LoadModeStrict {
						return ir.Document{}, nodeKeyError(k)
					}
					logger.Warn("skipping node with non-integer key", "key", k)
					continue
				}
				doc.Nodes[k] = n
			}
		}
	}

	if msg, ok := top["modifications"]; ok && !isNull(msg) {
		if err := json.Unmarshal(msg, &doc.Modifications); err != nil {
			return ir.Document{}, &DocumentError{Code: ErrDocumentSchema, Field: "modifications", Message: err.Error()}
		}
	}
	if msg, ok := top["increments"]; ok && !isNull(msg) {
		if err := json.Unmarshal(msg, &doc.Increments); err != nil {
			return ir.Document{}, &DocumentError{Code: ErrDocumentSchema, Field: "increments", Message: err.Error()}
		}
	}

	return doc, nil
}

// EncodeDocument renders a document. CUE output is JSON, which CUE reads
// as-is.
func EncodeDocument(doc ir.Document, f Format) ([]byte, error) {
	switch f {
	case FormatJSON, FormatCUE:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		// Go through JSON so nil lists stay null. yaml.v3 writes a nil
		// slice as [], which would turn "leave destinations alone" into
		// "clear destinations" on reload.
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		data, err := yaml.Marshal(integral(v))
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return data, nil
	}
	return nil, &DocumentError{Code: ErrDocumentFormat, Field: "format", Message: fmt.Sprintf("unknown format %q", f)}
}

// integral turns the float64 numbers of a decoded JSON value back into
// ints. Every number in a document is a node id or an index.
func integral(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, e := range val {
			val[k] = integral(e)
		}
		return val
	case []any:
		for i, e := range val {
			val[i] = integral(e)
		}
		return val
	case float64:
		if val == math.Trunc(val) {
			return int64(val)
		}
	}
	return v
}

// toJSON normalises every accepted encoding to JSON.
func toJSON(data []byte, cfg *loadConfig) ([]byte, error) {
	switch cfg.format {
	case FormatJSON:
		if !json.Valid(data) {
			return nil, &DocumentError{Code: ErrDocumentSyntax, Message: "invalid JSON"}
		}
		return data, nil

	case FormatYAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, &DocumentError{Code: ErrDocumentSyntax, Message: fmt.Sprintf("invalid YAML: %v", err)}
		}
		out, err := json.Marshal(jsonify(v))
		if err != nil {
			return nil, &DocumentError{Code: ErrDocumentSyntax, Message: fmt.Sprintf("YAML is not JSON-compatible: %v", err)}
		}
		return out, nil

	case FormatCUE:
		ctx := cuecontext.New()
		v := ctx.CompileBytes(data, cue.Filename(cfg.filename))
		if err := v.Err(); err != nil {
			return nil, formatCUEError(err, ErrDocumentSyntax)
		}
		out, err := v.MarshalJSON()
		if err != nil {
			return nil, formatCUEError(err, ErrDocumentSyntax)
		}
		return out, nil
	}
	return nil, &DocumentError{Code: ErrDocumentFormat, Field: "format", Message: fmt.Sprintf("unknown format %q", cfg.format)}
}

// checkShape gives precise errors for the mistakes the schema would only
// report generically.
func checkShape(top map[string]json.RawMessage) error {
	for _, key := range sections {
		if _, ok := top[key]; !ok {
			return &DocumentError{Code: ErrDocumentSection, Field: key, Message: "required section missing"}
		}
	}

	var nodes map[string]json.RawMessage
	if err := json.Unmarshal(top["nodes"], &nodes); err != nil || nodes == nil {
		return &DocumentError{Code: ErrDocumentNodes, Field: "nodes", Message: "nodes should be an object of node records"}
	}
	for k := range nodes {
		if _, err := strconv.Atoi(k); err != nil {
			return nodeKeyError(k)
		}
	}
	return nil
}

// checkSchema unifies the document with #Document.
func checkSchema(raw []byte, filename string) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile document schema: %w", err)
	}

	doc := ctx.CompileBytes(raw, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return formatCUEError(err, ErrDocumentSyntax)
	}

	unified := schema.LookupPath(cue.ParsePath("#Document")).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err, ErrDocumentSchema)
	}
	return nil
}

// formatCUEError extracts the first error and its position.
func formatCUEError(err error, code string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &DocumentError{Code: code, Field: "cue", Message: err.Error()}
	}

	first := errs[0]
	de := &DocumentError{Code: code, Field: "cue", Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		de.Pos = positions[0]
	}
	return de
}

// jsonify turns YAML's map[any]any into map[string]any so the value can be
// marshalled as JSON. Integer node keys become their decimal text.
func jsonify(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, e := range val {
			val[k] = jsonify(e)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[fmt.Sprint(k)] = jsonify(e)
		}
		return out
	case []any:
		for i, e := range val {
			val[i] = jsonify(e)
		}
		return val
	}
	return v
}

func nodeKeyError(k string) error {
	return &DocumentError{
		Code:    ErrDocumentNodeKey,
		Field:   "nodes",
		Message: fmt.Sprintf("node key %q is not an integer", k),
	}
}

func isNull(msg json.RawMessage) bool {
	return strings.TrimSpace(string(msg)) == "null"
}
