package builder

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

// Structural error codes (E200-E299)
const (
	// Initial graph (E200-E209)
	ErrDuplicateNode     = "E201" // initial node id already used
	ErrUnknownNode       = "E202" // UpdateDestinations on an id never appended
	ErrBadInitialEdge    = "E203" // initial destination names no node
	ErrTooManyIncrements = "E204" // more increments than modifications

	// Log replay (E210-E229)
	ErrAlreadyUsed       = "E210" // new id is alive
	ErrCompletelyUnknown = "E211" // target never existed
	ErrCurrentlyUnknown  = "E212" // target existed but was removed
	ErrBadDestination    = "E213" // descriptor destination not alive
	ErrBadOrigin         = "E214" // descriptor origin not alive
	ErrOriginUsage       = "E215" // modify descriptor declares origins
	ErrJoinShape         = "E216" // join arity or descriptor
	ErrSplitShape        = "E217" // split arity or descriptor
	ErrUnknownType       = "E218" // modification type not recognised
)

// Document error codes (E300-E399)
const (
	ErrDocumentSyntax  = "E301" // input does not parse
	ErrDocumentSection = "E302" // required top-level key missing
	ErrDocumentNodes   = "E303" // nodes is not an object of records
	ErrDocumentNodeKey = "E304" // node key is not an integer
	ErrDocumentSchema  = "E305" // document does not satisfy #Document
	ErrDocumentFormat  = "E306" // unknown encoding
)

// StructuralError reports a log the engine must not be driven with.
//
// Construction always stops at the first StructuralError; Build never
// returns a partially valid trace.
type StructuralError struct {
	Code string `json:"code"`

	// What names the operation being checked, e.g. "Removal" or
	// "Join/Addition".
	What string `json:"what"`

	// Element is the offending node id when HasElement is set.
	Element    int  `json:"element"`
	HasElement bool `json:"has_element"`

	// Index is the modification index, or -1 for initial-graph errors.
	Index int `json:"index"`

	// Detail completes the message after the element.
	Detail string `json:"detail"`
}

// Error implements the error interface.
//
// Element errors read "<what> of element <id> <detail> at index: <i>".
func (e *StructuralError) Error() string {
	var msg string
	switch {
	case e.HasElement:
		msg = fmt.Sprintf("%s of element %d %s", e.What, e.Element, e.Detail)
	case e.What != "":
		msg = fmt.Sprintf("%s: %s", e.What, e.Detail)
	default:
		msg = e.Detail
	}
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s at index: %d", msg, e.Index)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

func elementError(code, what string, element int, detail string, index int) *StructuralError {
	return &StructuralError{
		Code:       code,
		What:       what,
		Element:    element,
		HasElement: true,
		Index:      index,
		Detail:     detail,
	}
}

func shapeError(code, what, detail string, index int) *StructuralError {
	return &StructuralError{Code: code, What: what, Index: index, Detail: detail}
}

// IsStructuralError returns true if err is or wraps a StructuralError.
func IsStructuralError(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// DocumentError reports an external document that could not be turned into
// builder input.
type DocumentError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("[%s] %s:%d:%d: %s: %s",
			e.Code, e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	if e.Field == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// IsDocumentError returns true if err is or wraps a DocumentError.
func IsDocumentError(err error) bool {
	var de *DocumentError
	return errors.As(err, &de)
}
