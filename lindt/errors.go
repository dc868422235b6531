package lindt

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode represents a programmatic error code for error handling.
type ErrorCode string

const (
	// ErrCodeResourceUnavailable indicates a definition resource could not be fetched or evaluated.
	ErrCodeResourceUnavailable ErrorCode = "RESOURCE_UNAVAILABLE"
	// ErrCodeProtocolViolation indicates an external factory or type broke its contract.
	ErrCodeProtocolViolation ErrorCode = "PROTOCOL_VIOLATION"
	// ErrCodeDatatypeFormat indicates a lexical form is not legal for its datatype.
	ErrCodeDatatypeFormat ErrorCode = "DATATYPE_FORMAT"
	// ErrCodeRuntimeScript indicates externally supplied logic failed while running.
	ErrCodeRuntimeScript ErrorCode = "RUNTIME_SCRIPT_FAILURE"
	// ErrCodeInvalidTypeURI indicates the datatype URI is empty, relative, or malformed.
	ErrCodeInvalidTypeURI ErrorCode = "INVALID_TYPE_URI"
	// ErrCodeUnknownDatatype indicates the resource does not define the requested type.
	ErrCodeUnknownDatatype ErrorCode = "UNKNOWN_DATATYPE"
	// ErrCodeContextCanceled indicates the context was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
)

var (
	// ErrResourceUnavailable marks load failures of a definition resource.
	ErrResourceUnavailable = errors.New("lindt: definition resource unavailable")
	// ErrProtocolViolation marks out-of-contract behavior of an external factory or type.
	ErrProtocolViolation = errors.New("lindt: protocol violation")
	// ErrDatatypeFormat marks illegal lexical forms.
	ErrDatatypeFormat = errors.New("lindt: illegal lexical form")
	// ErrRuntimeScript marks failures raised inside externally supplied logic.
	ErrRuntimeScript = errors.New("lindt: runtime script failure")
	// ErrInvalidTypeURI marks datatype URIs that cannot name a linked datatype.
	ErrInvalidTypeURI = errors.New("lindt: invalid datatype URI")
	// ErrUnknownDatatype marks type URIs the resource's factory does not define.
	ErrUnknownDatatype = errors.New("lindt: datatype not defined by its resource")
	// ErrUnsupported is returned by a TypeImpl for an optional capability it
	// does not provide. It is never logged as a failure.
	ErrUnsupported = errors.New("lindt: capability not supported")
	// ErrNoEvaluator is returned when a resource must be evaluated but the
	// engine was built without an Evaluator.
	ErrNoEvaluator = errors.New("lindt: no evaluator configured")
)

// Code returns the error code for an error.
// Returns empty string for nil errors.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeContextCanceled
	case errors.Is(err, ErrDatatypeFormat):
		return ErrCodeDatatypeFormat
	case errors.Is(err, ErrInvalidTypeURI):
		return ErrCodeInvalidTypeURI
	case errors.Is(err, ErrUnknownDatatype):
		return ErrCodeUnknownDatatype
	case errors.Is(err, ErrResourceUnavailable):
		return ErrCodeResourceUnavailable
	case errors.Is(err, ErrProtocolViolation):
		return ErrCodeProtocolViolation
	case errors.Is(err, ErrRuntimeScript):
		return ErrCodeRuntimeScript
	}
	return ErrCodeRuntimeScript
}

// ResourceError reports a failure to fetch or evaluate a definition resource.
type ResourceError struct {
	URL string // Resource URL
	Err error  // Underlying error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("lindt: load <%s>: %v", e.URL, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// Is reports ErrResourceUnavailable.
func (e *ResourceError) Is(target error) bool { return target == ErrResourceUnavailable }

// ProtocolError reports out-of-contract behavior of an external factory or type.
type ProtocolError struct {
	TypeURI string // Datatype URI
	Op      string // Capability that misbehaved (e.g., "getType", "createValue")
	Err     error  // Underlying error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("lindt: <%s> %s: protocol violation: %v", e.TypeURI, e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// Is reports ErrProtocolViolation.
func (e *ProtocolError) Is(target error) bool { return target == ErrProtocolViolation }

// ScriptError reports an error raised inside externally supplied logic.
type ScriptError struct {
	TypeURI string // Datatype URI
	Op      string // Capability being invoked
	Err     error  // Underlying error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("lindt: <%s> %s: %v", e.TypeURI, e.Op, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// Is reports ErrRuntimeScript.
func (e *ScriptError) Is(target error) bool { return target == ErrRuntimeScript }

// DatatypeFormatError reports a lexical form that cannot be parsed by its datatype.
// It is the only failure Parse hands back to its caller.
type DatatypeFormatError struct {
	Lexical string // Offending lexical form
	TypeURI string // Datatype URI
	Err     error  // Underlying cause, if any
}

func (e *DatatypeFormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("lindt: %q is not a legal lexical form of <%s>", e.Lexical, e.TypeURI)
	}
	return fmt.Sprintf("lindt: %q is not a legal lexical form of <%s>: %v", e.Lexical, e.TypeURI, e.Err)
}

func (e *DatatypeFormatError) Unwrap() error { return e.Err }

// Is reports ErrDatatypeFormat.
func (e *DatatypeFormatError) Is(target error) bool { return target == ErrDatatypeFormat }

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
