package rdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrorCode represents a programmatic error code for error handling.
type ErrorCode string

const (
	// ErrCodeUnsupportedFormat indicates an unsupported format.
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// ErrCodeInputTooLarge indicates the input exceeded the configured limit.
	ErrCodeInputTooLarge ErrorCode = "INPUT_TOO_LARGE"
	// ErrCodeParseError indicates a general parse error.
	ErrCodeParseError ErrorCode = "PARSE_ERROR"
	// ErrCodeIOError indicates an I/O error.
	ErrCodeIOError ErrorCode = "IO_ERROR"
	// ErrCodeContextCanceled indicates the context was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
)

var (
	// ErrUnsupportedFormat indicates an unsupported format.
	ErrUnsupportedFormat = errors.New("unsupported RDF format")
	// ErrInputTooLarge indicates the input exceeded the configured limit.
	ErrInputTooLarge = errors.New("rdf: input exceeds configured limit")
)

// Code returns the error code for an error, or ErrCodeParseError if unknown.
// Returns empty string for nil errors or io.EOF (which is not an error condition).
func Code(err error) ErrorCode {
	if err == nil || err == io.EOF {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return ErrCodeUnsupportedFormat
	case errors.Is(err, ErrInputTooLarge):
		return ErrCodeInputTooLarge
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeContextCanceled
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if underlying := Code(parseErr.Err); underlying != ErrCodeParseError && underlying != "" {
			return underlying
		}
		return ErrCodeParseError
	}

	var readErr *ReadError
	if errors.As(err, &readErr) {
		return ErrCodeIOError
	}

	return ErrCodeParseError
}

// ParseError provides structured context for parse failures.
type ParseError struct {
	Format    string // Format name (e.g., "jsonld", "nquads")
	Statement string // Offending input excerpt
	Err       error  // Underlying error
}

func (e *ParseError) Error() string {
	var msg strings.Builder
	msg.WriteString(e.Format)
	msg.WriteString(": ")
	msg.WriteString(e.Err.Error())
	if excerpt := e.excerpt(); excerpt != "" {
		msg.WriteString("\n  ")
		msg.WriteString(excerpt)
	}
	return msg.String()
}

func (e *ParseError) excerpt() string {
	const maxExcerptLen = 80
	if len(e.Statement) > maxExcerptLen {
		return e.Statement[:maxExcerptLen] + "..."
	}
	return e.Statement
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReadError reports a failure reading the input stream.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("rdf: read input: %v", e.Err) }

func (e *ReadError) Unwrap() error { return e.Err }

// wrapParseError adds format/statement context to a parse error.
func wrapParseError(format Format, statement string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: string(format), Statement: statement, Err: err}
}
