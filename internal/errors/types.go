package errors

import (
	"fmt"
)

// SchemaError reports an unrecognized block kind or a structurally invalid
// document, block or payload.
type SchemaError struct {
	// Block is the name of the offending block, empty for document-level problems
	Block string

	// Field is the offending field (e.g. "block_type", "data.url")
	Field string

	// Message describes what is wrong
	Message string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	msg := "schema error"
	if e.Block != "" {
		msg = fmt.Sprintf("%s in block %q", msg, e.Block)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s at %s", msg, e.Field)
	}
	return fmt.Sprintf("%s: %s", msg, e.Message)
}

// ReferenceError reports an unresolvable placeholder, or a duplicate
// parameter key or block name.
type ReferenceError struct {
	// Block is the name of the block containing the placeholder, if any
	Block string

	// Placeholder is the placeholder text as written, e.g. "{{unknown_key}}"
	Placeholder string

	// Message describes why the reference cannot be resolved
	Message string
}

// Error implements the error interface.
func (e *ReferenceError) Error() string {
	msg := "reference error"
	if e.Block != "" {
		msg = fmt.Sprintf("%s in block %q", msg, e.Block)
	}
	if e.Placeholder != "" {
		msg = fmt.Sprintf("%s at placeholder %s", msg, e.Placeholder)
	}
	return fmt.Sprintf("%s: %s", msg, e.Message)
}

// TransportError reports a network-level failure reaching the workflow service,
// including timeouts and cancellation.
type TransportError struct {
	Op    string
	URL   string
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s %s: %v", e.Op, e.URL, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ServiceError reports a non-success HTTP status from the workflow service.
// Body is the response body, verbatim.
type ServiceError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error: HTTP %d: %s", e.StatusCode, e.Body)
}

// ResponseFormatError reports a success status whose body could not be parsed
// or lacks required fields.
type ResponseFormatError struct {
	Message string
	Body    string
	Cause   error
}

// Error implements the error interface.
func (e *ResponseFormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("response format error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("response format error: %s", e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ResponseFormatError) Unwrap() error {
	return e.Cause
}

// Kind returns the name of the first typed error found in err's tree,
// or "Error" when err carries none of the typed kinds.
func Kind(err error) string {
	var (
		schemaErr    *SchemaError
		referenceErr *ReferenceError
		transportErr *TransportError
		serviceErr   *ServiceError
		formatErr    *ResponseFormatError
	)

	switch {
	case err == nil:
		return ""
	case As(err, &schemaErr):
		return "SchemaError"
	case As(err, &referenceErr):
		return "ReferenceError"
	case As(err, &transportErr):
		return "TransportError"
	case As(err, &serviceErr):
		return "ServiceError"
	case As(err, &formatErr):
		return "ResponseFormatError"
	default:
		return "Error"
	}
}
