package types

import "fmt"

// Application error codes surfaced in the response envelope.
const (
	CodeInvalidSchema        = "INVALID_SCHEMA"
	CodeEmptyFile            = "EMPTY_FILE"
	CodeUnsupportedDelimiter = "UNSUPPORTED_DELIMITER"
	CodeParseError           = "PARSE_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeResourceBusy         = "RESOURCE_BUSY"
	CodeUpstreamUnavailable  = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamTimeout      = "UPSTREAM_TIMEOUT"
	CodeRequestCancelled     = "REQUEST_CANCELLED"
	CodeInternal             = "INTERNAL_ERROR"
)

// CustomError carries an HTTP status and an application code through the
// service layer up to the global error handler.
type CustomError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [code: %s]", e.Status, e.Message, e.Code)
}

// NewInvalidSchema reports a CSV whose header row cannot be ingested.
func NewInvalidSchema(message string) *CustomError {
	return &CustomError{Status: 400, Code: CodeInvalidSchema, Message: message}
}

// NewEmptyFile reports an upload with no content.
func NewEmptyFile() *CustomError {
	return &CustomError{Status: 400, Code: CodeEmptyFile, Message: "uploaded file is empty"}
}

// NewParseError reports a whole-file read failure, not a row-level error.
func NewParseError(message string) *CustomError {
	return &CustomError{Status: 400, Code: CodeParseError, Message: message}
}

// NewNotFound reports a missing resource.
func NewNotFound(message string) *CustomError {
	return &CustomError{Status: 404, Code: CodeNotFound, Message: message}
}

// NewConflict reports an upsert collision that survived a retry.
func NewConflict(message string) *CustomError {
	return &CustomError{Status: 409, Code: CodeConflict, Message: message}
}

// NewUpstreamUnavailable reports an analysis collaborator failure.
func NewUpstreamUnavailable(message string) *CustomError {
	return &CustomError{Status: 502, Code: CodeUpstreamUnavailable, Message: message}
}

// NewUpstreamTimeout reports an analysis collaborator timeout.
func NewUpstreamTimeout(message string) *CustomError {
	return &CustomError{Status: 504, Code: CodeUpstreamTimeout, Message: message}
}

// NewRequestCancelled reports a client-initiated cancellation.
func NewRequestCancelled(message string) *CustomError {
	return &CustomError{Status: 499, Code: CodeRequestCancelled, Message: message}
}
