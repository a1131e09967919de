package domain

import "fmt"

// Business error codes carried in the response envelope. The transport
// status stays 200 for business outcomes; clients branch on Code.
const (
	CodeOK               = 200
	CodeBadRequest       = 400
	CodeAuthentication   = 401
	CodePermissionDenied = 403
	CodeNotFound         = 404
	CodeConflict         = 409
	CodeValidation       = 422
	CodeServerError      = 500
	CodeExternalAPI      = 502
)

// Error is the application error type. Every business failure is raised
// as an *Error; the handler boundary translates it into the envelope.
type Error struct {
	Code    int
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AuthenticationError reports a failed credential or token check.
func AuthenticationError(message string) *Error {
	if message == "" {
		message = "authentication failed"
	}
	return &Error{Code: CodeAuthentication, Message: message}
}

// PermissionDenied reports an operation the caller is not allowed to do,
// including logins against deactivated accounts.
func PermissionDenied(message string) *Error {
	if message == "" {
		message = "permission denied"
	}
	return &Error{Code: CodePermissionDenied, Message: message}
}

// NotFound reports a missing resource.
func NotFound(resource string) *Error {
	return &Error{Code: CodeNotFound, Message: resource + " not found"}
}

// Conflict reports a uniqueness or state conflict.
func Conflict(resource string) *Error {
	return &Error{Code: CodeConflict, Message: resource + " already exists"}
}

// ValidationError reports field-level validation failures.
func ValidationError(fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: "validation failed", Fields: fields}
}

// APIError reports a failure talking to an external service. The name of
// the failing API is part of the message so operators can tell providers
// apart in logs.
func APIError(api string, err error) *Error {
	return &Error{Code: CodeExternalAPI, Message: api + " request failed", Err: err}
}

// Internal wraps an unexpected error. The wrapped error is logged but
// never exposed to the client.
func Internal(err error) *Error {
	return &Error{Code: CodeServerError, Message: "internal server error", Err: err}
}
