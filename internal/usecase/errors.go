package usecase

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrorInvalidBody         ErrorCode = "INVALID_BODY"
	ErrorMissingProvider     ErrorCode = "MISSING_PROVIDER"
	ErrorUnsupportedProvider ErrorCode = "UNSUPPORTED_PROVIDER"
	ErrorMissingContent      ErrorCode = "MISSING_CONTENT"
	ErrorMissingCredential   ErrorCode = "MISSING_CREDENTIAL"
	ErrorUpstream            ErrorCode = "UPSTREAM_ERROR"
	ErrorInternal            ErrorCode = "INTERNAL_ERROR"
)

// Error is a classified bridge failure. Status is the HTTP status returned to
// the caller and Message is the text of the error envelope.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("usecase: %s (%d): %s: %v", e.Code, e.Status, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) HTTPStatusCode() int {
	return e.Status
}

func newError(code ErrorCode, status int, message string, err error) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

func invalidBody(message string, err error) *Error {
	return newError(ErrorInvalidBody, http.StatusBadRequest, message, err)
}

func missingCredential(name string) *Error {
	return newError(ErrorMissingCredential, http.StatusInternalServerError, "Missing "+name+" server secret", nil)
}

func internalError(err error) *Error {
	return newError(ErrorInternal, http.StatusInternalServerError, err.Error(), err)
}

// upstreamError keeps the upstream status so the caller sees it unchanged.
func upstreamError(label string, status int, body string, err error) *Error {
	return newError(ErrorUpstream, status, fmt.Sprintf("%s error %d: %s", label, status, body), err)
}
