package quote

import "fmt"

// Code is the discriminator reported to callers when a quote is refused.
type Code string

const (
	CodeInvalidDuration       Code = "InvalidDuration"
	CodeUnknownClassification Code = "UnknownClassification"
	CodeUnknownBorderType     Code = "UnknownBorderType"
	CodeInvalidRequest        Code = "InvalidRequest"
)

// Error is a refused quote request. Errors are deterministic; retrying the
// same request fails the same way.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

// Is matches any *Error with the same code, so errors.Is works against the
// sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidDuration       = &Error{Code: CodeInvalidDuration}
	ErrUnknownClassification = &Error{Code: CodeUnknownClassification}
	ErrUnknownBorderType     = &Error{Code: CodeUnknownBorderType}
	ErrInvalidRequest        = &Error{Code: CodeInvalidRequest}
)

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
