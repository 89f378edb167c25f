// Package goerror defines the application error value carried from usecases to
// the HTTP layer, where it is rendered with a stable status code.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

// Repository sentinels. Outbound adapters translate driver errors into these.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")
)

// Type groups errors by who is at fault.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier mapped to an HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
	// CodeInvalidOrExpired covers one-time codes, reset grants and links that
	// are wrong, used or past their expiry. Callers cannot tell which.
	CodeInvalidOrExpired
	// CodeWeakCredential rejects a new secret that fails the password policy.
	CodeWeakCredential
	// CodeDeliveryFailed reports that an outbound message (email) could not be sent.
	CodeDeliveryFailed
)

var codeInfo = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:         {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:    {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:     {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:         {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:         {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTooManyRequest:   {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:     {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:        {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeTimeout:          {"ERROR_CODE_TIMEOUT", http.StatusRequestTimeout},
	CodeInvalidOrExpired: {"ERROR_CODE_INVALID_OR_EXPIRED", http.StatusBadRequest},
	CodeWeakCredential:   {"ERROR_CODE_WEAK_CREDENTIAL", http.StatusUnprocessableEntity},
	CodeDeliveryFailed:   {"ERROR_CODE_DELIVERY_FAILED", http.StatusBadGateway},
}

func (c Code) String() string {
	if info, ok := codeInfo[c]; ok {
		return info.name
	}
	return codeInfo[CodeInternal].name
}

// Error is the structured application error.
//
// msg is safe to show to clients. err is the wrapped cause and is only logged.
// fields carries per-field validation messages and meta carries extra response
// metadata such as retry hints.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
	meta    map[string]any
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	case e.errType == TypeValidation:
		return "Validation violation"
	case e.errType == TypeBusiness:
		return "Business rule violation"
	default:
		return "Internal error"
	}
}

// String is a verbose form for logs.
func (e *Error) String() string {
	return fmt.Sprintf("type=%s code=%s msg=%q cause=%v", e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string { return e.msg }
func (e *Error) Type() Type { return e.errType }
func (e *Error) Code() Code { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Meta() map[string]any { return e.meta }
func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the error code to an HTTP status.
func (e *Error) StatusCode() int {
	if info, ok := codeInfo[e.code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// WithMeta returns a copy of e carrying an extra response meta entry.
func (e *Error) WithMeta(key string, value any) *Error {
	cp := *e
	cp.meta = make(map[string]any, len(e.meta)+1)
	for k, v := range e.meta {
		cp.meta[k] = v
	}
	cp.meta[key] = value

	return &cp
}

// WithField returns a copy of e carrying an extra per-field message.
func (e *Error) WithField(field, msg string) *Error {
	cp := *e
	cp.fields = make(map[string]string, len(e.fields)+1)
	for k, v := range e.fields {
		cp.fields[k] = v
	}
	cp.fields[field] = msg

	return &cp
}

func newError(err error, msg string, et Type, code Code) *Error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer wraps an infrastructure failure. Clients only see a generic message.
func NewServer(err error) error {
	return newError(err, "Internal server error", TypeServer, CodeInternal)
}

// NewBusiness builds a rule violation with a client-facing message.
func NewBusiness(msg string, code Code) error {
	return newError(nil, msg, TypeBusiness, code)
}

// NewBusinessCause is NewBusiness that also keeps the underlying cause for logs.
func NewBusinessCause(err error, msg string, code Code) error {
	return newError(err, msg, TypeBusiness, code)
}

// NewInvalidInput wraps a validator error, or builds one from field/message pairs.
// An odd number of pairs is treated as a malformed request.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return newError(err, "Validation error", TypeValidation, CodeInvalidInput)
	}

	if len(kv)%2 != 0 {
		return newError(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}

	e := newError(nil, "Validation error", TypeValidation, CodeInvalidInput)
	e.fields = make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		e.fields[kv[i]] = kv[i+1]
	}

	return e
}

// NewInvalidFormat reports a body, query or param that could not be parsed.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return newError(nil, msg, TypeValidation, CodeInvalidFormat)
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeInternal
}

// WithMeta attaches response meta to the first *Error in err's chain. Other
// errors are returned unchanged.
func WithMeta(err error, key string, value any) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	return e.WithMeta(key, value)
}

// WithField attaches a per-field message to the first *Error in err's chain.
func WithField(err error, field, msg string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	return e.WithField(field, msg)
}
