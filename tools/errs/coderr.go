package errs

import (
	"errors"
	"strconv"
	"strings"
)

// CodeError is the wire-facing error shape: a stable numeric code plus a
// short message, with an optional detail that never leaves the server logs.
type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

// WithDetail returns a copy carrying extra context; the original registered
// error value stays untouched so errors.Is keeps working.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

func (e *CodeError) Is(err error) bool {
	var ce *CodeError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == e.Code
}

// Registered errors, one per failure class of the gateway/worker pipeline.
var (
	ErrAuth            = NewCodeError(1101, "invalid or missing token")
	ErrProtocol        = NewCodeError(1102, "malformed frame")
	ErrUnauthenticated = NewCodeError(1103, "authentication required")
	ErrQueue           = NewCodeError(1201, "message queue unavailable")
	ErrDuplicate       = NewCodeError(1301, "duplicate message id")
	ErrNotFound        = NewCodeError(1302, "record not found")
)
