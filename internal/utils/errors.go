package utils

import "strings"

// AppError carries the failing operation alongside a message meant for
// operators. Op uses dotted "component.action" form for log filtering.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError wraps err with an operation and operator-facing message.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}
