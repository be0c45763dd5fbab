package errors

// ErrorCode identifies a failure class. Callers branch on codes with HasCode
// and CodeOf rather than on message text.
type ErrorCode string

// Coded is satisfied by any error that reports an ErrorCode. HasCode and
// CodeOf recognise every Coded in a chain, not only errors built by a Factory.
type Coded interface {
	error
	Code() ErrorCode
}

// Error is the error type a Factory produces. WithMessage and WithData return
// copies; the receiver is never modified.
type Error interface {
	Coded
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory builds coded errors. Wrap keeps err reachable through Unwrap so
// errors.Is and HasCode see both the new code and the cause.
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
