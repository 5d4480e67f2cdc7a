package record

import (
	"errors"
	"fmt"
)

var (
	//ErrIOFailure the record path could not be opened or read
	ErrIOFailure = errors.New("io failure")
	//ErrMalformedRow a data line does not match the layout (field count or non numeric value)
	ErrMalformedRow = errors.New("malformed row")
	//ErrEmptyFile the file ends before the end of its header block
	ErrEmptyFile = errors.New("empty file")
	//ErrUnknownChannel the requested channel is not part of the record layout
	ErrUnknownChannel = errors.New("unknown channel")
)

//DecodeError reports why a record file could not be decoded. Cause is one of the sentinel errors above,
//Err holds the underlying error (if any). Line is 1-based, 0 if not applicable
type DecodeError struct {
	Path  string
	Line  int
	Cause error
	Err   error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode %v: %v", e.Path, e.Cause)
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %v", e.Line)
	}
	if e.Err != nil {
		msg += " : " + e.Err.Error()
	}
	return msg
}

//Unwrap allows errors.Is to match both the cause and the underlying error
func (e *DecodeError) Unwrap() []error {
	errs := []error{e.Cause}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func malformed(path string, line int, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Path: path, Line: line, Cause: ErrMalformedRow, Err: fmt.Errorf(format, args...)}
}

//resultLabel maps a decode outcome to the metrics label
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMalformedRow):
		return "malformed"
	case errors.Is(err, ErrEmptyFile):
		return "empty"
	default:
		return "io"
	}
}
