package smodel

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is; the concrete errors below carry location details.
var (
	ErrIO          = errors.New("smodel: io error")
	ErrParse       = errors.New("smodel: parse error")
	ErrLookup      = errors.New("smodel: model not found")
	ErrImportCycle = errors.New("smodel: file already exists in workspace")
)

// ParseError reports a failure while interpreting one file. Line is 0 when the failure is not
// tied to a token (for example end of input).
type ParseError struct {
	File  string
	Line  int
	Token string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	msg := fmt.Sprintf("smodel: %s: %s", loc, e.Msg)
	if e.Token != "" {
		msg += fmt.Sprintf(" (at %q)", e.Token)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

// IOError reports a model file that could not be read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("smodel: open %s: %v", e.Path, e.Err)
}

func (e *IOError) Is(target error) bool { return target == ErrIO }

func (e *IOError) Unwrap() error { return e.Err }
