package regdef

import (
	"errors"

	"github.com/ezrec/archreg/translate"
)

var f = translate.From

var (
	ErrArgType     = errors.New(f("argument type invalid"))
	ErrArgRange    = errors.New(f("argument out of range"))
	ErrFieldType   = errors.New(f("fields must be made by field()"))
	ErrLineSize    = errors.New(f("line_size must be an integer"))
	ErrInitialWide = errors.New(f("initial value wider than register"))
	ErrUnhashable  = errors.New(f("field values are unhashable"))
)

// ErrScript indicates the script that failed to load.
type ErrScript struct {
	Filename string
	Err      error
}

func (err *ErrScript) Error() string {
	return f("%v: %v", err.Filename, err.Err)
}

func (err *ErrScript) Unwrap() error {
	return err.Err
}

// ErrArg indicates the builtin argument that was rejected.
type ErrArg struct {
	Builtin string
	Arg     string
	Err     error
}

func (err *ErrArg) Error() string {
	return f("%v: %v: %v", err.Builtin, err.Arg, err.Err)
}

func (err *ErrArg) Unwrap() error {
	return err.Err
}
