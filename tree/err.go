package tree

import (
	"errors"

	"github.com/ezrec/archreg/translate"
)

var f = translate.From

var (
	ErrNameEmpty     = errors.New(f("name empty"))
	ErrNameInvalid   = errors.New(f("name invalid"))
	ErrNameReserved  = errors.New(f("name reserved"))
	ErrNameDuplicate = errors.New(f("name duplicated"))
	ErrPhase         = errors.New(f("invalid in current phase"))
	ErrNotRoot       = errors.New(f("not a root node"))
)

// ErrNode indicates the tree location of a node error.
type ErrNode struct {
	Location string
	Err      error
}

func (err *ErrNode) Error() string {
	return f("%v: %v", err.Location, err.Err)
}

func (err *ErrNode) Unwrap() error {
	return err.Err
}

// ErrName reports an unacceptable node name.
type ErrName struct {
	Name string
	Err  error
}

func (err *ErrName) Error() string {
	return f("'%v' %v", err.Name, err.Err)
}

func (err *ErrName) Unwrap() error {
	return err.Err
}
