package main

import (
	"errors"

	"github.com/ezrec/archreg/translate"
)

var f = translate.From

var (
	ErrAssignment = errors.New(f("assignment is not name=value"))
)

// ErrPoke describes a rejected -poke assignment.
type ErrPoke struct {
	Assign string
	Err    error
}

func (err *ErrPoke) Error() string {
	return f("'%v': %v", err.Assign, err.Err)
}

func (err *ErrPoke) Unwrap() error {
	return err.Err
}
