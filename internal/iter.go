// Package internal holds iterator helpers shared by the archreg packages.
package internal

import (
	"iter"
)

// Concat yields every value of each sequence in turn.
func Concat[T any](seqs ...iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, seq := range seqs {
			for val := range seq {
				if !yield(val) {
					return
				}
			}
		}
	}
}

// Map yields fn applied to each value of seq.
func Map[T any, U any](seq iter.Seq[T], fn func(T) U) iter.Seq[U] {
	return func(yield func(U) bool) {
		for val := range seq {
			if !yield(fn(val)) {
				return
			}
		}
	}
}

// FlatMap yields every value of the slice fn returns for each value of seq.
func FlatMap[T any, U any](seq iter.Seq[T], fn func(T) []U) iter.Seq[U] {
	return func(yield func(U) bool) {
		for val := range seq {
			for _, out := range fn(val) {
				if !yield(out) {
					return
				}
			}
		}
	}
}
