// Package notify provides synchronous notification sources.
//
// A Source dispatches a payload to its observers in registration order on
// the calling goroutine. Producers test Observed before assembling a payload,
// so an unobserved Source costs a single length check.
package notify

import (
	"slices"
)

// ObserverID identifies a registered observer for later removal.
type ObserverID int

type observer[P any] struct {
	id ObserverID
	fn func(payload *P)
}

// Source is a named notification channel carrying payloads of type P.
// The payload pointer handed to observers is only valid during the call.
type Source[P any] struct {
	name      string
	observers []observer[P]
	nextID    ObserverID
}

// NewSource creates a notification source.
func NewSource[P any](name string) *Source[P] {
	return &Source[P]{name: name}
}

// Name of the notification channel.
func (src *Source[P]) Name() string {
	return src.name
}

// Observed returns true if at least one observer is registered.
func (src *Source[P]) Observed() bool {
	return len(src.observers) != 0
}

// Observers returns the count of registered observers.
func (src *Source[P]) Observers() int {
	return len(src.observers)
}

// Observe registers fn to be called on every notification.
func (src *Source[P]) Observe(fn func(payload *P)) (id ObserverID) {
	src.nextID++
	id = src.nextID
	src.observers = append(src.observers, observer[P]{id: id, fn: fn})
	return
}

// Remove deregisters an observer. Returns false if id is not registered.
func (src *Source[P]) Remove(id ObserverID) bool {
	n := slices.IndexFunc(src.observers, func(ob observer[P]) bool { return ob.id == id })
	if n < 0 {
		return false
	}

	// A fresh slice keeps an in-flight Notify iterating the old list.
	src.observers = slices.Concat(src.observers[:n], src.observers[n+1:])
	return true
}

// Notify calls every observer with payload.
func (src *Source[P]) Notify(payload *P) {
	for _, ob := range src.observers {
		ob.fn(payload)
	}
}
