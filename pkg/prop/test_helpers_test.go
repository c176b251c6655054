package prop_test

import (
	"github.com/calvinalkan/docprop/pkg/prop"
)

// fakeBinding is an in-memory Binding with injectable failures and
// call counting.
type fakeBinding[V any] struct {
	value    V
	readErr  error
	writeErr error

	reads  int
	writes []V
}

func (b *fakeBinding[V]) Read() (V, error) {
	b.reads++

	if b.readErr != nil {
		var zero V

		return zero, b.readErr
	}

	return b.value, nil
}

func (b *fakeBinding[V]) Write(v V) error {
	if b.writeErr != nil {
		return b.writeErr
	}

	b.writes = append(b.writes, v)
	b.value = v

	return nil
}

// recorder collects every state delivered to a subscriber.
type recorder[V any] struct {
	states []prop.State[V]
}

func (r *recorder[V]) callback(st prop.State[V]) {
	r.states = append(r.states, st)
}

// mustPanic runs fn and returns true if it panicked.
func mustPanic(fn func()) (panicked bool) {
	defer func() {
		if recover() != nil {
			panicked = true
		}
	}()

	fn()

	return false
}
