package prop

import "fmt"

// Flusher is a save listener: one component that may have pending data
// to write at a save boundary.
//
// Every [Property] is a Flusher.
type Flusher interface {
	// Flush writes any pending value to storage. A listener with
	// nothing pending returns nil without touching storage.
	Flush() error
}

// Saver collects the save listeners of one open document and flushes
// them at save boundaries.
//
// The registration list is append-only for the document's open
// lifetime; registration order is flush order. The zero value is ready
// to use. A Saver is not safe for concurrent use.
type Saver struct {
	listeners []Flusher
}

// Register appends f to the flush list. Panics if f is nil.
func (s *Saver) Register(f Flusher) {
	if f == nil {
		panic("prop: flusher is nil")
	}

	s.listeners = append(s.listeners, f)
}

// Len returns the number of registered listeners.
func (s *Saver) Len() int {
	return len(s.listeners)
}

// FlushAll flushes every registered listener in registration order.
//
// On the first failure FlushAll returns that failure immediately and
// leaves the remaining listeners untouched: they stay dirty and are
// retried by the next save. Listeners flushed before the failure stay
// flushed; there is no rollback.
func (s *Saver) FlushAll() error {
	for i, f := range s.listeners {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flushing save listener %d: %w", i, err)
		}
	}

	return nil
}
