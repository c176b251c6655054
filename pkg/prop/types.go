package prop

import "fmt"

// Source tags where the current value of a property came from.
type Source int

const (
	// SourcePersisted means the value is what storage last reported.
	SourcePersisted Source = iota

	// SourceModified means the value was changed in memory and storage
	// does not know about it yet.
	SourceModified
)

// String returns "persisted" or "modified".
func (s Source) String() string {
	switch s {
	case SourcePersisted:
		return "persisted"
	case SourceModified:
		return "modified"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// Binding connects a property to its persistent storage.
//
// Read loads the current persisted value. A missing backing blob is not
// an error: Read must return the value type's well-defined default
// instead. Write persists a value.
//
// Encoding and decoding are entirely the binding's concern; the
// property engine never inspects bytes.
//
// A binding is borrowed by the property for its lifetime, not owned.
type Binding[V any] interface {
	Read() (V, error)
	Write(v V) error
}

// State is the snapshot a property delivers to subscribers.
//
// If Err is non-nil the property is in a failed state and Value holds
// the zero value.
type State[V any] struct {
	Value  V
	Err    error
	Source Source
}
