package prop

// Property is a write-back cached value backed by persistent storage.
//
// The first access reads the value through the property's [Binding] and
// memoizes the outcome, success or failure. Later accesses return the
// memoized result without touching storage. [Property.Set] and
// [Property.Mutate] update only the in-memory copy and mark the
// property dirty; the pending value reaches storage when the save path
// calls [Property.Flush].
//
// Every change is delivered synchronously to all subscribers in
// subscription order before the mutating call returns.
//
// A Property must be obtained via [New]; the zero value is not usable.
// It is exclusively owned by one document and is not safe for
// concurrent use.
type Property[V any] struct {
	_ [0]func() // prevent external construction

	binding Binding[V]

	// onDirty is the owner's "I have unsaved state" hook. Never used to
	// pull data; may be nil.
	onDirty func()

	pub    Publisher[V]
	state  State[V]
	cached bool
	dirty  bool

	// notifying counts in-flight deliveries. Non-zero while subscriber
	// callbacks run; guards against reentrant mutation, which has no
	// defined delivery order. A counter, not a bool: a nested Subscribe
	// replay must not disarm the guard for the outer fan-out.
	notifying int
}

// New creates a property backed by binding.
//
// onDirty, if non-nil, is called synchronously every time the property
// becomes modified, before subscribers are notified, so the owner can
// mark itself as having unsaved state. Panics if binding is nil.
func New[V any](binding Binding[V], onDirty func()) *Property[V] {
	if binding == nil {
		panic("prop: binding is nil")
	}

	return &Property[V]{binding: binding, onDirty: onDirty}
}

// Value returns the current value, reading it from storage on first
// access.
//
// The first call performs exactly one Binding.Read and memoizes the
// outcome. A failed read is memoized exactly like a successful one:
// repeated calls return the identical failure without retrying storage
// until [Property.Invalidate] discards it.
func (p *Property[V]) Value() (V, error) {
	st := p.current()

	return st.Value, st.Err
}

// Dirty reports whether the in-memory value has diverged from storage.
func (p *Property[V]) Dirty() bool {
	return p.dirty
}

// Set replaces the in-memory value and marks the property dirty.
//
// The owner dirty-hook fires first, then all subscribers are notified
// with the new value; both happen synchronously before Set returns. No
// storage I/O occurs.
//
// Panics if called from inside one of this property's own subscriber
// callbacks.
func (p *Property[V]) Set(v V) {
	p.assertNotNotifying("Set")

	p.state = State[V]{Value: v, Source: SourceModified}
	p.cached = true
	p.dirty = true

	if p.onDirty != nil {
		p.onDirty()
	}

	p.publish(p.state)
}

// Mutate applies f to the current value and stores the result via the
// same path as [Property.Set].
//
// If the property is in a failed state f does not run; the memoized
// failure is re-published to subscribers unchanged.
//
// Panics if called from inside one of this property's own subscriber
// callbacks.
func (p *Property[V]) Mutate(f func(V) V) {
	p.assertNotNotifying("Mutate")

	st := p.current()
	if st.Err != nil {
		p.publish(st)

		return
	}

	p.Set(f(st.Value))
}

// Clean hands the pending value to the save path.
//
// If the property is dirty, Clean clears the dirty flag, retags the
// memoized value as persisted, and returns (value, true). Otherwise it
// returns (zero, false). Clean performs no I/O; the caller writes the
// returned value. Until another Set or Mutate, a second Clean returns
// false, so each change is flushed at most once.
func (p *Property[V]) Clean() (V, bool) {
	if !p.dirty {
		var zero V

		return zero, false
	}

	p.dirty = false
	p.state.Source = SourcePersisted

	return p.state.Value, true
}

// Flush writes the pending value, if any, through the binding.
//
// A clean property flushes as a no-op without touching storage. On
// write failure the property stays clean: the value was already handed
// to storage, and re-marking it dirty would make a failed save look
// like a fresh unsaved edit. Callers that want to retry re-run the
// save after another change, or Set the value again.
func (p *Property[V]) Flush() error {
	v, ok := p.Clean()
	if !ok {
		return nil
	}

	return p.binding.Write(v)
}

// Invalidate discards the memoized result entirely so the next access
// re-reads storage. This is the only way to clear a memoized read
// failure.
//
// Calling Invalidate on a dirty property is a programming error and
// panics: it would silently drop an unsaved edit. Use
// [Property.Discard] to throw in-memory state away deliberately.
//
// If the property has subscribers, the freshly re-read state is
// published to them before Invalidate returns.
func (p *Property[V]) Invalidate() {
	p.assertNotNotifying("Invalidate")

	if p.dirty {
		panic("prop: Invalidate on dirty property; Flush or Discard first")
	}

	p.drop()
}

// Discard throws away the in-memory state entirely, including any
// un-flushed modification, so the next access re-reads storage. This is
// the reload-from-disk path; unlike [Property.Invalidate] it is legal
// on a dirty property.
//
// If the property has subscribers, the freshly re-read state is
// published to them before Discard returns.
func (p *Property[V]) Discard() {
	p.assertNotNotifying("Discard")

	p.dirty = false
	p.drop()
}

// Subscribe registers fn for change notifications and returns a token
// for [Property.Unsubscribe].
//
// fn is invoked once, synchronously, with the current state before
// Subscribe returns, so a new subscriber is never left without an
// initial value. On a cache miss this first delivery triggers the
// storage read.
//
// There is no implicit cleanup: the subscriber must call Unsubscribe
// with the returned token on every exit path of its own lifetime.
// Panics if fn is nil.
func (p *Property[V]) Subscribe(fn func(State[V])) Token {
	if fn == nil {
		panic("prop: subscriber is nil")
	}

	st := p.current()

	p.notify(func() { fn(st) })

	return p.pub.Subscribe(fn)
}

// Unsubscribe removes a subscription. Idempotent; unknown tokens are
// no-ops.
func (p *Property[V]) Unsubscribe(tok Token) {
	p.pub.Unsubscribe(tok)
}

// current returns the memoized state, populating it from storage if
// absent.
func (p *Property[V]) current() State[V] {
	if p.cached {
		return p.state
	}

	v, err := p.binding.Read()
	if err != nil {
		var zero V

		p.state = State[V]{Value: zero, Err: err, Source: SourcePersisted}
	} else {
		p.state = State[V]{Value: v, Source: SourcePersisted}
	}

	p.cached = true

	return p.state
}

// drop clears the slot and, if anyone is listening, re-reads and
// re-publishes the current state. Must only be called with dirty ==
// false.
func (p *Property[V]) drop() {
	p.cached = false
	p.state = State[V]{}

	if p.pub.HasSubscribers() {
		p.publish(p.current())
	}
}

// publish delivers st to all subscribers with the reentrancy guard
// held.
func (p *Property[V]) publish(st State[V]) {
	p.notify(func() { p.pub.Publish(st) })
}

func (p *Property[V]) notify(deliver func()) {
	p.notifying++
	defer func() { p.notifying-- }()

	deliver()
}

// assertNotNotifying rejects reentrant mutation from inside a
// subscriber callback. Reentrant Set has no defined delivery order, so
// it is refused loudly rather than guessed at.
func (p *Property[V]) assertNotNotifying(op string) {
	if p.notifying > 0 {
		panic("prop: " + op + " called from inside a subscriber callback")
	}
}
