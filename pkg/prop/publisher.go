package prop

// Token identifies one subscription on one Publisher.
//
// Tokens are only meaningful on the publisher that issued them. A token
// stays valid (removable) no matter how many other tokens have been
// removed in the meantime.
type Token uint64

// Publisher fans a published state out to every live subscriber,
// synchronously, in subscription order, on the calling goroutine.
//
// The zero value is ready to use. A Publisher is not safe for
// concurrent use.
type Publisher[V any] struct {
	next Token

	// slots holds subscriptions in registration order. Removed entries
	// stay behind as tombstones (nil fn) so the positions recorded in
	// index never move under a token; tombstones are dropped by
	// compact once they outnumber live entries.
	slots []subscription[V]

	// index maps live tokens to their position in slots.
	index map[Token]int

	// publishing counts nested Publish calls. Compaction is deferred
	// while a fan-out walk is in progress.
	publishing int
}

type subscription[V any] struct {
	token Token
	fn    func(State[V])
}

// compactMinTombstones is the tombstone count below which compaction is
// never attempted. Avoids churn for publishers with a handful of
// short-lived subscriptions.
const compactMinTombstones = 8

// Subscribe registers fn and returns its token.
//
// fn is invoked for every future Publish until the token is passed to
// [Publisher.Unsubscribe]. Nothing removes subscriptions implicitly.
// Panics if fn is nil.
func (p *Publisher[V]) Subscribe(fn func(State[V])) Token {
	if fn == nil {
		panic("prop: subscriber is nil")
	}

	if p.index == nil {
		p.index = make(map[Token]int)
	}

	tok := p.next
	p.next++

	p.index[tok] = len(p.slots)
	p.slots = append(p.slots, subscription[V]{token: tok, fn: fn})

	return tok
}

// Unsubscribe removes the subscription identified by tok.
//
// Removal is idempotent: unknown and already-removed tokens are no-ops.
// Other subscriptions keep their tokens and their delivery order.
func (p *Publisher[V]) Unsubscribe(tok Token) {
	i, ok := p.index[tok]
	if !ok {
		return
	}

	delete(p.index, tok)
	p.slots[i].fn = nil

	p.compact()
}

// HasSubscribers reports whether at least one subscription is live.
//
// Publishing with zero subscribers is always safe and a no-op; this is
// only a hint for callers that want to skip building a state they would
// throw away.
func (p *Publisher[V]) HasSubscribers() bool {
	return len(p.index) > 0
}

// Publish delivers state to every live subscriber in subscription
// order.
//
// Delivery is fully synchronous: every subscriber has been called by
// the time Publish returns. Subscribers added during delivery do not
// receive the in-flight state; subscribers removed during delivery are
// skipped if they have not been reached yet.
func (p *Publisher[V]) Publish(state State[V]) {
	p.publishing++

	// Bound the walk to the subscriptions that existed when delivery
	// started; appends during fan-out must not extend it.
	n := len(p.slots)

	for i := range n {
		if fn := p.slots[i].fn; fn != nil {
			fn(state)
		}
	}

	p.publishing--

	p.compact()
}

// compact drops tombstoned slots once they outnumber live ones and
// rebuilds the token index. No-op while a Publish walk is in progress,
// since positions must stay stable under the walk.
func (p *Publisher[V]) compact() {
	if p.publishing > 0 {
		return
	}

	dead := len(p.slots) - len(p.index)
	if dead < compactMinTombstones || dead <= len(p.index) {
		return
	}

	live := p.slots[:0]

	for _, s := range p.slots {
		if s.fn != nil {
			live = append(live, s)
		}
	}

	// Zero the tail so dropped callbacks are not kept reachable.
	for i := len(live); i < len(p.slots); i++ {
		p.slots[i] = subscription[V]{}
	}

	p.slots = live

	for i, s := range p.slots {
		p.index[s.token] = i
	}
}
