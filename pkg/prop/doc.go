// Package prop implements write-back cached document properties with
// synchronous change notification.
//
// A [Property] lazily reads its value from a [Binding] on first access,
// lets the owner mutate the in-memory copy cheaply, tracks divergence
// from storage with a dirty flag, hands the pending value to the save
// path exactly once per change, and replays the current state to every
// new subscriber.
//
// The package assumes the single-threaded cooperative model of a
// document editor: every operation runs synchronously on the owning
// goroutine, notifications are fully delivered before the mutating call
// returns, and nothing here locks. A Property is exclusively owned by
// one document and must not be shared across documents.
//
// There is no implicit subscription cleanup. Every [Property.Subscribe]
// must be paired with an explicit [Property.Unsubscribe] on every exit
// path of the subscriber's own lifetime.
package prop
