package prop_test

import (
	"testing"

	"github.com/calvinalkan/docprop/pkg/prop"
)

func Test_Publish_Delivers_In_Subscription_Order(t *testing.T) {
	t.Parallel()

	var pub prop.Publisher[int]

	var order []string

	pub.Subscribe(func(prop.State[int]) { order = append(order, "a") })
	pub.Subscribe(func(prop.State[int]) { order = append(order, "b") })
	pub.Subscribe(func(prop.State[int]) { order = append(order, "c") })

	pub.Publish(prop.State[int]{Value: 1})

	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("order = %v, want [a b c]", order)
	}
}

func Test_Publish_With_Zero_Subscribers_Is_Noop(t *testing.T) {
	t.Parallel()

	var pub prop.Publisher[string]

	if pub.HasSubscribers() {
		t.Fatal("HasSubscribers() = true on empty publisher")
	}

	pub.Publish(prop.State[string]{Value: "nobody listening"})
}

func Test_Tokens_Stay_Valid_After_Other_Removals(t *testing.T) {
	t.Parallel()

	var pub prop.Publisher[int]

	var got []string

	tokA := pub.Subscribe(func(prop.State[int]) { got = append(got, "a") })
	tokB := pub.Subscribe(func(prop.State[int]) { got = append(got, "b") })
	tokC := pub.Subscribe(func(prop.State[int]) { got = append(got, "c") })

	pub.Unsubscribe(tokA)
	pub.Unsubscribe(tokC)

	pub.Publish(prop.State[int]{})

	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("deliveries = %v, want [b]", got)
	}

	// tokB must still be removable after its neighbors are gone.
	pub.Unsubscribe(tokB)

	if pub.HasSubscribers() {
		t.Fatal("HasSubscribers() = true after removing all tokens")
	}
}

func Test_Unsubscribe_Is_Idempotent(t *testing.T) {
	t.Parallel()

	var pub prop.Publisher[int]

	calls := 0

	tok := pub.Subscribe(func(prop.State[int]) { calls++ })

	pub.Unsubscribe(tok)
	pub.Unsubscribe(tok)
	pub.Unsubscribe(prop.Token(999)) // never issued

	pub.Publish(prop.State[int]{})

	if calls != 0 {
		t.Fatalf("calls = %d, want 0", calls)
	}
}

func Test_Subscriber_Added_During_Publish_Not_Invoked_For_Inflight_State(t *testing.T) {
	t.Parallel()

	var pub prop.Publisher[int]

	lateCalls := 0

	pub.Subscribe(func(prop.State[int]) {
		pub.Subscribe(func(prop.State[int]) { lateCalls++ })
	})

	pub.Publish(prop.State[int]{Value: 1})

	if lateCalls != 0 {
		t.Fatalf("late subscriber deliveries = %d, want 0", lateCalls)
	}

	pub.Publish(prop.State[int]{Value: 2})

	if lateCalls != 1 {
		t.Fatalf("late subscriber deliveries = %d, want 1 on next publish", lateCalls)
	}
}

func Test_Subscriber_Removed_During_Publish_Is_Skipped(t *testing.T) {
	t.Parallel()

	var pub prop.Publisher[int]

	var tokB prop.Token

	bCalls := 0

	pub.Subscribe(func(prop.State[int]) { pub.Unsubscribe(tokB) })
	tokB = pub.Subscribe(func(prop.State[int]) { bCalls++ })

	pub.Publish(prop.State[int]{})

	if bCalls != 0 {
		t.Fatalf("removed subscriber deliveries = %d, want 0", bCalls)
	}
}

func Test_Delivery_Order_Preserved_Across_Compaction(t *testing.T) {
	t.Parallel()

	var pub prop.Publisher[int]

	const churn = 64

	// Build up enough tombstones to trigger compaction.
	for range churn {
		tok := pub.Subscribe(func(prop.State[int]) {})
		pub.Unsubscribe(tok)
	}

	var order []int

	var keep []prop.Token

	for i := range 4 {
		keep = append(keep, pub.Subscribe(func(prop.State[int]) { order = append(order, i) }))
	}

	// More churn after the survivors exist.
	for range churn {
		tok := pub.Subscribe(func(prop.State[int]) {})
		pub.Unsubscribe(tok)
	}

	pub.Publish(prop.State[int]{})

	if len(order) != 4 {
		t.Fatalf("deliveries = %d, want 4", len(order))
	}

	for i, got := range order {
		if got != i {
			t.Fatalf("order = %v, want [0 1 2 3]", order)
		}
	}

	// Survivor tokens remain removable after compaction moved them.
	for _, tok := range keep {
		pub.Unsubscribe(tok)
	}

	if pub.HasSubscribers() {
		t.Fatal("HasSubscribers() = true after removing survivors")
	}
}

func Test_Subscribe_Panics_When_Callback_Nil(t *testing.T) {
	t.Parallel()

	var pub prop.Publisher[int]

	if !mustPanic(func() { pub.Subscribe(nil) }) {
		t.Fatal("Subscribe(nil) did not panic")
	}
}
