package stream

import (
	"testing"
)

func TestFanoutDeliversToAllSubscribers(t *testing.T) {
	f := NewFanout[int]()
	a := f.Subscribe()
	b := f.Subscribe()

	f.Publish(1)
	f.Publish(2)

	for _, sub := range []*Subscription[int]{a, b} {
		if got := <-sub.C(); got != 1 {
			t.Fatalf("first value = %d, want 1", got)
		}
		if got := <-sub.C(); got != 2 {
			t.Fatalf("second value = %d, want 2", got)
		}
	}
}

func TestFanoutZeroSubscribersDropsSilently(t *testing.T) {
	f := NewFanout[int]()
	f.Publish(42) // must not block or panic
	if n := f.SubscriberCount(); n != 0 {
		t.Fatalf("subscriber count = %d, want 0", n)
	}
}

func TestFanoutSlowSubscriberLagsWithoutStallingPeers(t *testing.T) {
	f := NewFanout[int]()
	slow := f.Subscribe()
	fast := f.Subscribe()

	// Overfill the slow subscriber's buffer while the fast one drains.
	published := subscriberBuffer * 3
	got := make(chan int, published)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for v := range fast.C() {
			got <- v
		}
	}()

	for i := 1; i <= published; i++ {
		f.Publish(i)
	}
	f.Close()
	<-done

	if lag := slow.Lagged(); lag == 0 {
		t.Fatal("slow subscriber should have recorded lag")
	}
	// Lagged resets on read.
	if lag := slow.Lagged(); lag != 0 {
		t.Fatalf("lag counter should reset after read, got %d", lag)
	}

	// Whatever the slow subscriber does receive must still be in order.
	prev := 0
	for v := range slow.C() {
		if v <= prev {
			t.Fatalf("out-of-order delivery: %d after %d", v, prev)
		}
		prev = v
	}
}

func TestFanoutCloseSignalsStreamEnd(t *testing.T) {
	f := NewFanout[int]()
	sub := f.Subscribe()
	f.Close()
	if _, ok := <-sub.C(); ok {
		t.Fatal("channel should be closed after fanout close")
	}
}

func TestSubscriptionCloseDetaches(t *testing.T) {
	f := NewFanout[int]()
	sub := f.Subscribe()
	sub.Close()
	if n := f.SubscriberCount(); n != 0 {
		t.Fatalf("subscriber count = %d after close, want 0", n)
	}
	// Double close must be safe.
	sub.Close()
}
