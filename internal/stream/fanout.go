// Package stream implements C5, the Stream Manager: capture, encode, and
// broadcast as three concurrent stages connected by bounded queues, with
// per-subscriber fan-out, running statistics, and an optional adaptive
// bitrate loop.
package stream

import (
	"sync"
	"sync/atomic"

	"github.com/kestrelremote/bridge/internal/logging"
)

var log = logging.L("stream")

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls further behind than this has its oldest pending frames replaced by
// newer ones and its lag counter incremented.
const subscriberBuffer = 16

// Fanout is a single-writer broadcast: the Broadcast stage publishes, N
// subscribers each read from their own buffered channel. A slow subscriber
// is never allowed to stall the writer or its peers; instead its oldest
// queued frame is discarded to make room and its lag count grows.
type Fanout[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscription[T]]struct{}
	closed bool
}

// Subscription is one reader's view of a Fanout.
type Subscription[T any] struct {
	parent *Fanout[T]
	ch     chan T
	lagged atomic.Uint64
	once   sync.Once
}

func NewFanout[T any]() *Fanout[T] {
	return &Fanout[T]{subs: make(map[*Subscription[T]]struct{})}
}

// Subscribe registers a new reader. The returned Subscription must be
// Closed when the reader is done or the writer will keep filling its
// buffer.
func (f *Fanout[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{parent: f, ch: make(chan T, subscriberBuffer)}
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		close(sub.ch)
		return sub
	}
	f.subs[sub] = struct{}{}
	f.mu.Unlock()
	return sub
}

// Publish delivers v to every current subscriber. With zero subscribers the
// value is silently dropped. A full subscriber buffer sheds its oldest
// entry to admit the new one, counting the shed frame as lag for that
// subscriber only.
func (f *Fanout[T]) Publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs {
		select {
		case sub.ch <- v:
		default:
			// Shed the oldest queued value. The drain and the re-send both
			// race only against the subscriber's own reads, never against
			// another writer: Publish has a single caller.
			select {
			case <-sub.ch:
				sub.lagged.Add(1)
			default:
			}
			select {
			case sub.ch <- v:
			default:
				sub.lagged.Add(1)
			}
		}
	}
}

// SubscriberCount reports how many readers are attached.
func (f *Fanout[T]) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close detaches all subscribers and closes their channels, signalling
// stream-end to every reader.
func (f *Fanout[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for sub := range f.subs {
		close(sub.ch)
		delete(f.subs, sub)
	}
}

// C returns the receive channel. It is closed when the Fanout closes or
// the Subscription is Closed.
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Lagged returns how many values this subscriber missed because it could
// not keep up, and resets the counter so callers can report incremental
// drops.
func (s *Subscription[T]) Lagged() uint64 { return s.lagged.Swap(0) }

// Close detaches the subscription from its Fanout.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.parent.mu.Lock()
		if _, ok := s.parent.subs[s]; ok {
			delete(s.parent.subs, s)
			close(s.ch)
		}
		s.parent.mu.Unlock()
	})
}
