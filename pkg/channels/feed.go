package channels

import (
	"sync"
	"sync/atomic"
	"time"
)

// subscriber holds a feed-owned channel and how long publishers wait on it.
type subscriber[T any] struct {
	ch      chan T
	wait    time.Duration // zero means non-blocking
	dropped atomic.Int32
}

func (s *subscriber[T]) send(msg T) bool {
	if err := Send(s.ch, msg, s.wait); err != nil {
		s.dropped.Add(1)
		return false
	}

	return true
}

// Feed delivers published messages to a changing set of subscribers.
//
// Unlike a fixed fan-out, subscribers may join and leave at any time. The
// feed owns every subscriber channel: it creates them on Subscribe and closes
// them on unsubscribe or Close, so publishers never send on a closed channel.
//
// Messages are sent to subscribers using the configured send strategy:
// - Non-blocking (default): Messages are dropped if channel is full
// - With timeout: Messages are dropped if send times out
type Feed[T any] struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscriber[T]
	nextID uint64
	buffer int
	closed bool
}

// NewFeed creates a feed whose subscriber channels hold up to buffer messages.
func NewFeed[T any](buffer int) *Feed[T] {
	if buffer < 0 {
		buffer = 0
	}

	return &Feed[T]{
		subs:   make(map[uint64]*subscriber[T]),
		buffer: buffer,
	}
}

// Subscribe registers a non-blocking subscriber. The returned function
// unsubscribes and closes the channel; it is safe to call more than once.
// Subscribing to a closed feed yields an already-closed channel.
func (f *Feed[T]) Subscribe() (<-chan T, func()) {
	return f.subscribe(0)
}

// SubscribeWithTimeout registers a subscriber that publishers wait on for up
// to timeout before dropping the message.
// A non-positive timeout behaves like Subscribe.
func (f *Feed[T]) SubscribeWithTimeout(timeout time.Duration) (<-chan T, func()) {
	return f.subscribe(max(timeout, 0))
}

func (f *Feed[T]) subscribe(wait time.Duration) (<-chan T, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan T, f.buffer)
	if f.closed {
		close(ch)
		return ch, func() {}
	}

	id := f.nextID
	f.nextID++
	f.subs[id] = &subscriber[T]{ch: ch, wait: wait}

	var once sync.Once

	return ch, func() {
		once.Do(func() { f.unsubscribe(id) })
	}
}

func (f *Feed[T]) unsubscribe(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub, ok := f.subs[id]
	if !ok {
		return
	}

	delete(f.subs, id)
	close(sub.ch)
}

// Publish sends msg to every current subscriber and returns how many
// received it. Publishing to a closed feed delivers nothing.
func (f *Feed[T]) Publish(msg T) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	delivered := 0
	for _, sub := range f.subs {
		if sub.send(msg) {
			delivered++
		}
	}

	return delivered
}

// Close closes every subscriber channel. Later subscriptions receive a
// closed channel.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	f.closed = true
	for id, sub := range f.subs {
		close(sub.ch)
		delete(f.subs, id)
	}
}

// Len returns the number of active subscribers.
func (f *Feed[T]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.subs)
}

// SubscriberStats counts what one subscriber missed because it was full
// or too slow to receive.
type SubscriberStats struct {
	Dropped int
}

// Stats reports per-subscriber drop counts, in no particular order.
func (f *Feed[T]) Stats() []SubscriberStats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	stats := make([]SubscriberStats, 0, len(f.subs))
	for _, sub := range f.subs {
		stats = append(stats, SubscriberStats{
			Dropped: int(sub.dropped.Load()),
		})
	}

	return stats
}
