package utils

import (
	"sync/atomic"

	"github.com/sasha-s/go-deadlock"
)

// Topic fans every published value out to all subscribers. Each subscriber
// has its own bounded buffer; when it is full the oldest value is dropped
// so Publish never blocks.
type Topic[T any] struct {
	subscribers map[chan T]*Subscriber[T]
	buffer      int
	mutex       deadlock.Mutex
}

func NewTopic[T any](buffer int) *Topic[T] {
	if buffer < 1 {
		buffer = 1
	}

	return &Topic[T]{
		subscribers: make(map[chan T]*Subscriber[T]),
		buffer:      buffer,
	}
}

func (t *Topic[T]) Publish(value T) {
	t.mutex.Lock()
	for channel, subscriber := range t.subscribers {
		for {
			select {
			case channel <- value:
			default:
				// Full: evict the oldest and retry. The consumer may
				// have drained it in the meantime, which is fine too.
				select {
				case <-channel:
					subscriber.dropped.Add(1)
				default:
				}
				continue
			}
			break
		}
	}
	t.mutex.Unlock()
}

func (t *Topic[T]) NumSubscribers() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.subscribers)
}

type Subscriber[T any] struct {
	channel chan T
	topic   *Topic[T]
	dropped atomic.Uint64
}

func (t *Topic[T]) Subscribe() *Subscriber[T] {
	channel := make(chan T, t.buffer)
	subscriber := &Subscriber[T]{channel: channel, topic: t}

	t.mutex.Lock()
	t.subscribers[channel] = subscriber
	t.mutex.Unlock()

	return subscriber
}

func (s *Subscriber[T]) Recv() <-chan T {
	return s.channel
}

// Dropped is the number of values evicted before this subscriber read them.
func (s *Subscriber[T]) Dropped() uint64 {
	return s.dropped.Load()
}

// Done unsubscribes and closes the channel. It is safe to call more than once.
func (s *Subscriber[T]) Done() {
	topic := s.topic
	topic.mutex.Lock()
	if _, ok := topic.subscribers[s.channel]; ok {
		delete(topic.subscribers, s.channel)
		close(s.channel)
	}
	topic.mutex.Unlock()
}
