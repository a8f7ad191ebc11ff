// Package events allows for the registering and receiving of ledger events.
// Every subscriber gets its own buffered channel and a slow subscriber loses
// messages instead of stalling the ledger.
package events

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the channel capacity given to each subscriber when no
// capacity is specified.
const DefaultBuffer = 100

// Events maintains a mapping of subscriber id and channels so goroutines
// can register and receive events.
type Events struct {
	mu      sync.RWMutex
	subs    map[string]chan string
	buffer  int
	dropped atomic.Uint64
}

// New constructs an events value. A buffer of zero or less uses
// DefaultBuffer.
func New(buffer int) *Events {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	return &Events{
		subs:   make(map[string]chan string),
		buffer: buffer,
	}
}

// Shutdown closes and removes every channel handed out by Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.subs {
		delete(evt.subs, id)
		close(ch)
	}
}

// Acquire registers the subscriber id and returns the channel its events
// arrive on. Acquiring an id twice returns the same channel.
func (evt *Events) Acquire(id string) <-chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.subs[id]; exists {
		return ch
	}

	ch := make(chan string, evt.buffer)
	evt.subs[id] = ch

	return ch
}

// Release closes and removes the channel of the subscriber.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("subscriber %q does not exist", id)
	}

	delete(evt.subs, id)
	close(ch)

	return nil
}

// Send delivers the message to every subscriber without blocking and
// returns the number of subscribers that received it.
func (evt *Events) Send(s string) int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	var delivered int
	for _, ch := range evt.subs {
		select {
		case ch <- s:
			delivered++
		default:
			evt.dropped.Add(1)
		}
	}

	return delivered
}

// Subscribers returns the number of registered subscribers.
func (evt *Events) Subscribers() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.subs)
}

// Dropped returns the number of messages lost to full subscriber channels.
func (evt *Events) Dropped() uint64 {
	return evt.dropped.Load()
}
