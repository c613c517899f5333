// Package broadcast delivers named messages to registered receivers.
//
// A Bus plays the role of the host's intent system: senders post a key,
// and every receiver whose filter accepts that key gets it later, on the
// bus's single dispatch goroutine.
package broadcast

import (
	"errors"
	"sync"
)

const queueSize = 64

var (
	ErrAlreadyRegistered = errors.New("broadcast: receiver already registered")
	ErrNotRegistered     = errors.New("broadcast: receiver not registered")
)

// Receiver handles a delivered message.
// Implementations must be comparable (typically a pointer).
type Receiver interface {
	OnReceive(key string)
}

// Filter is the set of keys a receiver accepts.
type Filter map[string]struct{}

// NewFilter returns a filter accepting keys.
func NewFilter(keys ...string) Filter {
	f := make(Filter, len(keys))
	for _, k := range keys {
		f.Add(k)
	}
	return f
}

// Add accepts key.
func (f Filter) Add(key string) {
	f[key] = struct{}{}
}

// Matches reports whether key is accepted.
func (f Filter) Matches(key string) bool {
	_, ok := f[key]
	return ok
}

type registration struct {
	receiver Receiver
	filter   Filter
}

// Bus routes messages from senders to receivers.
type Bus struct {
	mu   sync.Mutex
	regs []registration

	queue chan string
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// New creates a bus and starts its dispatcher.
func New() *Bus {
	b := &Bus{
		queue: make(chan string, queueSize),
		done:  make(chan struct{}),
	}
	b.wg.Add(1)
	go b.dispatch()
	return b
}

// Register adds r with a copy of f.
func (b *Bus) Register(r Receiver, f Filter) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, reg := range b.regs {
		if reg.receiver == r {
			return ErrAlreadyRegistered
		}
	}

	filter := make(Filter, len(f))
	for k := range f {
		filter.Add(k)
	}
	b.regs = append(b.regs, registration{receiver: r, filter: filter})
	return nil
}

// Unregister removes r. Messages already dispatched to r may still arrive.
func (b *Bus) Unregister(r Receiver) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, reg := range b.regs {
		if reg.receiver == r {
			b.regs = append(b.regs[:i], b.regs[i+1:]...)
			return nil
		}
	}
	return ErrNotRegistered
}

// Send queues key for delivery (non-blocking).
// The message is dropped if the queue is full or the bus is closed.
func (b *Bus) Send(key string) {
	select {
	case <-b.done:
		return
	default:
	}

	select {
	case b.queue <- key:
	default:
		// Drop if queue full
	}
}

// Close stops the dispatcher and waits for it to exit.
// Queued messages are discarded.
func (b *Bus) Close() {
	b.once.Do(func() {
		close(b.done)
	})
	b.wg.Wait()
}

func (b *Bus) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case key := <-b.queue:
			for _, r := range b.matching(key) {
				r.OnReceive(key)
			}
		}
	}
}

// matching returns the receivers accepting key, in registration order.
func (b *Bus) matching(key string) []Receiver {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Receiver
	for _, reg := range b.regs {
		if reg.filter.Matches(key) {
			out = append(out, reg.receiver)
		}
	}
	return out
}
