// Package events carries fire-and-forget notifications out of the
// physics core. Publishing never blocks: a subscriber that falls
// behind loses events rather than stalling the tick.
package events

import "sync"

// Kind identifies what happened to a car.
type Kind int

const (
	Derailment Kind = iota
	Collision
	BufferImpact
	CouplerImpact
)

func (k Kind) String() string {
	switch k {
	case Derailment:
		return "derailment"
	case Collision:
		return "collision"
	case BufferImpact:
		return "buffer_impact"
	case CouplerImpact:
		return "coupler_impact"
	default:
		return "unknown"
	}
}

// Event is one notification, emitted after the car's state has
// settled. Severity is the magnitude of the speed change in m/s.
type Event struct {
	Kind     Kind
	Train    string
	Car      int
	Severity float64
	Time     float64
}

// Bus fans events out to any number of subscribers.
type Bus struct {
	mu     sync.Mutex
	subs   []chan Event
	closed bool
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a new subscriber with the given channel depth.
// A depth below 1 is raised to 1. The channel is closed by Close.
func (b *Bus) Subscribe(depth int) <-chan Event {
	if depth < 1 {
		depth = 1
	}
	ch := make(chan Event, depth)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers e to every subscriber with room in its buffer and
// drops it for the rest. Publishing on a closed bus is a no-op.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Close closes every subscriber channel. Later Subscribe calls return
// an already closed channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
