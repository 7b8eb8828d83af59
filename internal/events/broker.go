package events

import (
	"sync"

	"fashionStudio/internal/generation"
)

// Event describes generation progress for one session.
type Event struct {
	SessionID string                    `json:"sessionId"`
	Epoch     int64                     `json:"epoch"`
	Current   int                       `json:"current"`
	Total     int                       `json:"total"`
	Result    *generation.PreviewResult `json:"result,omitempty"`
	Done      bool                      `json:"done,omitempty"`
	Error     string                    `json:"error,omitempty"`
}

// Publisher is the sending side of the broker.
type Publisher interface {
	Publish(evt Event)
}

// Broker manages SSE and WebSocket subscribers.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[chan Event]string
}

// NewBroker constructs a broker instance.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[chan Event]string),
	}
}

// Subscribe returns a channel that receives events for sessionID, or for
// every session when sessionID is empty.
func (b *Broker) Subscribe(sessionID string) chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subscribers[ch] = sessionID
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel from the broker.
func (b *Broker) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish fan-outs the event to all matching subscribers.
func (b *Broker) Publish(evt Event) {
	b.mu.RLock()
	for ch, filter := range b.subscribers {
		if filter != "" && filter != evt.SessionID {
			continue
		}
		select {
		case ch <- evt:
		default:
			// drop if subscriber is slow
		}
	}
	b.mu.RUnlock()
}
