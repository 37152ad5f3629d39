package registry

import "sync"

// MessageType identifies a broadcast message kind.
type MessageType int

const (
	// MessageReload tells viewers that served content changed and they
	// should re-fetch.
	MessageReload MessageType = iota
)

// String returns the string representation of the message type
func (t MessageType) String() string {
	switch t {
	case MessageReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Message is the unit fanned out to subscribers.
type Message struct {
	Type MessageType
}

// subscriberBuffer bounds each subscriber channel. A subscriber that falls
// further behind than this loses messages rather than stalling the
// publisher.
const subscriberBuffer = 16

// Broadcaster fans messages out to any number of subscribers. Publishing
// never blocks: a full subscriber buffer drops the message for that
// subscriber only. Messages published before a subscription are not
// replayed. The broadcaster lives for the whole process; subscriptions are
// ephemeral per viewer session.
type Broadcaster struct {
	subscribers []chan Message
	mutex       sync.RWMutex
	closed      bool
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers a new subscriber and returns its receive channel.
// After Close the returned channel is already closed.
func (b *Broadcaster) Subscribe() <-chan Message {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	ch := make(chan Message, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown
// channels are ignored.
func (b *Broadcaster) Unsubscribe(ch <-chan Message) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for i, subscriber := range b.subscribers {
		if subscriber == ch {
			close(subscriber)
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			break
		}
	}
}

// Broadcast delivers msg to every current subscriber without blocking.
// Subscribers with full buffers miss this message.
func (b *Broadcaster) Broadcast(msg Message) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	if b.closed {
		return
	}
	for _, subscriber := range b.subscribers {
		select {
		case subscriber <- msg:
		default:
		}
	}
}

// Count returns the number of active subscribers.
func (b *Broadcaster) Count() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	return len(b.subscribers)
}

// Close shuts the broadcaster down, closing every subscriber channel.
// Subsequent Broadcast calls are no-ops.
func (b *Broadcaster) Close() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, subscriber := range b.subscribers {
		close(subscriber)
	}
	b.subscribers = nil
}
