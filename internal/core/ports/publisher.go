package ports

import "context"

// Message is one payload bound for one realtime channel. Key groups messages
// that must keep their relative order (the entity id).
type Message struct {
	Key     string
	Channel string
	Payload []byte
}

// Publisher delivers a payload to every current subscriber of a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Subscriber streams every published message to handler until ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(channel string, payload []byte)) error
}

// FanoutQueue accepts messages for asynchronous publishing. Enqueue never
// blocks; it reports false when the message was dropped.
type FanoutQueue interface {
	Enqueue(msg Message) bool
}
