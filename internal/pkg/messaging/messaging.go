package messaging

import (
	"context"
	"errors"
	"io"
	"maps"
	"time"
)

var (
	ErrTopicRequired   = errors.New("messaging: topic is required")
	ErrHandlerRequired = errors.New("messaging: handler is required")
	ErrGroupRequired   = errors.New("messaging: consumer group is required")
	ErrClosed          = errors.New("messaging: client closed")
)

// HeaderCorrelationID propagates the request correlation id to consumers.
const HeaderCorrelationID = "cID"

// Messaging is a broker-agnostic client.
type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

// Publisher sends a message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg Outgoing) error
}

// Consumer blocks delivering messages of topic to h until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error
}

// Handler processes one message.
type Handler func(ctx context.Context, msg *Message) error

// Outgoing is a message to publish.
type Outgoing struct {
	// Key selects the Kafka partition and the Pub/Sub ordering key.
	Key     string
	Body    []byte
	Headers map[string]string
}

// Message is a received message.
type Message struct {
	// ID is the broker message id. Brokers without ids (NATS core, Kafka)
	// get a stable id derived from topic and offset or from the envelope.
	ID        string
	Topic     string
	Key       string
	Body      []byte
	Headers   map[string]string
	Timestamp time.Time
	// Attempt is the delivery attempt when the broker reports it, else 1.
	Attempt int
}

// Header returns a header value or "".
func (m *Message) Header(key string) string {
	return m.Headers[key]
}

func cloneHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return map[string]string{}
	}
	return maps.Clone(h)
}
