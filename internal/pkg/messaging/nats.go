package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

var ErrNATSURLRequired = errors.New("messaging: nats url is required")

// NATSConfig configures the NATS driver.
type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS is the core NATS driver. Core NATS has no redelivery: a failing
// handler is logged and the message is dropped.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	closed bool
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	opts := append([]nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
	}, cfg.Options...)

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}
	return &NATS{conn: conn}, nil
}

func (n *NATS) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true
	return n.conn.Drain()
}

func (n *NATS) Publish(ctx context.Context, topic string, msg Outgoing) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	nm := nats.NewMsg(topic)
	nm.Data = msg.Body
	for key, val := range withCorrelation(ctx, msg) {
		nm.Header.Set(key, val)
	}
	if msg.Key != "" {
		nm.Header.Set("key", msg.Key)
	}
	nm.Header.Set(nats.MsgIdHdr, uuid.NewString())

	if err := n.conn.PublishMsg(nm); err != nil {
		return fmt.Errorf("messaging: nats publish %s: %w", topic, err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("messaging: nats flush: %w", err)
	}
	return nil
}

func (n *NATS) Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error {
	co := newConsumeOptions(opts...)
	switch {
	case topic == "":
		return ErrTopicRequired
	case h == nil:
		return ErrHandlerRequired
	}

	msgs := make(chan *nats.Msg, co.maxInFlight)
	sub, err := n.conn.ChanQueueSubscribe(topic, co.group, msgs)
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe %s: %w", topic, err)
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case nm := <-msgs:
					n.handle(ctx, h, nm)
				}
			}
		})
	}

	<-ctx.Done()
	err = sub.Unsubscribe()
	wg.Wait()
	return errors.Join(ctx.Err(), err)
}

func (n *NATS) handle(ctx context.Context, h Handler, nm *nats.Msg) {
	msg := &Message{
		ID:        nm.Header.Get(nats.MsgIdHdr),
		Topic:     nm.Subject,
		Key:       nm.Header.Get("key"),
		Body:      nm.Data,
		Headers:   make(map[string]string, len(nm.Header)),
		Timestamp: time.Now(),
		Attempt:   1,
	}
	for key := range nm.Header {
		msg.Headers[key] = nm.Header.Get(key)
	}

	if err := dispatch(ctx, "nats", h, msg); err != nil {
		slog.ErrorContext(ctx, "nats handler failed, message dropped", "topic", msg.Topic, "id", msg.ID, "error", err)
	}
}
