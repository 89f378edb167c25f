package messaging

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

var ErrNSQAddrRequired = errors.New("messaging: nsq nsqd or lookupd address is required")

// NSQConfig configures the NSQ driver. Messages travel in a JSON envelope
// since NSQ has no headers.
type NSQConfig struct {
	ProducerAddr string
	// LookupdAddrs is preferred over NSQDAddrs for consumers when set.
	LookupdAddrs []string
	NSQDAddrs    []string
	// RequeueDelay is the backoff before a failed message is redelivered.
	RequeueDelay time.Duration
}

// NSQ is the go-nsq driver.
type NSQ struct {
	cfg      NSQConfig
	producer *nsq.Producer

	mu        sync.Mutex
	consumers []*nsq.Consumer
	closed    bool
}

func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.ProducerAddr == "" && len(cfg.NSQDAddrs) == 0 && len(cfg.LookupdAddrs) == 0 {
		return nil, ErrNSQAddrRequired
	}
	if cfg.RequeueDelay <= 0 {
		cfg.RequeueDelay = 5 * time.Second
	}

	n := &NSQ{cfg: cfg}
	if cfg.ProducerAddr != "" {
		p, err := nsq.NewProducer(cfg.ProducerAddr, nsq.NewConfig())
		if err != nil {
			return nil, fmt.Errorf("messaging: nsq producer: %w", err)
		}
		p.SetLoggerLevel(nsq.LogLevelError)
		n.producer = p
	}
	return n, nil
}

func (n *NSQ) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	consumers := n.consumers
	n.consumers = nil
	n.mu.Unlock()

	for _, c := range consumers {
		c.Stop()
		<-c.StopChan
	}
	if n.producer != nil {
		n.producer.Stop()
	}
	return nil
}

func (n *NSQ) Publish(ctx context.Context, topic string, msg Outgoing) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if n.producer == nil {
		return ErrNSQAddrRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := sealEnvelope(msg.Key, withCorrelation(ctx, msg), msg.Body)
	if err != nil {
		return fmt.Errorf("messaging: nsq envelope: %w", err)
	}
	if err := n.producer.Publish(topic, body); err != nil {
		return fmt.Errorf("messaging: nsq publish %s: %w", topic, err)
	}
	return nil
}

func (n *NSQ) Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error {
	co := newConsumeOptions(opts...)
	switch {
	case topic == "":
		return ErrTopicRequired
	case h == nil:
		return ErrHandlerRequired
	case co.group == "":
		return ErrGroupRequired
	}

	cfg := nsq.NewConfig()
	cfg.MaxInFlight = co.maxInFlight
	consumer, err := nsq.NewConsumer(topic, co.group, cfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)
	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		m.DisableAutoResponse()
		env := openEnvelope(m.Body)
		msg := &Message{
			ID:        hex.EncodeToString(m.ID[:]),
			Topic:     topic,
			Key:       env.Key,
			Body:      env.Body,
			Headers:   cloneHeaders(env.Headers),
			Timestamp: time.Unix(0, m.Timestamp),
			Attempt:   int(m.Attempts),
		}
		if err := dispatch(ctx, "nsq", h, msg); err != nil {
			m.Requeue(n.cfg.RequeueDelay)
			return nil
		}
		m.Finish()
		return nil
	}), co.concurrency)

	if err := n.track(consumer); err != nil {
		return err
	}

	if len(n.cfg.LookupdAddrs) > 0 {
		err = consumer.ConnectToNSQLookupds(n.cfg.LookupdAddrs)
	} else {
		err = consumer.ConnectToNSQDs(n.cfg.NSQDAddrs)
	}
	if err != nil {
		consumer.Stop()
		<-consumer.StopChan
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	select {
	case <-ctx.Done():
		consumer.Stop()
		<-consumer.StopChan
		return ctx.Err()
	case <-consumer.StopChan:
		return nil
	}
}

func (n *NSQ) track(c *nsq.Consumer) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return ErrClosed
	}
	n.consumers = append(n.consumers, c)
	return nil
}
