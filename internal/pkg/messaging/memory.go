package messaging

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Memory is an in-process broker for local development and tests. Each
// group receives every message of its topic once; a failing handler gets the
// message again up to maxAttempts times.
type Memory struct {
	mu     sync.Mutex
	seq    int64
	groups map[string]map[string]chan *Message
	closed bool
}

const memoryMaxAttempts = 3

func NewMemory() *Memory {
	return &Memory{groups: map[string]map[string]chan *Message{}}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Memory) Publish(ctx context.Context, topic string, msg Outgoing) error {
	if topic == "" {
		return ErrTopicRequired
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.seq++
	id := strconv.FormatInt(m.seq, 10)
	targets := make([]chan *Message, 0, len(m.groups[topic]))
	for _, ch := range m.groups[topic] {
		targets = append(targets, ch)
	}
	m.mu.Unlock()

	headers := withCorrelation(ctx, msg)
	for _, ch := range targets {
		select {
		case ch <- &Message{ID: id, Topic: topic, Key: msg.Key, Body: msg.Body, Headers: cloneHeaders(headers), Timestamp: time.Now()}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *Memory) Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error {
	co := newConsumeOptions(opts...)
	switch {
	case topic == "":
		return ErrTopicRequired
	case h == nil:
		return ErrHandlerRequired
	}

	ch := m.subscribe(topic, co)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-ch:
					for msg.Attempt = 1; msg.Attempt <= memoryMaxAttempts; msg.Attempt++ {
						if dispatch(ctx, "memory", h, msg) == nil {
							break
						}
					}
				}
			}
		})
	}
	wg.Wait()
	return ctx.Err()
}

func (m *Memory) subscribe(topic string, co consumeOptions) chan *Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.groups[topic] == nil {
		m.groups[topic] = map[string]chan *Message{}
	}
	ch, ok := m.groups[topic][co.group]
	if !ok {
		ch = make(chan *Message, max(co.maxInFlight, 64))
		m.groups[topic][co.group] = ch
	}
	return ch
}

// Subscribed reports whether any consumer group is attached to topic.
func (m *Memory) Subscribed(topic string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.groups[topic]) > 0
}
