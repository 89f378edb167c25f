package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// retrying retries Publish with capped exponential backoff and jitter.
type retrying struct {
	Messaging
	attempts uint64
	base     time.Duration
}

// WithPublishRetry wraps m so Publish is retried up to attempts extra times.
func WithPublishRetry(m Messaging, attempts uint64, base time.Duration) Messaging {
	if attempts == 0 {
		return m
	}
	return &retrying{Messaging: m, attempts: attempts, base: base}
}

func (r *retrying) Publish(ctx context.Context, topic string, msg Outgoing) error {
	b := retry.NewExponential(r.base)
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithJitterPercent(20, b)
	b = retry.WithMaxRetries(r.attempts, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := r.Messaging.Publish(ctx, topic, msg); err != nil {
			slog.WarnContext(ctx, "publish failed, retrying", "topic", topic, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}
