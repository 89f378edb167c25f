package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const attemptPrefix = "document:key_attempts:"

// Cache counts wrong access key guesses per document and user.
type Cache struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("document.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func attemptKey(documentID, userID int64) string {
	return attemptPrefix + strconv.FormatInt(documentID, 10) + ":" + strconv.FormatInt(userID, 10)
}

// IncrKeyAttempts counts one attempt. The window starts at the first attempt
// and is not extended by later ones.
func (c *Cache) IncrKeyAttempts(ctx context.Context, documentID, userID int64, window time.Duration) (n int64, err error) {
	ctx, span := c.startSpan(ctx, "IncrKeyAttempts")
	defer func() { c.endSpan(span, err) }()

	key := attemptKey(documentID, userID)

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err = pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return incr.Val(), nil
}

func (c *Cache) ClearKeyAttempts(ctx context.Context, documentID, userID int64) (err error) {
	ctx, span := c.startSpan(ctx, "ClearKeyAttempts")
	defer func() { c.endSpan(span, err) }()

	err = c.client.Del(ctx, attemptKey(documentID, userID)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
