package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const grantPrefix = "recovery:grant:"

// Cache keeps reset grants in Redis. Keys are digests; the raw token is never stored.
type Cache struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("recovery.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) SaveGrant(ctx context.Context, key, email string, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "SaveGrant")
	defer func() { c.endSpan(span, err) }()

	return c.client.Set(ctx, grantPrefix+key, email, ttl).Err()
}

// TakeGrant returns the grant owner and deletes the grant in one step, so
// two concurrent resets cannot both succeed.
func (c *Cache) TakeGrant(ctx context.Context, key string) (email string, err error) {
	ctx, span := c.startSpan(ctx, "TakeGrant")
	defer func() { c.endSpan(span, err) }()

	email, err = c.client.GetDel(ctx, grantPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", goerror.ErrNotFound
	}

	return email, err
}
