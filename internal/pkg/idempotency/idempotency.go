// Package idempotency records the outcome of keyed operations in Redis so that
// redelivered messages are processed at most once.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrInProgress means another worker currently holds the key.
	ErrInProgress = errors.New("idempotency: operation in progress")
	// ErrCompleted means the operation already finished successfully.
	ErrCompleted = errors.New("idempotency: operation already completed")
	// ErrUnknownState means the stored marker could not be interpreted.
	ErrUnknownState = errors.New("idempotency: unknown state")
)

// State is the marker stored for a key.
type State string

const (
	StateFree       State = "free"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Idempotency runs fn at most once per key until the stored state expires.
// A failed run releases the key for a later retry.
type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// Option tunes a single Exec call.
type Option func(*options)

type options struct {
	lease time.Duration
	keep  time.Duration
}

// WithLease sets how long the in-progress marker lives if the worker dies.
func WithLease(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lease = d
		}
	}
}

// WithRetention sets how long the completed marker is kept.
func WithRetention(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.keep = d
		}
	}
}

// Redis is the go-redis backed Idempotency.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// New builds a Redis tracker storing keys under "idempotency:".
func New(client redis.UniversalClient) *Redis {
	return &Redis{client: client, prefix: "idempotency:"}
}

func (r *Redis) state(ctx context.Context, key string, lease time.Duration) (State, error) {
	ok, err := r.client.SetNX(ctx, key, string(StateInProgress), lease).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return StateFree, nil
	}

	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return r.state(ctx, key, lease)
	}
	if err != nil {
		return "", err
	}

	return State(val), nil
}

// Exec implements Idempotency.
func (r *Redis) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := options{lease: time.Minute, keep: 24 * time.Hour}
	for _, opt := range opts {
		opt(&o)
	}

	fk := r.prefix + key
	st, err := r.state(ctx, fk, o.lease)
	if err != nil {
		return err
	}

	switch st {
	case StateFree:
	case StateFailed:
		if err := r.client.Set(ctx, fk, string(StateInProgress), o.lease).Err(); err != nil {
			return err
		}
	case StateInProgress:
		return ErrInProgress
	case StateCompleted:
		return ErrCompleted
	default:
		return ErrUnknownState
	}

	if err := fn(ctx); err != nil {
		if mErr := r.client.Set(ctx, fk, string(StateFailed), o.lease).Err(); mErr != nil {
			return errors.Join(err, mErr)
		}
		return err
	}

	return r.client.Set(ctx, fk, string(StateCompleted), o.keep).Err()
}
