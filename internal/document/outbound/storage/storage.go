package storage

import (
	"context"
	"io"
	"time"

	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Storage keeps document and image objects in the configured bucket.
type Storage struct {
	client storage.Storage
	ins    instrument.Instrumentation
}

func NewStorage(client storage.Storage, ins instrument.Instrumentation) *Storage {
	return &Storage{client: client, ins: ins}
}

func (s *Storage) startSpan(ctx context.Context, name, key string) (context.Context, trace.Span) {
	ctx, span := s.ins.Tracer("document.outbound.storage").Start(ctx, name)
	span.SetAttributes(attribute.String("storage.key", key))
	return ctx, span
}

func (s *Storage) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (err error) {
	ctx, span := s.startSpan(ctx, "Put", key)
	defer func() { s.endSpan(span, err) }()

	span.SetAttributes(attribute.Int64("storage.size", size))

	return s.client.Put(ctx, key, r, size, contentType)
}

func (s *Storage) Delete(ctx context.Context, key string) (err error) {
	ctx, span := s.startSpan(ctx, "Delete", key)
	defer func() { s.endSpan(span, err) }()

	return s.client.Delete(ctx, key)
}

func (s *Storage) PresignGet(ctx context.Context, key string, ttl time.Duration, filename string, attachment bool) (_ string, err error) {
	ctx, span := s.startSpan(ctx, "PresignGet", key)
	defer func() { s.endSpan(span, err) }()

	return s.client.PresignGet(ctx, key, ttl, storage.URLOptions{Filename: filename, Attachment: attachment})
}
