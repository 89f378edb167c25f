package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/stacktrace"
)

// dispatch runs h with the correlation id of msg in ctx and turns a panic
// into an error so the driver nacks instead of crashing the consumer.
func dispatch(ctx context.Context, driver string, h Handler, msg *Message) (err error) {
	if cid := msg.Header(HeaderCorrelationID); cid != "" {
		ctx = instrument.SetCorrelationID(ctx, cid)
	}

	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}
		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "topic", msg.Topic, "panic", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "topic", msg.Topic, "panic", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
	}()

	return h(ctx, msg)
}

// withCorrelation stamps the correlation id of ctx on outgoing headers.
func withCorrelation(ctx context.Context, msg Outgoing) map[string]string {
	headers := cloneHeaders(msg.Headers)
	if _, ok := headers[HeaderCorrelationID]; !ok {
		if cid := instrument.GetCorrelationID(ctx); cid != "" {
			headers[HeaderCorrelationID] = cid
		}
	}
	return headers
}
