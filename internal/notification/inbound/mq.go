package inbound

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/safe4law/safe4law/internal/notification/usecase"
	"github.com/safe4law/safe4law/internal/pkg/config"
	"github.com/safe4law/safe4law/internal/pkg/goroutine"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/messaging"
	"github.com/safe4law/safe4law/internal/shared/event"
)

const defaultConcurrency = 4

type uc interface {
	ConsumeUserRegistration(ctx context.Context, in usecase.ConsumeUserRegistrationInput) error
	ConsumeCredentialReset(ctx context.Context, in usecase.ConsumeCredentialResetInput) error
}

// RegisterMQConsumer starts one consumer per enabled notification topic. An
// empty modules.notification.consumer_names enables all of them. It returns
// the names of the consumers that were scheduled.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	consumer messaging.Consumer,
	uc uc,
	ins instrument.Instrumentation,
) []string {
	handler := &MQHandler{uc: uc, ins: ins}

	enabled := cfg.GetArray("modules.notification.consumer_names")
	concurrency := cfg.GetInt("modules.notification.concurrency")
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	consumers := []struct {
		name    string
		topic   string
		handler messaging.Handler
	}{
		{
			name:    event.UserRegistrationConsumerNotification,
			topic:   event.UserRegistrationTopic,
			handler: handler.UserRegistrationNotification,
		},
		{
			name:    event.CredentialResetConsumerNotification,
			topic:   event.CredentialResetTopic,
			handler: handler.CredentialResetNotification,
		},
	}

	started := make([]string, 0, len(consumers))
	for _, c := range consumers {
		if len(enabled) > 0 && !slices.Contains(enabled, c.name) {
			continue
		}

		ok := routine.Go(ctx, func(ctx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", c.name, "topic", c.topic)
			err := consumer.Consume(ctx,
				c.topic,
				c.handler,
				messaging.WithGroup(c.name),
				messaging.WithConcurrency(concurrency),
				messaging.WithMaxInFlight(concurrency*2),
			)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "consumer stopped", "consumer", c.name, "error", err)
				return err
			}
			return nil
		})
		if ok {
			started = append(started, c.name)
		}
	}

	return started
}
