package notifier

import (
	"context"
	"errors"

	"bodycomp/internal/logger"
)

// LogPublisher writes events to the application log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, evt Event) error {
	logger.Named("notify").Info(evt.Summary(), evt.logAttrs()...)
	return nil
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []EventPublisher

func (m Multi) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
