// Package dispatch drives the reference notification center: a
// background loop that fires due pending requests, moving them into the
// delivered store and running the presentation callback.
package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/chime/internal/core/eventbus"
	"github.com/colonyops/chime/internal/core/notify"
)

// Store is the slice of the center the dispatcher needs.
type Store interface {
	Due(ctx context.Context, now time.Time) ([]notify.Request, error)
	MarkDelivered(ctx context.Context, identifier string, at time.Time) (notify.Notification, error)
}

// Presenter decides how a fired notification is rendered. The dispatcher
// plays the foreground-application role, so every delivery goes through
// the presentation callback.
type Presenter interface {
	WillPresent(ctx context.Context, n notify.Notification, respond func(notify.Options))
}

// Dispatcher periodically fires due requests.
type Dispatcher struct {
	store     Store
	presenter Presenter
	bus       *eventbus.EventBus
	log       zerolog.Logger
}

// New creates a dispatcher. bus may be nil.
func New(store Store, presenter Presenter, bus *eventbus.EventBus, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:     store,
		presenter: presenter,
		bus:       bus,
		log:       logger,
	}
}

// Run fires due requests at the given interval until the context is
// cancelled.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Tick(ctx, time.Now()); err != nil {
				d.log.Error().Err(err).Msg("dispatch tick failed")
			}
		}
	}
}

// Tick fires every request due as of now. Failures on individual
// requests are logged and do not stop the remaining deliveries.
func (d *Dispatcher) Tick(ctx context.Context, now time.Time) error {
	due, err := d.store.Due(ctx, now)
	if err != nil {
		return err
	}

	for _, req := range due {
		n, err := d.store.MarkDelivered(ctx, req.Identifier, now)
		if err != nil {
			// The request may have been cancelled since the Due query.
			d.log.Debug().Err(err).Str("identifier", req.Identifier).Msg("skipping delivery")
			continue
		}

		d.present(ctx, n)
	}

	return nil
}

func (d *Dispatcher) present(ctx context.Context, n notify.Notification) {
	d.presenter.WillPresent(ctx, n, func(options notify.Options) {
		d.log.Info().
			Str("identifier", n.Request.Identifier).
			Stringer("options", options).
			Msg("notification delivered")

		if d.bus != nil {
			d.bus.PublishNotificationDelivered(eventbus.NotificationDeliveredPayload{
				Identifier: n.Request.Identifier,
				Options:    options,
			})
		}
	})
}
