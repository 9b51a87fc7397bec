// Package service implements the groupsplit.v1 Connect services on top of
// storage.Store, the split allocator and the balance engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/groupsplit/internal/calculator"
	"github.com/mmynk/groupsplit/internal/events"
	"github.com/mmynk/groupsplit/internal/metrics"
	"github.com/mmynk/groupsplit/internal/storage"
)

// Option configures a service.
type Option func(*deps)

// WithMetrics records allocator and balance metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

// WithPublisher sends change events after successful writes.
func WithPublisher(p events.Publisher) Option {
	return func(d *deps) { d.publisher = p }
}

type deps struct {
	store     storage.Store
	metrics   *metrics.Metrics
	publisher events.Publisher
}

func newDeps(store storage.Store, opts []Option) deps {
	d := deps{store: store, publisher: events.Nop{}}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// publish sends an event. A failed publish is logged and counted; it never
// fails the request.
func (d deps) publish(ctx context.Context, event events.Event) {
	if err := d.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "Failed to publish event",
			"type", event.Type,
			"group_id", event.GroupID,
			"entity_id", event.EntityID,
			"error", err,
		)
		d.metrics.EventFailed(string(event.Type))
	}
}

var errInvalidArgument = errors.New("invalid argument")

// invalidArgf builds an error that maps to CodeInvalidArgument.
func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidArgument, fmt.Sprintf(format, args...))
}

// toConnectError maps domain and storage errors onto Connect codes.
func toConnectError(err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, errInvalidArgument),
		errors.Is(err, calculator.ErrInvalidAmount),
		errors.Is(err, calculator.ErrInvalidWeight),
		errors.Is(err, calculator.ErrEmptyIncludedSet),
		errors.Is(err, calculator.ErrSplitMismatch),
		errors.Is(err, calculator.ErrUnknownStrategy),
		errors.Is(err, calculator.ErrMissingPayer):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func requireID(name, value string) error {
	if value == "" {
		return invalidArgf("%s required", name)
	}
	return nil
}
