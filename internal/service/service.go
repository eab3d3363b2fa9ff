package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
)

var tracer = otel.Tracer("github.com/egannguyen/kiosk-ordering/internal/service")

// Notifier receives a notification after a state change has been committed.
type Notifier interface {
	Notify(ctx context.Context, n entity.Notification) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, entity.Notification) error { return nil }

// notify is best effort: the operation that triggered it has already
// succeeded, so a failure is only logged.
func notify(ctx context.Context, n Notifier, note entity.Notification) {
	if err := n.Notify(ctx, note); err != nil {
		slog.Warn("Failed to send notification", "type", note.Type, "channel", note.Channel, "err", err)
	}
}

// internalErr passes domain errors through and hides everything else behind msg.
func internalErr(msg string, err error) error {
	var de *entity.Error
	if errors.As(err, &de) {
		return err
	}
	return entity.Internal(msg, err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
