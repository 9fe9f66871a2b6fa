package ports

import (
	"context"

	"github.com/bnema/kol-credits/internal/domain"
)

// Notifier receives user-facing events. Delivery is best effort and never fails the
// operation that produced the event.
type Notifier interface {
	Notify(ctx context.Context, notification domain.Notification)
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, domain.Notification) {}
