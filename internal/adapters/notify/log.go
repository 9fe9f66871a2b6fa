package notify

import (
	"context"
	"io"
	"log/slog"

	"github.com/bnema/kol-credits/internal/domain"
	"github.com/bnema/kol-credits/internal/ports"
)

// LogNotifier writes every notification as a structured log record. It stands in for a
// push or in-app delivery channel.
type LogNotifier struct {
	logger *slog.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, notification domain.Notification) {
	level := slog.LevelInfo
	if notification.Kind == domain.NotificationExhausted || notification.Kind == domain.NotificationPackageExpired {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("kind", string(notification.Kind)),
		slog.String("account_id", string(notification.AccountID)),
	}
	if notification.ActionHint != domain.IntentNone {
		attrs = append(attrs, slog.String("action", string(notification.ActionHint)))
	}

	n.logger.LogAttrs(ctx, level, notification.Message, attrs...)
}
