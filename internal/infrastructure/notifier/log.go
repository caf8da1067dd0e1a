package notifier

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/logger"
)

// LogNotifier writes notifications to the log. It is the default when no
// broker is configured.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(ctx context.Context, notification *domain.Notification) error {
	payload, err := encode(notification)
	if err != nil {
		return err
	}

	log := logger.Origin(ctx, n.log, "LogNotifier")
	log.Info().
		Str("notification_id", notification.ID).
		Str("event_type", notification.EventType).
		Str("resource_id", notification.ResourceID).
		RawJSON("payload", payload).
		Msg("notification.published")

	return nil
}
