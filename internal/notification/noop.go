package notification

import (
	"context"

	"github.com/smallbiznis/collecta/internal/notification/domain"
	"github.com/smallbiznis/collecta/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// LoggingNotifier records the send intent without delivering anything. The
// platform's notification pipeline replaces it in production deployments.
type LoggingNotifier struct {
	log *zap.Logger
}

func NewLoggingNotifier(log *zap.Logger) domain.Notifier {
	return &LoggingNotifier{log: log.Named("notification")}
}

func (n *LoggingNotifier) Send(ctx context.Context, msg domain.Message) error {
	n.log.Info("notification queued",
		zap.String("template_id", msg.TemplateID),
		zap.String("recipient", logger.MaskPhone(msg.Recipient)),
	)
	return nil
}

var Module = fx.Module("notification",
	fx.Provide(NewLoggingNotifier),
)
