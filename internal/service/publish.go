package service

import (
	"context"

	"github.com/heartline/heartline/internal/broker"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
)

// publishQuietly announces a committed write. Realtime delivery is best
// effort: a failure is logged and the caller carries on.
func publishQuietly(ctx context.Context, p broker.Publisher, channel, event string, payload any) {
	if err := p.Publish(ctx, channel, event, payload); err != nil {
		logger.Log.Warn("Realtime publish failed",
			zap.String("channel", channel),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}
