package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/heartline/heartline/internal/broker"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
)

// Publisher wraps a broker so that a failed publish is journaled instead of
// surfacing. It only returns an error when the journal write fails too.
type Publisher struct {
	broker  broker.Publisher
	journal *Journal
}

func NewPublisher(b broker.Publisher, journal *Journal) *Publisher {
	return &Publisher{broker: b, journal: journal}
}

func (p *Publisher) Publish(ctx context.Context, channel, event string, payload any) error {
	err := p.broker.Publish(ctx, channel, event, payload)
	if err == nil {
		return nil
	}

	logger.Log.Warn("Publish failed, journaling for replay",
		zap.String("channel", channel),
		zap.String("event", event),
		zap.Error(err),
	)

	if _, jerr := p.journal.Append(channel, event, payload); jerr != nil {
		return jerr
	}
	return nil
}

// Replay re-publishes pending entries and removes the ones that went through.
// It returns how many entries were delivered.
func (p *Publisher) Replay(ctx context.Context) (int, error) {
	entries, err := p.journal.Entries()
	if err != nil {
		return 0, err
	}

	var delivered []string
	for _, entry := range entries {
		if err := p.broker.Publish(ctx, entry.Channel, entry.Event, json.RawMessage(entry.Payload)); err != nil {
			logger.Log.Debug("Outbox: replay attempt failed",
				zap.String("entry_id", entry.ID),
				zap.Error(err),
			)
			continue
		}
		delivered = append(delivered, entry.ID)
	}

	if err := p.journal.Remove(delivered); err != nil {
		return 0, err
	}
	return len(delivered), nil
}

// StartReplayer runs Replay every interval until ctx is cancelled
func (p *Publisher) StartReplayer(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := p.Replay(ctx)
				if err != nil {
					logger.Log.Error("Outbox: replay failed", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Log.Info("Outbox: replayed publishes", zap.Int("count", n))
				}
			}
		}
	}()
}
