package producer

import (
	"context"
	"time"

	"go-workforce/internal/messaging/kafka"
	"go-workforce/internal/tenant"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunOutboxRelay drains the outbox of every store, the master database plus
// each active tenant, until ctx is cancelled. The tenant list is re-read on
// every tick so newly registered tenants are picked up without a restart.
func RunOutboxRelay(
	ctx context.Context,
	registry tenant.Registry,
	writer *kafkago.Writer,
	logger *zap.Logger,
	pollInterval time.Duration,
) {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}

	log := logger.Named("kafka.producer.relay")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Info("outbox relay started", zap.Duration("poll_interval", pollInterval))

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox relay stopped")
			return
		case <-ticker.C:
			relayTick(ctx, registry, writer, log)
		}
	}
}

func relayTick(ctx context.Context, registry tenant.Registry, writer *kafkago.Writer, log *zap.Logger) {
	master := registry.Master()
	if err := processPendingEvents(ctx, kafka.NewOutboxRepository(master.DB), writer, log.With(zap.String("store", "master"))); err != nil {
		log.Error("process master outbox failed", zap.Error(err))
	}

	handles, err := registry.List(ctx)
	if err != nil {
		log.Error("list tenants for outbox relay failed", zap.Error(err))
		return
	}

	for _, h := range handles {
		storeLog := log.With(zap.String("store", h.CompanyID))
		if err := processPendingEvents(ctx, kafka.NewOutboxRepository(h.DB), writer, storeLog); err != nil {
			storeLog.Error("process tenant outbox failed", zap.Error(err))
		}
	}
}

func processPendingEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer *kafkago.Writer,
	logger *zap.Logger,
) error {
	events, err := repo.ListPending(ctx, 50)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	logger.Info("processing pending outbox events", zap.Int("count", len(events)))

	for _, event := range events {
		if err := publishEvent(ctx, writer, event); err != nil {
			logger.Error("publish outbox event failed",
				zap.String("outbox_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.String("topic", event.Topic),
				zap.Error(err),
			)
			_ = repo.MarkFailed(ctx, event.ID, err.Error())
			continue
		}

		if err := repo.MarkSent(ctx, event.ID); err != nil {
			logger.Error("mark outbox sent failed",
				zap.String("outbox_id", event.ID),
				zap.Error(err),
			)
			continue
		}

		logger.Info("outbox event sent",
			zap.String("outbox_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.String("topic", event.Topic),
		)
	}

	return nil
}
