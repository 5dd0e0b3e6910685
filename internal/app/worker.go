package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-workforce/internal/authorization"
	"go-workforce/internal/jobqueue"
	"go-workforce/internal/messaging/kafka/producer"
	"go-workforce/internal/notification"
	"go-workforce/internal/realtime"
	"go-workforce/internal/shared/connection"
	"go-workforce/internal/tenant"

	"go.uber.org/zap"
)

// RunWorker hosts the deferred-job poller and the outbox relay in one
// process. Both drain on SIGINT/SIGTERM before the process exits.
func RunWorker() error {
	logger := zap.L().Named("app.worker")

	masterDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := masterDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	rdb, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	defer rdb.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(kafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	registry, err := tenant.NewRegistry(masterDB)
	if err != nil {
		return err
	}

	rt := realtime.NewRedisPublisher(rdb)
	notifier := notification.NewService(rt)
	jobRepo := jobqueue.NewRepository(sqlDB)
	scheduler := jobqueue.NewScheduler(jobRepo, jobqueue.DefaultMaxRetries)
	authorizationService := authorization.NewService(registry, scheduler, notifier, rt)

	worker := jobqueue.NewWorker(jobRepo, 5*time.Second, logger)
	worker.Register(jobqueue.PurposeEarlyCheckInReview, authorizationService.ReviewEarlyCheckIn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker.Start(ctx)

	go producer.RunOutboxRelay(
		ctx,
		registry,
		kafkaWriter,
		logger,
		3*time.Second,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer drainCancel()
	if err := worker.Stop(drainCtx); err != nil {
		logger.Warn("job worker stopped before the in-flight job finished", zap.Error(err))
	}

	return nil
}
