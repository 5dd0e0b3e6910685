package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-workforce/internal/authorization"
	"go-workforce/internal/employee"
	"go-workforce/internal/erpsync"
	"go-workforce/internal/events"
	"go-workforce/internal/jobqueue"
	"go-workforce/internal/messaging/kafka/consumer"
	"go-workforce/internal/notification"
	"go-workforce/internal/pos"
	"go-workforce/internal/realtime"
	"go-workforce/internal/shared/connection"
	"go-workforce/internal/tenant"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer applies the ERP sync stream for environments where the ERP
// publishes to Kafka instead of calling the webhooks. Messages stay
// uncommitted on transient failures so the broker redelivers them.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

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

	registry, err := tenant.NewRegistry(masterDB)
	if err != nil {
		return err
	}

	rt := realtime.NewRedisPublisher(rdb)
	notifier := notification.NewService(rt)
	sessions := employee.NewRedisSessionStore(rdb)
	scheduler := jobqueue.NewScheduler(jobqueue.NewRepository(sqlDB), jobqueue.DefaultMaxRetries)

	employeeService := employee.NewService(sessions, rt)
	authorizationService := authorization.NewService(registry, scheduler, notifier, rt)
	posService := pos.NewService(rt)
	syncService := erpsync.NewService(employeeService, authorizationService, posService, rt)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.ERPSyncTopic,
		GroupID:        "go-workforce-erp-sync",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeERPSync(ctx, reader, registry, syncService, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
