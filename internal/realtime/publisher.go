package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// UserRoom addresses one employee's live session.
func UserRoom(employeeID string) string {
	return "user:" + employeeID
}

// BranchRoom addresses everyone watching a branch dashboard.
func BranchRoom(branchID string) string {
	return "branch:" + branchID
}

// Message is the wire shape pushed to socket gateways.
type Message struct {
	Event      string    `json:"event"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher fans events out to live sessions. Delivery is best effort:
// callers log failures and move on, a lost push never fails the operation
// that produced it.
//
//go:generate mockgen -source=publisher.go -destination=mock/publisher_mock.go -package=mock
type Publisher interface {
	Publish(ctx context.Context, companyID, room, event string, payload any) error
}

type redisPublisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisPublisher(rdb *redis.Client, logger ...*zap.Logger) Publisher {
	l := zap.L().Named("realtime.publisher")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("realtime.publisher")
	}
	return &redisPublisher{rdb: rdb, logger: l}
}

// Channel layout: rt:{company_id}:{room}. Socket gateways subscribe by
// pattern per company.
func channelFor(companyID, room string) string {
	return fmt.Sprintf("rt:%s:%s", companyID, room)
}

func (p *redisPublisher) Publish(ctx context.Context, companyID, room, event string, payload any) error {
	msg := Message{
		Event:      event,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if err := p.rdb.Publish(ctx, channelFor(companyID, room), data).Err(); err != nil {
		p.logger.Warn("realtime publish failed",
			zap.String("company_id", companyID),
			zap.String("room", room),
			zap.String("event", event),
			zap.Error(err),
		)
		return err
	}

	return nil
}
