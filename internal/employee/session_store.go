package employee

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps the branch set of each live employee session. Socket
// gateways read it when scoping what a connected client may see.
//
//go:generate mockgen -source=session_store.go -destination=mock/session_store_mock.go -package=mock
type SessionStore interface {
	SetWorkBranches(ctx context.Context, companyID, employeeID string, branchIDs []string) error
	GetWorkBranches(ctx context.Context, companyID, employeeID string) ([]string, error)
}

const sessionBranchTTL = 12 * time.Hour

type redisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) SessionStore {
	return &redisSessionStore{rdb: rdb}
}

func sessionBranchKey(companyID, employeeID string) string {
	return fmt.Sprintf("session:%s:branches:%s", companyID, employeeID)
}

func (s *redisSessionStore) SetWorkBranches(ctx context.Context, companyID, employeeID string, branchIDs []string) error {
	data, err := json.Marshal(branchIDs)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionBranchKey(companyID, employeeID), data, sessionBranchTTL).Err()
}

func (s *redisSessionStore) GetWorkBranches(ctx context.Context, companyID, employeeID string) ([]string, error) {
	data, err := s.rdb.Get(ctx, sessionBranchKey(companyID, employeeID)).Result()
	if err != nil {
		return nil, err
	}

	var branchIDs []string
	if err := json.Unmarshal([]byte(data), &branchIDs); err != nil {
		return nil, err
	}
	return branchIDs, nil
}
