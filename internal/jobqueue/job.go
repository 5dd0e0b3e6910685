package jobqueue

import (
	"fmt"
	"time"
)

// Purposes double as handler registry keys.
const (
	PurposeEarlyCheckInReview = "early_check_in_review"
)

const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

const DefaultMaxRetries = 3

// Job is one durable deferred unit of work on the master store. SingletonKey
// is unique among outstanding jobs; scheduling a duplicate is silently
// dropped. Exhausted or finished jobs move to the archive table so nothing
// is ever deleted outright.
type Job struct {
	ID           int64
	SingletonKey string
	TenantID     string
	Purpose      string
	Payload      []byte
	RunAt        time.Time
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
}

// SingletonKey builds the dedupe key: tenant, the record the job is about
// (usually a shift log id) and the purpose.
func SingletonKey(tenantID, ref, purpose string) string {
	return fmt.Sprintf("%s:%s:%s", tenantID, ref, purpose)
}

// backoffDelay doubles from 30s per failed attempt: 30s, 1m, 2m, ...
func backoffDelay(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	exp := retryCount - 1
	if exp > 10 {
		exp = 10
	}
	return time.Duration(1<<exp) * 30 * time.Second
}
