package events

import "time"

const AuthorizationLifecycleTopic = "workforce.authorization.lifecycle.v1"

const (
	AuthorizationCreated  = "authorization_created"
	AuthorizationResolved = "authorization_resolved"
)

type AuthorizationLifecycleEvent struct {
	EventType         string    `json:"event_type"`
	AuthorizationID   string    `json:"authorization_id"`
	ShiftID           string    `json:"shift_id"`
	CompanyID         string    `json:"company_id"`
	AuthorizationType string    `json:"authorization_type"`
	Status            string    `json:"status"`
	Minutes           int       `json:"minutes"`
	OccurredAt        time.Time `json:"occurred_at"`
}
