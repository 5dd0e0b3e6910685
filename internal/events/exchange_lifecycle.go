package events

import "time"

const ExchangeLifecycleTopic = "workforce.exchange.lifecycle.v1"

const (
	ExchangeProposed         = "exchange_proposed"
	ExchangeEmployeeAccepted = "exchange_employee_accepted"
	ExchangeEmployeeRejected = "exchange_employee_rejected"
	ExchangeApproved         = "exchange_approved"
	ExchangeRejected         = "exchange_rejected"
)

type ExchangeLifecycleEvent struct {
	EventType          string    `json:"event_type"`
	RequestID          string    `json:"request_id"`
	Reference          string    `json:"reference"`
	RequesterCompanyID string    `json:"requester_company_id"`
	AcceptorCompanyID  string    `json:"acceptor_company_id"`
	Status             string    `json:"status"`
	ApprovalStage      string    `json:"approval_stage"`
	OccurredAt         time.Time `json:"occurred_at"`
}
