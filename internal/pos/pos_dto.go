package pos

type EventResponse struct {
	ID         string   `json:"id"`
	BranchID   string   `json:"branch_id"`
	Type       string   `json:"type"`
	SessionRef string   `json:"session_ref,omitempty"`
	Amount     *float64 `json:"amount,omitempty"`
	Currency   *string  `json:"currency,omitempty"`
	OccurredAt string   `json:"occurred_at"`
}
