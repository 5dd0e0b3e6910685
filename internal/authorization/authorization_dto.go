package authorization

type SubmitReasonRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ApproveRequest struct {
	OvertimeSubtype *string `json:"overtime_subtype" binding:"omitempty,oneof=paid time_off_in_lieu"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type AuthorizationResponse struct {
	ID                  string  `json:"id"`
	ShiftID             string  `json:"shift_id"`
	ShiftLogID          string  `json:"shift_log_id"`
	BranchID            string  `json:"branch_id"`
	EmployeeID          *string `json:"employee_id,omitempty"`
	Type                string  `json:"type"`
	Minutes             int     `json:"minutes"`
	Status              string  `json:"status"`
	NeedsEmployeeReason bool    `json:"needs_employee_reason"`
	EmployeeReason      *string `json:"employee_reason,omitempty"`
	OvertimeSubtype     *string `json:"overtime_subtype,omitempty"`
	ResolvedBy          *string `json:"resolved_by,omitempty"`
	ResolvedAt          *string `json:"resolved_at,omitempty"`
	RejectionReason     *string `json:"rejection_reason,omitempty"`
	CreatedAt           string  `json:"created_at"`
}
