package exchange

import "time"

// Actor is the authenticated user acting on the workflow. UserKey is the
// cross-company identity carried by the token, which is what approver
// checks resolve in both tenant stores.
type Actor struct {
	CompanyID  string
	EmployeeID string
	UserKey    string
	Role       string
}

type ProposeRequest struct {
	ShiftID         string `json:"shift_id" binding:"required,uuid"`
	TargetCompanyID string `json:"target_company_id" binding:"required"`
	TargetShiftID   string `json:"target_shift_id" binding:"required,uuid"`
}

type EmployeeRespondRequest struct {
	Accept bool    `json:"accept"`
	Reason *string `json:"reason" binding:"omitempty,max=500"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type PartyResponse struct {
	CompanyID  string `json:"company_id"`
	ShiftID    string `json:"shift_id"`
	EmployeeID string `json:"employee_id"`
	UserKey    string `json:"user_key"`
	BranchID   string `json:"branch_id"`
}

type ExchangeResponse struct {
	ID                  string        `json:"id"`
	Reference           string        `json:"reference"`
	Requester           PartyResponse `json:"requester"`
	Acceptor            PartyResponse `json:"acceptor"`
	Status              string        `json:"status"`
	ApprovalStage       string        `json:"approval_stage"`
	ApproverMode        string        `json:"approver_mode,omitempty"`
	EmployeeRespondedAt *string       `json:"employee_responded_at,omitempty"`
	ResolvedAt          *string       `json:"resolved_at,omitempty"`
	ResolvedByUserKey   *string       `json:"resolved_by_user_key,omitempty"`
	RejectionReason     *string       `json:"rejection_reason,omitempty"`
	CreatedAt           string        `json:"created_at"`
	UpdatedAt           string        `json:"updated_at"`
}

// EligibleTarget is one (shift, tenant) pair the requester could swap with,
// as recomputed at listing or propose time.
type EligibleTarget struct {
	CompanyID    string    `json:"company_id"`
	CompanyName  string    `json:"company_name"`
	ShiftID      string    `json:"shift_id"`
	BranchID     string    `json:"branch_id"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	CrossTenant  bool      `json:"cross_tenant"`
}

func mapPartyToResponse(p Party) PartyResponse {
	return PartyResponse{
		CompanyID:  p.CompanyID,
		ShiftID:    p.ShiftID.String(),
		EmployeeID: p.EmployeeID.String(),
		UserKey:    p.UserKey,
		BranchID:   p.BranchID.String(),
	}
}

func mapToResponse(r ExchangeRequest, approverMode string) ExchangeResponse {
	resp := ExchangeResponse{
		ID:              r.ID.String(),
		Reference:       r.Reference,
		Requester:       mapPartyToResponse(r.Requester),
		Acceptor:        mapPartyToResponse(r.Acceptor),
		Status:          r.Status,
		ApprovalStage:   r.ApprovalStage,
		ApproverMode:    approverMode,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
	}
	if r.EmployeeRespondedAt != nil {
		v := r.EmployeeRespondedAt.Format(time.RFC3339)
		resp.EmployeeRespondedAt = &v
	}
	if r.ResolvedAt != nil {
		v := r.ResolvedAt.Format(time.RFC3339)
		resp.ResolvedAt = &v
	}
	if r.ResolvedByUserKey != nil {
		v := *r.ResolvedByUserKey
		resp.ResolvedByUserKey = &v
	}
	return resp
}

func mapToListResponse(rows []ExchangeRequest) []ExchangeResponse {
	out := make([]ExchangeResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapToResponse(row, ""))
	}
	return out
}
