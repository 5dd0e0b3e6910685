package employee

type EmployeeResponse struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	UserKey      string `json:"user_key"`
	Role         string `json:"role"`
	HomeBranchID string `json:"home_branch_id,omitempty"`
	IsActive     bool   `json:"is_active"`
	IsSuspended  bool   `json:"is_suspended"`
}

type WorkBranchesResponse struct {
	EmployeeID string   `json:"employee_id"`
	BranchIDs  []string `json:"branch_ids"`
}
