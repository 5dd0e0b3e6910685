package rbac

type PermissionResponse struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

type PermissionsResponse struct {
	Role        string               `json:"role"`
	Permissions []PermissionResponse `json:"permissions"`
}

func mapToPermissionsResponse(role string, rules []PermissionRule) PermissionsResponse {
	out := PermissionsResponse{
		Role:        role,
		Permissions: make([]PermissionResponse, 0, len(rules)),
	}
	for _, rule := range rules {
		out.Permissions = append(out.Permissions, PermissionResponse{
			Resource: rule.Resource,
			Action:   rule.Action,
		})
	}
	return out
}
