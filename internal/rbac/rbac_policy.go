package rbac

import (
	"sort"

	"go-workforce/internal/employee"
)

// PermissionRule grants one resource/action pair to a role.
type PermissionRule struct {
	Role     string
	Resource string
	Action   string
}

// rolePolicies is the fixed permission matrix. Roles live on the employee
// rows synced from the ERP, so there is no role management surface and the
// matrix ships with the binary. Each role only lists what it adds on top of
// the role it inherits.
var rolePolicies = []PermissionRule{
	{employee.RoleEmployee, "authorization", "read"},
	{employee.RoleEmployee, "authorization", "respond"},
	{employee.RoleEmployee, "exchange", "read"},
	{employee.RoleEmployee, "exchange", "propose"},
	{employee.RoleEmployee, "exchange", "respond"},

	{employee.RoleManager, "authorization", "approve"},
	{employee.RoleManager, "exchange", "approve"},
	{employee.RoleManager, "pos", "read"},
}

// roleInheritance links each role to the one it subsumes.
var roleInheritance = []struct {
	Role     string
	Inherits string
}{
	{employee.RoleManager, employee.RoleEmployee},
	{employee.RoleHR, employee.RoleManager},
}

// grantsFor resolves the transitive grants of a role through the
// inheritance chain.
func grantsFor(role string) []PermissionRule {
	seen := make(map[string]bool)
	var out []PermissionRule
	for r := role; r != "" && !seen[r]; {
		seen[r] = true
		for _, rule := range rolePolicies {
			if rule.Role == r {
				out = append(out, rule)
			}
		}
		next := ""
		for _, link := range roleInheritance {
			if link.Role == r {
				next = link.Inherits
				break
			}
		}
		r = next
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Resource != out[j].Resource {
			return out[i].Resource < out[j].Resource
		}
		return out[i].Action < out[j].Action
	})
	return out
}
