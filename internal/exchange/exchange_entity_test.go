package exchange

import (
	"testing"

	"go-workforce/internal/employee"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIsForwardStageTransition(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"employee stage advances to hr", StageAwaitingEmployee, StageAwaitingHR, true},
		{"hr stage advances to resolved", StageAwaitingHR, StageResolved, true},
		{"employee rejection resolves directly", StageAwaitingEmployee, StageResolved, true},
		{"stage never moves backwards", StageAwaitingHR, StageAwaitingEmployee, false},
		{"resolved is terminal", StageResolved, StageAwaitingHR, false},
		{"no self transition", StageAwaitingHR, StageAwaitingHR, false},
		{"unknown source", "archived", StageResolved, false},
		{"unknown destination", StageAwaitingEmployee, "archived", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsForwardStageTransition(tc.from, tc.to))
		})
	}
}

func TestCompanyIDs(t *testing.T) {
	cross := ExchangeRequest{
		Requester: Party{CompanyID: "c-1", ShiftID: uuid.New()},
		Acceptor:  Party{CompanyID: "c-2", ShiftID: uuid.New()},
	}
	assert.True(t, cross.IsCrossTenant())
	assert.Equal(t, []string{"c-1", "c-2"}, cross.CompanyIDs())

	same := ExchangeRequest{
		Requester: Party{CompanyID: "c-1", ShiftID: uuid.New()},
		Acceptor:  Party{CompanyID: "c-1", ShiftID: uuid.New()},
	}
	assert.False(t, same.IsCrossTenant())
	assert.Equal(t, []string{"c-1"}, same.CompanyIDs())
}

func TestRoleForApproverMode(t *testing.T) {
	assert.Equal(t, employee.RoleHR, RoleForApproverMode(ApproverModeHR))
	assert.Equal(t, employee.RoleManager, RoleForApproverMode(ApproverModeManagement))
}
