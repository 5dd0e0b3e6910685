package shift_test

import (
	"testing"
	"time"

	"go-workforce/internal/shift"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTrackedChanges(t *testing.T) {
	branchA := uuid.New()
	branchB := uuid.New()
	emp := uuid.New()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	base := func() *shift.Shift {
		return &shift.Shift{
			BranchID:       branchA,
			EmployeeID:     &emp,
			StartsAt:       start,
			EndsAt:         end,
			AllocatedHours: 8,
		}
	}

	t.Run("identical payload yields no changes", func(t *testing.T) {
		incoming := base()
		// Same instant in another zone must still count as unchanged.
		incoming.StartsAt = start.In(time.FixedZone("X", 3*3600))

		changes := shift.TrackedChanges(base(), incoming)
		assert.Empty(t, changes)
	})

	t.Run("moved start and branch are both reported", func(t *testing.T) {
		incoming := base()
		incoming.StartsAt = start.Add(30 * time.Minute)
		incoming.BranchID = branchB

		changes := shift.TrackedChanges(base(), incoming)
		assert.Len(t, changes, 2)
		assert.Contains(t, changes, "starts_at")
		assert.Contains(t, changes, "branch_id")
	})

	t.Run("unassignment is a change", func(t *testing.T) {
		incoming := base()
		incoming.EmployeeID = nil

		changes := shift.TrackedChanges(base(), incoming)
		assert.Contains(t, changes, "employee_id")
	})
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, shift.IsAllowedStatusTransition(shift.StatusOpen, shift.StatusActive))
	assert.True(t, shift.IsAllowedStatusTransition(shift.StatusOpen, shift.StatusEnded))
	assert.True(t, shift.IsAllowedStatusTransition(shift.StatusActive, shift.StatusEnded))
	assert.False(t, shift.IsAllowedStatusTransition(shift.StatusEnded, shift.StatusActive))
	assert.False(t, shift.IsAllowedStatusTransition(shift.StatusActive, shift.StatusOpen))

	assert.True(t, shift.IsAllowedCheckInTransition(shift.CheckInNone, shift.CheckInCheckedIn))
	assert.True(t, shift.IsAllowedCheckInTransition(shift.CheckInCheckedIn, shift.CheckInCheckedOut))
	assert.False(t, shift.IsAllowedCheckInTransition(shift.CheckInCheckedOut, shift.CheckInCheckedIn))
}
