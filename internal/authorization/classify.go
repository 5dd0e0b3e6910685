package authorization

import "time"

// Verdict is the outcome of classifying one attendance event against its
// shift schedule. Minutes is the magnitude of the deviation, always
// non-negative.
type Verdict struct {
	Type                string
	Minutes             int
	Status              string
	NeedsEmployeeReason bool
}

// CheckInOutcome carries at most one of a synchronous verdict or a deferral
// instant. Both nil means the punch landed exactly on the scheduled start
// and nothing is recorded.
type CheckInOutcome struct {
	Verdict *Verdict
	// DeferUntil is set for punches before the scheduled start: the early
	// check-in decision is postponed until one minute past the start so a
	// late shift edit can still turn the punch into an on-time one.
	DeferUntil *time.Time
}

// ClassifyCheckIn applies the check-in rules: strictly after the scheduled
// start is tardiness, strictly before defers, equal is silent.
func ClassifyCheckIn(scheduledStart, at time.Time) CheckInOutcome {
	switch {
	case at.After(scheduledStart):
		return CheckInOutcome{Verdict: &Verdict{
			Type:                TypeTardiness,
			Minutes:             minutesBetween(scheduledStart, at),
			Status:              StatusPending,
			NeedsEmployeeReason: true,
		}}
	case at.Before(scheduledStart):
		recheck := scheduledStart.Add(time.Minute)
		return CheckInOutcome{DeferUntil: &recheck}
	default:
		return CheckInOutcome{}
	}
}

// ClassifyEarlyCheckIn builds the verdict the deferred review creates once
// the punch is confirmed to still precede the scheduled start.
func ClassifyEarlyCheckIn(scheduledStart, at time.Time) Verdict {
	return Verdict{
		Type:                TypeEarlyCheckIn,
		Minutes:             minutesBetween(at, scheduledStart),
		Status:              StatusPending,
		NeedsEmployeeReason: false,
	}
}

// ClassifyCheckOut applies the check-out rules: before the scheduled end is
// an informational early check-out, after it a pending late check-out. An
// exact match records nothing.
func ClassifyCheckOut(scheduledEnd, at time.Time) *Verdict {
	switch {
	case at.Before(scheduledEnd):
		return &Verdict{
			Type:                TypeEarlyCheckOut,
			Minutes:             minutesBetween(at, scheduledEnd),
			Status:              StatusNoApprovalNeeded,
			NeedsEmployeeReason: false,
		}
	case at.After(scheduledEnd):
		return &Verdict{
			Type:                TypeLateCheckOut,
			Minutes:             minutesBetween(scheduledEnd, at),
			Status:              StatusPending,
			NeedsEmployeeReason: true,
		}
	default:
		return nil
	}
}

// ClassifyOvertime compares the worked minutes reported by the source
// system against the allocated minutes of the shift. Nil when there is no
// overage.
func ClassifyOvertime(allocatedMinutes, workedMinutes int) *Verdict {
	if workedMinutes <= allocatedMinutes {
		return nil
	}
	return &Verdict{
		Type:                TypeOvertime,
		Minutes:             workedMinutes - allocatedMinutes,
		Status:              StatusPending,
		NeedsEmployeeReason: true,
	}
}

func minutesBetween(from, to time.Time) int {
	return int(to.Sub(from) / time.Minute)
}
