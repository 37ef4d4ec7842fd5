package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// DueMode says which scheduling mode produced a result.
type DueMode string

const (
	ModeDistance DueMode = "DISTANCE"
	ModeTime     DueMode = "TIME"
)

// DueResult is the next preventive milestone for a vehicle.
type DueResult struct {
	Mode          DueMode   `json:"mode"`
	NextDueKM     int       `json:"next_due_km,omitempty"`
	NextDueDate   time.Time `json:"next_due_date,omitempty"`
	Description   string    `json:"description"`
	RemainingKM   int       `json:"remaining_km,omitempty"`
	DaysRemaining int       `json:"days_remaining,omitempty"`
	Overdue       bool      `json:"overdue"`
}

// ComputeDue calculates the next due milestone for a vehicle and its plan.
// It is a pure function: no I/O, no clock access beyond the now argument.
// The second return value is false when no schedule can be computed (no
// tasks, or time mode without a service date); callers must not raise an
// alert in that case.
//
// Distance mode applies while the odometer is trusted: the delta since the
// last service picks the first task at or past it, ascending by milestone.
// When the delta exhausts every milestone, scheduling falls back to a
// repeating cycle of the smallest interval.
//
// Time mode applies when the odometer was reported unreliable: the next due
// date is the last service date plus timeFallbackDays.
func ComputeDue(v models.Vehicle, plan models.MaintenancePlan, tasks []models.ManualTask, now time.Time, timeFallbackDays int) (DueResult, bool) {
	if v.OdometerStatus == models.OdometerInvalid {
		if plan.LastServiceDate == nil {
			return DueResult{}, false
		}
		nextDue := plan.LastServiceDate.AddDate(0, 0, timeFallbackDays)
		days := daysBetween(now, nextDue)
		return DueResult{
			Mode:          ModeTime,
			NextDueDate:   nextDue,
			Description:   fmt.Sprintf("time-based service every %d days", timeFallbackDays),
			DaysRemaining: days,
			Overdue:       days <= 0,
		}, true
	}

	if len(tasks) == 0 {
		return DueResult{}, false
	}
	sorted := make([]models.ManualTask, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].KMInterval < sorted[j].KMInterval })

	base := plan.LastServiceKM
	current := v.CurrentOdometerKM
	delta := current - base
	if delta < 0 {
		delta = 0
	}

	var nextDueKM int
	var desc string
	found := false
	for _, t := range sorted {
		// first milestone at or past the delta wins, never a later one
		if t.KMInterval >= delta {
			nextDueKM = base + t.KMInterval
			desc = t.Description
			found = true
			break
		}
	}
	if !found {
		period := sorted[0].KMInterval
		if period <= 0 {
			return DueResult{}, false
		}
		nextDueKM = base + (delta/period+1)*period
		desc = fmt.Sprintf("cycle every %d km", period)
	}

	remaining := nextDueKM - current
	return DueResult{
		Mode:        ModeDistance,
		NextDueKM:   nextDueKM,
		Description: desc,
		RemainingKM: remaining,
		Overdue:     remaining <= 0,
	}, true
}

// daysBetween counts whole calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
