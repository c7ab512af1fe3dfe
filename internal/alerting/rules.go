package alerting

import (
	"fmt"
	"time"

	"github.com/ukydev/garage-workboard/internal/models"
)

const (
	overrunAlertMinutes = 15
	partsDelayGrace     = 4 * time.Hour
	staleReminderAge    = 24 * time.Hour
	utilizationFloor    = 0.5
)

// overrunRule aggregates in-progress jobs at least 15 minutes over
// their estimate. Severity escalates to critical when more than two
// jobs are overrunning at once.
func (e *Evaluator) overrunRule(snap models.BoardSnapshot, _ []models.WaitingCandidate, _ time.Time) *models.Alert {
	var vehicles []string
	total := 0
	for _, slot := range snap.Slots {
		for _, j := range slot.Jobs {
			if j.Status == models.StatusInProgress && j.OverrunMinutes >= overrunAlertMinutes {
				vehicles = append(vehicles, j.VehicleCode)
				total += j.OverrunMinutes
			}
		}
	}
	if len(vehicles) == 0 {
		return nil
	}
	severity := models.SeverityHigh
	if len(vehicles) > 2 {
		severity = models.SeverityCritical
	}
	loss := float64(total) * e.cfg.CostPerMinute
	return &models.Alert{
		Rule:          "overrun",
		Severity:      severity,
		Title:         "Jobs running over estimate",
		Description:   fmt.Sprintf("%d job(s) are %d minutes over estimate in total, estimated loss $%.2f", len(vehicles), total, loss),
		Vehicles:      vehicles,
		Actions:       []string{"review mechanic allocation", "notify waiting customers"},
		EstimatedLoss: loss,
	}
}

// partsDelayRule flags waiting_parts jobs whose expected arrival is
// more than four hours in the past. Critical if any delayed order was
// marked high urgency.
func (e *Evaluator) partsDelayRule(snap models.BoardSnapshot, _ []models.WaitingCandidate, now time.Time) *models.Alert {
	var vehicles []string
	critical := false
	for _, slot := range snap.Slots {
		for _, j := range slot.Jobs {
			if j.Status != models.StatusWaitingParts || j.Parts == nil || j.Parts.ExpectedArrival == nil {
				continue
			}
			if now.Sub(*j.Parts.ExpectedArrival) > partsDelayGrace {
				vehicles = append(vehicles, j.VehicleCode)
				if j.Parts.Urgency.Normalized() == models.PriorityHigh {
					critical = true
				}
			}
		}
	}
	if len(vehicles) == 0 {
		return nil
	}
	severity := models.SeverityHigh
	if critical {
		severity = models.SeverityCritical
	}
	return &models.Alert{
		Rule:        "parts_delay",
		Severity:    severity,
		Title:       "Parts deliveries overdue",
		Description: fmt.Sprintf("%d job(s) have parts more than %s past expected arrival", len(vehicles), partsDelayGrace),
		Vehicles:    vehicles,
		Actions:     []string{"chase suppliers", "re-slot blocked jobs"},
	}
}

// pausedJobsRule fires when more than one job is stopped at once.
func (e *Evaluator) pausedJobsRule(snap models.BoardSnapshot, _ []models.WaitingCandidate, _ time.Time) *models.Alert {
	var vehicles []string
	for _, slot := range snap.Slots {
		for _, j := range slot.Jobs {
			if j.Status == models.StatusPaused {
				vehicles = append(vehicles, j.VehicleCode)
			}
		}
	}
	if len(vehicles) <= 1 {
		return nil
	}
	return &models.Alert{
		Rule:        "paused_jobs",
		Severity:    models.SeverityMedium,
		Title:       "Multiple work stoppages",
		Description: fmt.Sprintf("%d jobs are paused simultaneously", len(vehicles)),
		Vehicles:    vehicles,
		Actions:     []string{"check pause reasons", "reassign idle mechanics"},
	}
}

// staleWaitingRule flags high-priority waiting candidates that have not
// been reminded for over 24 hours.
func (e *Evaluator) staleWaitingRule(_ models.BoardSnapshot, cands []models.WaitingCandidate, now time.Time) *models.Alert {
	var vehicles []string
	for _, c := range cands {
		if c.Priority.Normalized() != models.PriorityHigh {
			continue
		}
		if !c.LastReminder.IsZero() && now.Sub(c.LastReminder) > staleReminderAge {
			vehicles = append(vehicles, c.VehicleCode)
		}
	}
	if len(vehicles) == 0 {
		return nil
	}
	return &models.Alert{
		Rule:        "stale_high_priority",
		Severity:    models.SeverityCritical,
		Title:       "High-priority customers waiting without contact",
		Description: fmt.Sprintf("%d high-priority vehicle(s) have waited over 24h since the last reminder", len(vehicles)),
		Vehicles:    vehicles,
		Actions:     []string{"call the customers", "pull forward into today's slots"},
	}
}

// utilizationRule fires during working hours when fewer than half of
// more than two scheduled jobs are actually being worked on.
func (e *Evaluator) utilizationRule(snap models.BoardSnapshot, _ []models.WaitingCandidate, now time.Time) *models.Alert {
	hour := now.Hour()
	if hour < e.cfg.WorkdayStart || hour >= e.cfg.WorkdayEnd {
		return nil
	}
	var vehicles []string
	total, active := 0, 0
	for _, slot := range snap.Slots {
		for _, j := range slot.Jobs {
			if j.Status == models.StatusCompleted {
				continue
			}
			total++
			if j.Status == models.StatusInProgress {
				active++
			} else {
				vehicles = append(vehicles, j.VehicleCode)
			}
		}
	}
	if total <= 2 || float64(active)/float64(total) >= utilizationFloor {
		return nil
	}
	return &models.Alert{
		Rule:        "low_utilization",
		Severity:    models.SeverityMedium,
		Title:       "Low workshop utilization",
		Description: fmt.Sprintf("only %d of %d scheduled jobs are in progress", active, total),
		Vehicles:    vehicles,
		Actions:     []string{"start the next scheduled jobs", "check mechanic availability"},
	}
}
