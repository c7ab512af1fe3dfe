package sources

import (
	"context"
	"time"

	"github.com/ukydev/garage-workboard/internal/models"
)

// The three upstream feeds expose source-specific record shapes; this
// package owns one normalizer per source (a closed set) rather than
// duck-typed field probing.

// AttentionRecord comes from the priority-attention list: vehicles an
// advisor has flagged, some carrying an urgent tier.
type AttentionRecord struct {
	VehicleCode    string     `json:"vehicle_code" bson:"vehicle_code"`
	Model          string     `json:"model" bson:"model"`
	Complaint      string     `json:"complaint" bson:"complaint"`
	Tier           string     `json:"tier" bson:"tier"` // "urgent", "high", "medium", "low"
	WorkType       string     `json:"work_type" bson:"work_type"`
	ClientName     string     `json:"client_name" bson:"client_name"`
	FlaggedAt      time.Time  `json:"flagged_at" bson:"flagged_at"`
	RemindedAt     *time.Time `json:"reminded_at,omitempty" bson:"reminded_at,omitempty"`
	EstimatedHours float64    `json:"estimated_hours" bson:"estimated_hours"`
}

// WaitingRecord comes from the generic waiting list kept at the front
// desk.
type WaitingRecord struct {
	Plate        string     `json:"plate" bson:"plate"`
	VehicleModel string     `json:"vehicle_model" bson:"vehicle_model"`
	Issue        string     `json:"issue" bson:"issue"`
	Category     string     `json:"category" bson:"category"` // maps to work type
	Importance   string     `json:"importance" bson:"importance"`
	WaitingSince time.Time  `json:"waiting_since" bson:"waiting_since"`
	LastReminded *time.Time `json:"last_reminded,omitempty" bson:"last_reminded,omitempty"`
	Hours        float64    `json:"hours" bson:"hours"`
	Location     string     `json:"location" bson:"location"`
}

// InventoryRecord comes from the live on-premises inventory feed.
type InventoryRecord struct {
	Code           string    `json:"code" bson:"code"`
	Model          string    `json:"model" bson:"model"`
	Owner          string    `json:"owner" bson:"owner"`
	Notes          string    `json:"notes" bson:"notes"`
	WorkType       string    `json:"work_type" bson:"work_type"`
	Priority       string    `json:"priority" bson:"priority"`
	ArrivedAt      time.Time `json:"arrived_at" bson:"arrived_at"`
	Assigned       bool      `json:"assigned" bson:"assigned"`
	EstimatedHours float64   `json:"estimated_hours" bson:"estimated_hours"`
	Bay            string    `json:"bay" bson:"bay"`
}

// AttentionFeed lists the current priority-attention records.
type AttentionFeed interface {
	ListAttention(ctx context.Context) ([]AttentionRecord, error)
}

// WaitingListFeed lists the current waiting-list records.
type WaitingListFeed interface {
	ListWaiting(ctx context.Context) ([]WaitingRecord, error)
}

// InventoryFeed lists vehicles currently on the premises.
type InventoryFeed interface {
	ListInventory(ctx context.Context) ([]InventoryRecord, error)
}

// Days-waiting escalation thresholds. The attention list uses the long
// urgent threshold; the generic lists use the short one.
const (
	shortEscalationDays  = 14
	urgentEscalationDays = 300
)

const (
	sourceAttention = "attention"
	sourceWaiting   = "waiting_list"
	sourceInventory = "inventory"
)

func daysSince(t, now time.Time) int {
	if t.IsZero() || t.After(now) {
		return 0
	}
	return int(now.Sub(t).Hours() / 24)
}

// escalate upgrades a candidate's priority to high once it has waited
// past the threshold. Highest wins: escalation never downgrades an
// explicitly high candidate.
func escalate(p models.Priority, daysWaiting, thresholdDays int) models.Priority {
	p = p.Normalized()
	if daysWaiting > thresholdDays {
		return models.PriorityHigh
	}
	if p != models.PriorityHigh && p != models.PriorityMedium && p != models.PriorityLow {
		return models.PriorityMedium
	}
	return p
}

func workTypeOrDefault(s string) models.WorkType {
	switch models.WorkType(s) {
	case models.WorkElectrical, models.WorkMechanical, models.WorkBodyWork, models.WorkPainter, models.WorkDetailer:
		return models.WorkType(s)
	default:
		return models.WorkMechanical
	}
}

func normalizeAttention(rec AttentionRecord, now time.Time) models.WaitingCandidate {
	days := daysSince(rec.FlaggedAt, now)
	reminder := rec.FlaggedAt
	if rec.RemindedAt != nil {
		reminder = *rec.RemindedAt
	}
	return models.WaitingCandidate{
		Source:         sourceAttention,
		VehicleCode:    rec.VehicleCode,
		Model:          rec.Model,
		Issue:          rec.Complaint,
		WorkType:       workTypeOrDefault(rec.WorkType),
		Priority:       escalate(models.Priority(rec.Tier), days, urgentEscalationDays),
		DaysWaiting:    days,
		EstimatedHours: rec.EstimatedHours,
		ClientName:     rec.ClientName,
		LastReminder:   reminder,
	}
}

func normalizeWaiting(rec WaitingRecord, now time.Time) models.WaitingCandidate {
	days := daysSince(rec.WaitingSince, now)
	reminder := rec.WaitingSince
	if rec.LastReminded != nil {
		reminder = *rec.LastReminded
	}
	return models.WaitingCandidate{
		Source:         sourceWaiting,
		VehicleCode:    rec.Plate,
		Model:          rec.VehicleModel,
		Issue:          rec.Issue,
		WorkType:       workTypeOrDefault(rec.Category),
		Priority:       escalate(models.Priority(rec.Importance), days, shortEscalationDays),
		DaysWaiting:    days,
		EstimatedHours: rec.Hours,
		Location:       rec.Location,
		LastReminder:   reminder,
	}
}

func normalizeInventory(rec InventoryRecord, now time.Time) models.WaitingCandidate {
	days := daysSince(rec.ArrivedAt, now)
	return models.WaitingCandidate{
		Source:         sourceInventory,
		VehicleCode:    rec.Code,
		Model:          rec.Model,
		Issue:          rec.Notes,
		WorkType:       workTypeOrDefault(rec.WorkType),
		Priority:       escalate(models.Priority(rec.Priority), days, shortEscalationDays),
		DaysWaiting:    days,
		EstimatedHours: rec.EstimatedHours,
		ClientName:     rec.Owner,
		Location:       rec.Bay,
		LastReminder:   rec.ArrivedAt,
	}
}
