package models

import (
	"time"
)

// JobStatus is the repair lifecycle state of a Job.
type JobStatus string

const (
	StatusScheduled    JobStatus = "scheduled"
	StatusInProgress   JobStatus = "in_progress"
	StatusPaused       JobStatus = "paused"
	StatusWaitingParts JobStatus = "waiting_parts"
	StatusCompleted    JobStatus = "completed" // terminal
)

// Priority of a job or waiting candidate.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	// PriorityUrgent appears in the attention feed only; it collapses
	// into high when sources are merged.
	PriorityUrgent Priority = "urgent"
)

// Normalized maps the source-only urgent tier onto high.
func (p Priority) Normalized() Priority {
	if p == PriorityUrgent {
		return PriorityHigh
	}
	return p
}

// Rank orders priorities for sorting; lower sorts first.
func (p Priority) Rank() int {
	switch p.Normalized() {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// WorkType classifies which bay/specialist a job needs.
type WorkType string

const (
	WorkElectrical WorkType = "electrical"
	WorkMechanical WorkType = "mechanical"
	WorkBodyWork   WorkType = "body_work"
	WorkPainter    WorkType = "painter"
	WorkDetailer   WorkType = "detailer"
)

// PauseInfo records why and by whom an in-progress job was stopped.
type PauseInfo struct {
	Reason          string     `json:"reason" bson:"reason"`
	PausedBy        string     `json:"paused_by" bson:"paused_by"`
	PausedAt        time.Time  `json:"paused_at" bson:"paused_at"`
	EstimatedResume *time.Time `json:"estimated_resume,omitempty" bson:"estimated_resume,omitempty"`
	OwnerNotified   bool       `json:"owner_notified" bson:"owner_notified"`
}

// PartsNeeded records the order a waiting_parts job is blocked on.
type PartsNeeded struct {
	PartID          string     `json:"part_id" bson:"part_id"`
	Quantity        int        `json:"quantity" bson:"quantity"`
	Supplier        string     `json:"supplier" bson:"supplier"`
	Urgency         Priority   `json:"urgency" bson:"urgency"`
	OrderedAt       *time.Time `json:"ordered_at,omitempty" bson:"ordered_at,omitempty"`
	ExpectedArrival *time.Time `json:"expected_arrival,omitempty" bson:"expected_arrival,omitempty"`
}

// Job represents a unit of scheduled repair work tied to one vehicle
// and at most one time slot.
type Job struct {
	ID           string   `json:"id" bson:"_id"`
	VehicleCode  string   `json:"vehicle_code" bson:"vehicle_code"`
	Model        string   `json:"model" bson:"model"`
	CustomerName string   `json:"customer_name" bson:"customer_name"`
	WorkType     WorkType `json:"work_type" bson:"work_type"`
	Priority     Priority `json:"priority" bson:"priority"`

	// SlotID is empty while the job is unscheduled.
	SlotID string `json:"slot_id,omitempty" bson:"slot_id,omitempty"`
	// EstimatedDuration holds estimates like "2h", "90m" or "1h30m".
	EstimatedDuration string `json:"estimated_duration" bson:"estimated_duration"`

	Status      JobStatus  `json:"status" bson:"status"`
	ActualStart *time.Time `json:"actual_start,omitempty" bson:"actual_start,omitempty"`
	ActualEnd   *time.Time `json:"actual_end,omitempty" bson:"actual_end,omitempty"`
	StartedSlot string     `json:"started_slot,omitempty" bson:"started_slot,omitempty"` // slot work actually began in

	IsOverrunning  bool `json:"is_overrunning" bson:"is_overrunning"`
	OverrunMinutes int  `json:"overrun_minutes" bson:"overrun_minutes"`
	ToolsConflict  bool `json:"tools_conflict" bson:"tools_conflict"`

	Tools []ToolAssignment `json:"tools,omitempty" bson:"tools,omitempty"`

	Pause          *PauseInfo   `json:"pause,omitempty" bson:"pause,omitempty"`
	Parts          *PartsNeeded `json:"parts,omitempty" bson:"parts,omitempty"`
	PartsArrivedAt *time.Time   `json:"parts_arrived_at,omitempty" bson:"parts_arrived_at,omitempty"`

	// Hold accounting: time spent paused or waiting for parts is folded
	// into HeldMinutes on resume and excluded from overrun computation.
	HoldStarted *time.Time `json:"hold_started,omitempty" bson:"hold_started,omitempty"`
	HeldMinutes int        `json:"held_minutes" bson:"held_minutes"`

	Notes          string    `json:"notes,omitempty" bson:"notes,omitempty"`
	LaborSessionID string    `json:"labor_session_id,omitempty" bson:"labor_session_id,omitempty"`
	ActualMinutes  int       `json:"actual_minutes,omitempty" bson:"actual_minutes,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// EstimatedMinutes parses the job's estimated duration into minutes.
func (j *Job) EstimatedMinutes() (int, error) {
	return ParseEstimate(j.EstimatedDuration)
}
