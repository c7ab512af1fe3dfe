package models

import "time"

// WaitingCandidate is a normalized, source-tagged view of a vehicle that
// is not yet scheduled. Candidates are recomputed from the upstream feeds
// on every refresh and are never persisted as first-class entities.
type WaitingCandidate struct {
	Source         string    `json:"source"`
	VehicleCode    string    `json:"vehicle_code"`
	Model          string    `json:"model"`
	Issue          string    `json:"issue"`
	WorkType       WorkType  `json:"work_type"`
	Priority       Priority  `json:"priority"`
	DaysWaiting    int       `json:"days_waiting"`
	EstimatedHours float64   `json:"estimated_hours"`
	ClientName     string    `json:"client_name,omitempty"`
	Location       string    `json:"location,omitempty"`
	LastReminder   time.Time `json:"last_reminder,omitempty"`
}
