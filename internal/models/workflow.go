package models

import "time"

// WorkflowEvent is an audit-trail record of a job's state transition.
type WorkflowEvent struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	VehicleCode string    `json:"vehicle_code" bson:"vehicle_code"`
	FromStatus  JobStatus `json:"from_status" bson:"from_status"`
	ToStatus    JobStatus `json:"to_status" bson:"to_status"`
	Reason      string    `json:"reason,omitempty" bson:"reason,omitempty"`
	Actor       string    `json:"actor,omitempty" bson:"actor,omitempty"`
	At          time.Time `json:"at" bson:"at"`
}

// LaborSession tracks mechanic time against one vehicle.
type LaborSession struct {
	ID          string     `json:"id" bson:"_id"`
	VehicleCode string     `json:"vehicle_code" bson:"vehicle_code"`
	Mechanic    string     `json:"mechanic" bson:"mechanic"`
	WorkType    WorkType   `json:"work_type" bson:"work_type"`
	StartedAt   time.Time  `json:"started_at" bson:"started_at"`
	StoppedAt   *time.Time `json:"stopped_at,omitempty" bson:"stopped_at,omitempty"`
	Notes       string     `json:"notes,omitempty" bson:"notes,omitempty"`
	Minutes     int        `json:"minutes" bson:"minutes"`
	Cost        float64    `json:"cost" bson:"cost"` // in USD
}

// LaborSummary is returned when a session is stopped.
type LaborSummary struct {
	SessionID string  `json:"session_id"`
	Minutes   int     `json:"minutes"`
	Cost      float64 `json:"cost"`
}
