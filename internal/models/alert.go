package models

import "time"

// Severity of an operator alert.
type Severity string

const (
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Alert is an escalation emitted by the efficiency rule evaluator. The
// Vehicles list lets downstream consumers correlate alerts with jobs.
type Alert struct {
	ID            string    `json:"id" bson:"_id"`
	Rule          string    `json:"rule" bson:"rule"`
	Severity      Severity  `json:"severity" bson:"severity"`
	Title         string    `json:"title" bson:"title"`
	Description   string    `json:"description" bson:"description"`
	Vehicles      []string  `json:"vehicles" bson:"vehicles"`
	Actions       []string  `json:"actions,omitempty" bson:"actions,omitempty"`
	EstimatedLoss float64   `json:"estimated_loss,omitempty" bson:"estimated_loss,omitempty"` // in USD
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}
