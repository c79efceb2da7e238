package domain

import "time"

// Operation event outcomes published to downstream crisis systems.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// OperationEvent announces a terminal operation transition on the events
// topic. Publishing is best-effort; a publish failure never affects the
// operation itself.
type OperationEvent struct {
	ID                    string    `json:"operation_id"`
	Mode                  Mode      `json:"mode"`
	Outcome               string    `json:"outcome"`
	Message               string    `json:"message,omitempty"`
	FloodedAreaKm2        float64   `json:"flooded_area_km2,omitempty"`
	BuildingsAffected     int       `json:"buildings_affected,omitempty"`
	ProcessingTimeSeconds float64   `json:"processing_time_seconds,omitempty"`
	OccurredAt            time.Time `json:"occurred_at"`
}
