package handler

import "github.com/google/uuid"

// RepairResult reports how many count lines had their expected quantity
// re-read
// @Description Expected quantity repair result
type RepairResult struct {
	CountID  uuid.UUID `json:"count_id"`
	Repaired int       `json:"repaired" example:"3"`
}

// HealthResponse is the body of the health check
// @Description Service health with per-dependency status
type HealthResponse struct {
	Status string            `json:"status" example:"healthy"`
	Time   string            `json:"time" example:"2024-01-15T10:30:00Z"`
	Checks map[string]string `json:"checks,omitempty"`
}
