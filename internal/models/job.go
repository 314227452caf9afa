package models

import "time"

// Job represents one simulation run through its full lifecycle
type Job struct {
	ID string `json:"job_id" db:"id"`

	// Status
	Status          string `json:"status" db:"status"` // queued, running, succeeded, partial, failed
	ProgressPercent int    `json:"progress" db:"progress_percent"`

	// Input parameters
	ConfigJSON string `json:"-" db:"config_json"`

	// Diagnostics
	Message string   `json:"message,omitempty" db:"message"`
	Missing []string `json:"missing,omitempty" db:"-"`

	// Metadata
	SubmittedAt time.Time  `json:"submitted_at" db:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// JobStatus constants
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusPartial   = "partial"
	JobStatusFailed    = "failed"
)

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	switch status {
	case JobStatusSucceeded, JobStatusPartial, JobStatusFailed:
		return true
	}
	return false
}

// TrafficLevel constants
const (
	TrafficOffPeak  = "off_peak"
	TrafficNormal   = "normal"
	TrafficRushHour = "rush_hour"
)

// JobConfig is the caller-supplied simulation configuration, stored verbatim
// on the job record so status reads can echo it back.
type JobConfig struct {
	City              string             `json:"city" binding:"required"`
	TramStart         string             `json:"tram_start" binding:"required"`
	TramEnd           string             `json:"tram_end" binding:"required"`
	NumAgents         int                `json:"num_agents" binding:"required"`
	AgentDistribution map[string]float64 `json:"agent_distribution" binding:"required"`
	TrafficLevel      string             `json:"traffic_level"`
	SimDate           string             `json:"sim_date"`
	SimTime           string             `json:"sim_time"`
	Seed              int64              `json:"seed,omitempty"`
}
