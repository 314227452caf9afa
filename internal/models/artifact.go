package models

import "time"

// Artifact describes one named durable output of a finished (or partially
// finished) job. Location is the URL path the static file server exposes.
type Artifact struct {
	ID        int64     `json:"-" db:"id"`
	JobID     string    `json:"-" db:"job_id"`
	Name      string    `json:"name" db:"name"`
	Location  string    `json:"location" db:"location"`
	SizeBytes int64     `json:"size_bytes" db:"size_bytes"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}
