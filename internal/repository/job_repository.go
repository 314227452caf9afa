package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/obaidmalik/cityflow-backend-go/internal/models"
)

// ErrJobNotFound means no job record exists for the id.
var ErrJobNotFound = errors.New("job not found")

// JobRepository handles database operations for simulation jobs
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create persists a freshly submitted job in the queued state
func (r *JobRepository) Create(job *models.Job) error {
	query := `
		INSERT INTO jobs (id, status, progress_percent, config_json, message, missing_json, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	missing, err := json.Marshal(job.Missing)
	if err != nil {
		return fmt.Errorf("failed to serialize missing list: %w", err)
	}
	if job.Missing == nil {
		missing = []byte("[]")
	}

	_, err = r.db.Exec(query,
		job.ID,
		job.Status,
		job.ProgressPercent,
		job.ConfigJSON,
		job.Message,
		string(missing),
		job.SubmittedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetByID retrieves a job by id
func (r *JobRepository) GetByID(id string) (*models.Job, error) {
	query := `
		SELECT id, status, progress_percent, config_json, message, missing_json,
			   submitted_at, started_at, finished_at
		FROM jobs
		WHERE id = ?
	`

	job := &models.Job{}
	var missingJSON string
	var started, finished sql.NullTime

	err := r.db.QueryRow(query, id).Scan(
		&job.ID,
		&job.Status,
		&job.ProgressPercent,
		&job.ConfigJSON,
		&job.Message,
		&missingJSON,
		&job.SubmittedAt,
		&started,
		&finished,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if missingJSON != "" && missingJSON != "[]" {
		if err := json.Unmarshal([]byte(missingJSON), &job.Missing); err != nil {
			return nil, fmt.Errorf("failed to parse missing list: %w", err)
		}
	}
	if started.Valid {
		t := started.Time
		job.StartedAt = &t
	}
	if finished.Valid {
		t := finished.Time
		job.FinishedAt = &t
	}
	return job, nil
}

// ClaimRunning transitions a job from queued to running. The status guard
// makes the claim exclusive: at most one worker ever gets true for a job id.
func (r *JobRepository) ClaimRunning(id string) (bool, error) {
	result, err := r.db.Exec(
		`UPDATE jobs SET status = ?, started_at = ? WHERE id = ? AND status = ?`,
		models.JobStatusRunning, time.Now().UTC(), id, models.JobStatusQueued,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim job: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return n == 1, nil
}

// UpdateProgress records coarse progress while a job is running. Terminal
// records are never touched.
func (r *JobRepository) UpdateProgress(id string, percent int) error {
	_, err := r.db.Exec(
		`UPDATE jobs SET progress_percent = ? WHERE id = ? AND status = ?`,
		percent, id, models.JobStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// Finish moves a running job into a terminal state. The running guard keeps
// terminal states final, so repeated status reads are idempotent.
func (r *JobRepository) Finish(id, status, message string, missing []string) error {
	if !models.IsTerminal(status) {
		return fmt.Errorf("status %q is not terminal", status)
	}

	missingJSON, err := json.Marshal(missing)
	if err != nil {
		return fmt.Errorf("failed to serialize missing list: %w", err)
	}
	if missing == nil {
		missingJSON = []byte("[]")
	}

	result, err := r.db.Exec(
		`UPDATE jobs
		 SET status = ?, message = ?, missing_json = ?, progress_percent = 100, finished_at = ?
		 WHERE id = ? AND status = ?`,
		status, message, string(missingJSON), time.Now().UTC(), id, models.JobStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to finish job: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read finish result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("job %s is not running, refusing to overwrite", id)
	}
	return nil
}
