package repository

import (
	"database/sql"
	"fmt"

	"github.com/obaidmalik/cityflow-backend-go/internal/models"
)

// ArtifactRepository handles database operations for the artifact index
type ArtifactRepository struct {
	db *sql.DB
}

// NewArtifactRepository creates a new artifact repository
func NewArtifactRepository(db *sql.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// Create records one produced artifact. The (job_id, name) uniqueness keeps
// the index append-only per job.
func (r *ArtifactRepository) Create(artifact *models.Artifact) error {
	query := `
		INSERT INTO artifacts (job_id, name, location, size_bytes)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		artifact.JobID,
		artifact.Name,
		artifact.Location,
		artifact.SizeBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to record artifact: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	artifact.ID = id
	return nil
}

// CreateAll records a batch of artifacts in insertion order.
func (r *ArtifactRepository) CreateAll(artifacts []models.Artifact) error {
	for i := range artifacts {
		if err := r.Create(&artifacts[i]); err != nil {
			return err
		}
	}
	return nil
}

// ListByJob returns a job's artifacts in the order they were produced.
func (r *ArtifactRepository) ListByJob(jobID string) ([]models.Artifact, error) {
	query := `
		SELECT id, job_id, name, location, size_bytes, created_at
		FROM artifacts
		WHERE job_id = ?
		ORDER BY id
	`

	rows, err := r.db.Query(query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := []models.Artifact{}
	for rows.Next() {
		var a models.Artifact
		if err := rows.Scan(&a.ID, &a.JobID, &a.Name, &a.Location, &a.SizeBytes, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}
