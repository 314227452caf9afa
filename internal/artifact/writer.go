package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/obaidmalik/cityflow-backend-go/internal/models"
)

// ErrStorageUnavailable means the backing store cannot be written. Callers
// report it as a failed job; retrying is their decision, not this package's.
var ErrStorageUnavailable = errors.New("artifact storage unavailable")

// Output is one named payload to persist for a job.
type Output struct {
	Name string
	Data []byte
}

// JSONOutput serializes a value into a named JSON output.
func JSONOutput(name string, v interface{}) (Output, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Output{}, fmt.Errorf("failed to serialize %s: %w", name, err)
	}
	return Output{Name: name, Data: data}, nil
}

// Writer persists job outputs under a per-job directory and exposes them
// through the static file routes.
type Writer struct {
	root    string
	baseURL string
}

// NewWriter creates a writer rooted at dir; served is the URL prefix the
// static file server mounts the root at.
func NewWriter(dir, served string) *Writer {
	return &Writer{root: dir, baseURL: served}
}

// JobDir returns the directory holding one job's artifacts.
func (w *Writer) JobDir(jobID string) string {
	return filepath.Join(w.root, jobID)
}

// ReadArtifact loads a previously written artifact back from storage.
func (w *Writer) ReadArtifact(jobID, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(w.JobDir(jobID), name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return data, nil
}

// Write persists the outputs in order and returns their descriptors.
// Writes are append-only per job: overwriting an existing artifact name is
// an error, since job ids are single-use.
func (w *Writer) Write(jobID string, outputs []Output) ([]models.Artifact, error) {
	dir := w.JobDir(jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	artifacts := make([]models.Artifact, 0, len(outputs))
	for _, out := range outputs {
		target := filepath.Join(dir, out.Name)
		if _, err := os.Stat(target); err == nil {
			return nil, fmt.Errorf("artifact %q already written for job %s", out.Name, jobID)
		}
		if err := os.WriteFile(target, out.Data, 0o644); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		artifacts = append(artifacts, models.Artifact{
			JobID:     jobID,
			Name:      out.Name,
			Location:  path.Join(w.baseURL, jobID, out.Name),
			SizeBytes: int64(len(out.Data)),
		})
	}
	return artifacts, nil
}
