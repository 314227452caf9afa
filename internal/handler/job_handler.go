package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obaidmalik/cityflow-backend-go/internal/citygraph"
	"github.com/obaidmalik/cityflow-backend-go/internal/models"
	"github.com/obaidmalik/cityflow-backend-go/internal/repository"
	"github.com/obaidmalik/cityflow-backend-go/internal/service"
	"github.com/obaidmalik/cityflow-backend-go/internal/simulation"
	"github.com/obaidmalik/cityflow-backend-go/pkg/response"
)

// JobHandler handles HTTP requests for simulation jobs
type JobHandler struct {
	service *service.JobService
}

// NewJobHandler creates a new job handler
func NewJobHandler(service *service.JobService) *JobHandler {
	return &JobHandler{service: service}
}

// SubmitResponse is the body returned for an accepted submission
type SubmitResponse struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at"`
}

// StatusResponse mirrors the job record plus its artifact index
type StatusResponse struct {
	JobID       string            `json:"job_id"`
	Status      string            `json:"status"`
	Progress    int               `json:"progress"`
	SubmittedAt string            `json:"submitted_at"`
	StartedAt   string            `json:"started_at,omitempty"`
	FinishedAt  string            `json:"finished_at,omitempty"`
	Message     string            `json:"message,omitempty"`
	Partial     bool              `json:"partial,omitempty"`
	Missing     []string          `json:"missing,omitempty"`
	Artifacts   []models.Artifact `json:"artifacts"`
	Config      models.JobConfig  `json:"config"`
}

// Submit accepts a simulation configuration and queues a job
// POST /v1/submit
func (h *JobHandler) Submit(c *gin.Context) {
	var cfg models.JobConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	job, err := h.service.Submit(cfg)
	if err != nil {
		switch {
		case errors.Is(err, citygraph.ErrCityNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, service.ErrInvalidConfig),
			errors.Is(err, simulation.ErrInvalidDistribution):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err.Error())
		}
		return
	}

	response.Accepted(c, SubmitResponse{
		JobID:       job.ID,
		Status:      job.Status,
		SubmittedAt: job.SubmittedAt.Format(timeLayout),
	})
}

// Status reports the latest known state of a job
// GET /v1/status/:job_id
func (h *JobHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Param("job_id"))
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	job := status.Job
	body := StatusResponse{
		JobID:       job.ID,
		Status:      job.Status,
		Progress:    job.ProgressPercent,
		SubmittedAt: job.SubmittedAt.Format(timeLayout),
		Message:     job.Message,
		Partial:     job.Status == models.JobStatusPartial,
		Missing:     job.Missing,
		Artifacts:   status.Artifacts,
		Config:      status.Config,
	}
	if job.StartedAt != nil {
		body.StartedAt = job.StartedAt.Format(timeLayout)
	}
	if job.FinishedAt != nil {
		body.FinishedAt = job.FinishedAt.Format(timeLayout)
	}

	response.Success(c, body)
}

// Insights returns a markdown summary of a finished job's comparison
// POST /v1/insights/:job_id
func (h *JobHandler) Insights(c *gin.Context) {
	summary, err := h.service.Insights(c.Param("job_id"))
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	response.Success(c, gin.H{"summary_md": summary})
}

const timeLayout = "2006-01-02T15:04:05Z07:00"
