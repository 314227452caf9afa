package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/obaidmalik/cityflow-backend-go/internal/artifact"
	"github.com/obaidmalik/cityflow-backend-go/internal/citygraph"
	"github.com/obaidmalik/cityflow-backend-go/internal/insights"
	"github.com/obaidmalik/cityflow-backend-go/internal/models"
	"github.com/obaidmalik/cityflow-backend-go/internal/repository"
	"github.com/obaidmalik/cityflow-backend-go/internal/simulation"
)

// ErrInvalidConfig covers malformed submit requests that are rejected
// before any job record exists.
var ErrInvalidConfig = errors.New("invalid job config")

// MaxAgents bounds a single job's population so one request cannot pin a
// worker indefinitely.
const MaxAgents = 10000

// Artifact names produced per job
const (
	ArtifactConfig        = "config.json"
	ArtifactBaselineStats = "baseline_stats.json"
	ArtifactScenarioStats = "tramline_stats.json"
	ArtifactComparison    = "comparison.json"
	ArtifactBaselineMap   = "baseline_routes.geojson"
	ArtifactScenarioMap   = "tramline_routes.geojson"
	ArtifactLog           = "sim.log"
	ArtifactInsights      = "insights.md"
)

// JobStatus is the full status view returned to callers.
type JobStatus struct {
	Job       *models.Job       `json:"job"`
	Artifacts []models.Artifact `json:"artifacts"`
	Config    models.JobConfig  `json:"config"`
}

// JobService owns the job lifecycle: it validates submissions, claims and
// executes the simulation work, and is the error boundary between engine
// internals and the API.
type JobService struct {
	jobs      *repository.JobRepository
	artifacts *repository.ArtifactRepository
	store     *citygraph.Store
	writer    *artifact.Writer
	executor  Executor
}

// NewJobService creates a new job service
func NewJobService(jobs *repository.JobRepository, artifacts *repository.ArtifactRepository,
	store *citygraph.Store, writer *artifact.Writer, executor Executor) *JobService {
	return &JobService{
		jobs:      jobs,
		artifacts: artifacts,
		store:     store,
		writer:    writer,
		executor:  executor,
	}
}

// Submit validates a configuration, persists a queued job and dispatches
// execution. Invalid input fails here, before any record is created; the
// returned job id can be polled immediately.
func (s *JobService) Submit(cfg models.JobConfig) (*models.Job, error) {
	if cfg.TrafficLevel == "" {
		cfg.TrafficLevel = models.TrafficNormal
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if !s.store.Exists(cfg.City) {
		return nil, fmt.Errorf("%w: %s", citygraph.ErrCityNotFound, cfg.City)
	}
	if cfg.Seed == 0 {
		cfg.Seed = deriveSeed(cfg)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}

	job := &models.Job{
		ID:          uuid.NewString(),
		Status:      models.JobStatusQueued,
		ConfigJSON:  string(raw),
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.jobs.Create(job); err != nil {
		return nil, err
	}

	log.Printf("Job %s submitted for %s (%d agents, traffic %s)",
		job.ID, cfg.City, cfg.NumAgents, cfg.TrafficLevel)
	s.executor.Execute(func() { s.run(job.ID, cfg) })
	return job, nil
}

// Status returns the latest job record and its artifact index. The read has
// no side effects, so polling a terminal job is idempotent.
func (s *JobService) Status(jobID string) (*JobStatus, error) {
	job, err := s.jobs.GetByID(jobID)
	if err != nil {
		return nil, err
	}
	artifacts, err := s.artifacts.ListByJob(jobID)
	if err != nil {
		return nil, err
	}

	var cfg models.JobConfig
	if err := json.Unmarshal([]byte(job.ConfigJSON), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse stored config: %w", err)
	}
	return &JobStatus{Job: job, Artifacts: artifacts, Config: cfg}, nil
}

// Insights returns the cached markdown summary for a finished job,
// generating and persisting it on first request.
func (s *JobService) Insights(jobID string) (string, error) {
	status, err := s.Status(jobID)
	if err != nil {
		return "", err
	}
	if !models.IsTerminal(status.Job.Status) || status.Job.Status == models.JobStatusFailed {
		return "", fmt.Errorf("job %s has no results to summarize (status %s)", jobID, status.Job.Status)
	}

	for _, a := range status.Artifacts {
		if a.Name == ArtifactInsights {
			data, err := s.writer.ReadArtifact(jobID, ArtifactInsights)
			if err != nil {
				return "", err
			}
			return string(data), nil
		}
	}

	raw, err := s.writer.ReadArtifact(jobID, ArtifactComparison)
	if err != nil {
		return "", err
	}
	var stats simulation.ComparisonStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return "", fmt.Errorf("failed to parse comparison stats: %w", err)
	}

	summary := insights.FormatMarkdown(status.Config, &stats)
	written, err := s.writer.Write(jobID, []artifact.Output{{Name: ArtifactInsights, Data: []byte(summary)}})
	if err != nil {
		return "", err
	}
	if err := s.artifacts.CreateAll(written); err != nil {
		return "", err
	}
	return summary, nil
}

// run executes one job end to end. It is the error boundary: every failure
// below this point becomes a terminal job status, never an escaping panic.
func (s *JobService) run(jobID string, cfg models.JobConfig) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("Job %s panicked: %v", jobID, p)
			s.finish(jobID, models.JobStatusFailed, fmt.Sprintf("internal fault: %v", p), nil)
		}
	}()

	claimed, err := s.jobs.ClaimRunning(jobID)
	if err != nil {
		log.Printf("Job %s claim failed: %v", jobID, err)
		return
	}
	if !claimed {
		log.Printf("Job %s already claimed, skipping", jobID)
		return
	}

	var simLog strings.Builder
	logf := func(format string, args ...interface{}) {
		line := fmt.Sprintf(format, args...)
		log.Printf("[job %s] %s", jobID, line)
		fmt.Fprintf(&simLog, "%s %s\n", time.Now().UTC().Format(time.RFC3339), line)
	}

	data, err := s.store.LoadBaseline(cfg.City)
	if err != nil {
		s.finish(jobID, models.JobStatusFailed, fmt.Sprintf("loading city graph: %v", err), nil)
		return
	}
	base := citygraph.ApplyTraffic(data.Graph, cfg.TrafficLevel)
	logf("baseline graph ready: %d nodes, traffic %s", len(base.Nodes), cfg.TrafficLevel)
	s.progress(jobID, 10)

	var missing []string
	var scenario *citygraph.Graph
	built, err := citygraph.BuildScenario(data, cfg)
	switch {
	case err == nil:
		scenario = citygraph.ApplyTraffic(built, cfg.TrafficLevel)
		logf("scenario graph ready: tram nodes %v", scenario.TramNodes)
	case errors.Is(err, citygraph.ErrEndpointNotFound), errors.Is(err, citygraph.ErrVariantUnavailable):
		// Build errors degrade to a baseline-only run instead of failing
		missing = append(missing, err.Error())
		logf("scenario unavailable, continuing baseline-only: %v", err)
	default:
		s.finish(jobID, models.JobStatusFailed, fmt.Sprintf("building scenario: %v", err), nil)
		return
	}
	s.progress(jobID, 25)

	agents, err := simulation.GeneratePopulation(base, cfg.NumAgents, cfg.AgentDistribution, cfg.Seed)
	if err != nil {
		s.finish(jobID, models.JobStatusFailed, fmt.Sprintf("generating population: %v", err), nil)
		return
	}
	logf("generated %d agents (seed %d)", len(agents), cfg.Seed)
	s.progress(jobID, 40)

	run := simulation.Compare(base, scenario, agents)
	logf("routing complete: baseline unreachable %d, scenario unreachable %d",
		run.Stats.UnreachableBaseline, run.Stats.UnreachableScenario)
	s.progress(jobID, 75)

	outputs, err := s.buildOutputs(cfg, base, scenario, run, &simLog)
	if err != nil {
		s.finish(jobID, models.JobStatusFailed, fmt.Sprintf("rendering outputs: %v", err), nil)
		return
	}

	written, err := s.writer.Write(jobID, outputs)
	if err != nil {
		s.finish(jobID, models.JobStatusFailed, fmt.Sprintf("writing artifacts: %v", err), nil)
		return
	}
	if err := s.artifacts.CreateAll(written); err != nil {
		s.finish(jobID, models.JobStatusFailed, fmt.Sprintf("indexing artifacts: %v", err), nil)
		return
	}

	if len(missing) > 0 {
		s.finish(jobID, models.JobStatusPartial, "Baseline results available; scenario could not be built.", missing)
		return
	}
	s.finish(jobID, models.JobStatusSucceeded, "All artifacts are ready.", nil)
}

// buildOutputs serializes everything a finished run persists, in a stable
// order.
func (s *JobService) buildOutputs(cfg models.JobConfig, base, scenario *citygraph.Graph,
	run *simulation.ComparisonRun, simLog *strings.Builder) ([]artifact.Output, error) {

	outputs := make([]artifact.Output, 0, 7)

	configOut, err := artifact.JSONOutput(ArtifactConfig, cfg)
	if err != nil {
		return nil, err
	}
	outputs = append(outputs, configOut)

	baseStats, err := artifact.JSONOutput(ArtifactBaselineStats, run.BaselineStats)
	if err != nil {
		return nil, err
	}
	outputs = append(outputs, baseStats)

	if run.ScenarioStats != nil {
		scenStats, err := artifact.JSONOutput(ArtifactScenarioStats, run.ScenarioStats)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, scenStats)
	}

	comparison, err := artifact.JSONOutput(ArtifactComparison, run.Stats)
	if err != nil {
		return nil, err
	}
	outputs = append(outputs, comparison)

	baseMap, err := artifact.RouteMap(base, run.Agents, run.Baseline)
	if err != nil {
		return nil, err
	}
	outputs = append(outputs, artifact.Output{Name: ArtifactBaselineMap, Data: baseMap})

	if scenario != nil {
		scenMap, err := artifact.RouteMap(scenario, run.Agents, run.Scenario)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, artifact.Output{Name: ArtifactScenarioMap, Data: scenMap})
	}

	outputs = append(outputs, artifact.Output{Name: ArtifactLog, Data: []byte(simLog.String())})
	return outputs, nil
}

func (s *JobService) progress(jobID string, percent int) {
	if err := s.jobs.UpdateProgress(jobID, percent); err != nil {
		log.Printf("Job %s progress update failed: %v", jobID, err)
	}
}

func (s *JobService) finish(jobID, status, message string, missing []string) {
	if err := s.jobs.Finish(jobID, status, message, missing); err != nil {
		log.Printf("Job %s finish(%s) failed: %v", jobID, status, err)
		return
	}
	log.Printf("Job %s finished: %s", jobID, status)
}

// validateConfig rejects malformed input synchronously, before a job record
// exists.
func validateConfig(cfg models.JobConfig) error {
	if strings.TrimSpace(cfg.City) == "" {
		return fmt.Errorf("%w: city is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.TramStart) == "" || strings.TrimSpace(cfg.TramEnd) == "" {
		return fmt.Errorf("%w: tram_start and tram_end are required", ErrInvalidConfig)
	}
	if cfg.NumAgents <= 0 {
		return fmt.Errorf("%w: num_agents must be positive", ErrInvalidConfig)
	}
	if cfg.NumAgents > MaxAgents {
		return fmt.Errorf("%w: num_agents exceeds limit of %d", ErrInvalidConfig, MaxAgents)
	}
	if !citygraph.KnownTrafficLevel(cfg.TrafficLevel) {
		return fmt.Errorf("%w: unknown traffic_level %q", ErrInvalidConfig, cfg.TrafficLevel)
	}
	if len(cfg.AgentDistribution) == 0 {
		return fmt.Errorf("%w: agent_distribution is required", ErrInvalidConfig)
	}
	if err := simulation.ValidateDistribution(cfg.AgentDistribution); err != nil {
		return err
	}
	return nil
}

// deriveSeed hashes the request into a stable default seed so identical
// submissions reproduce identical populations.
func deriveSeed(cfg models.JobConfig) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%d|%s|%s|%s",
		cfg.City, cfg.TramStart, cfg.TramEnd, cfg.NumAgents, cfg.TrafficLevel, cfg.SimDate, cfg.SimTime)
	seed := int64(h.Sum64() & 0x7fffffffffffffff)
	if seed == 0 {
		seed = 1
	}
	return seed
}
