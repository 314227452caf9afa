package service

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/obaidmalik/cityflow-backend-go/internal/artifact"
	"github.com/obaidmalik/cityflow-backend-go/internal/citygraph"
	"github.com/obaidmalik/cityflow-backend-go/internal/database"
	"github.com/obaidmalik/cityflow-backend-go/internal/models"
	"github.com/obaidmalik/cityflow-backend-go/internal/repository"
	"github.com/obaidmalik/cityflow-backend-go/internal/simulation"
)

const seabourneJSON = `{
  "name": "Seabourne",
  "slug": "seabourne",
  "hub": "Pier Approach",
  "nodes": [
    {"id": 1, "lat": 50.72, "lon": -1.880},
    {"id": 2, "lat": 50.72, "lon": -1.877},
    {"id": 3, "lat": 50.72, "lon": -1.874},
    {"id": 4, "lat": 50.72, "lon": -1.871},
    {"id": 5, "lat": 50.72, "lon": -1.868}
  ],
  "edges": [
    {"from": 1, "to": 2, "length_m": 210, "modes": ["walk", "drive", "cycle"]},
    {"from": 2, "to": 1, "length_m": 210, "modes": ["walk", "drive", "cycle"]},
    {"from": 2, "to": 3, "length_m": 210, "modes": ["walk", "drive", "cycle"]},
    {"from": 3, "to": 2, "length_m": 210, "modes": ["walk", "drive", "cycle"]},
    {"from": 3, "to": 4, "length_m": 210, "modes": ["walk", "drive", "cycle"]},
    {"from": 4, "to": 3, "length_m": 210, "modes": ["walk", "drive", "cycle"]},
    {"from": 4, "to": 5, "length_m": 210, "modes": ["walk", "drive", "cycle"]},
    {"from": 5, "to": 4, "length_m": 210, "modes": ["walk", "drive", "cycle"]}
  ],
  "stops": [
    {"name": "Pier Approach", "lat": 50.72, "lon": -1.880},
    {"name": "Gardens", "lat": 50.72, "lon": -1.868}
  ]
}`

// newTestService wires a service against a real sqlite file and an on-disk
// city fixture, with the synchronous executor so Submit runs jobs inline.
func newTestService(t *testing.T) (*JobService, *artifact.Writer) {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "seabourne.json"), []byte(seabourneJSON), 0644))

	writer := artifact.NewWriter(t.TempDir(), "/files/jobs")
	svc := NewJobService(
		repository.NewJobRepository(db),
		repository.NewArtifactRepository(db),
		citygraph.NewStore(dataDir),
		writer,
		SyncExecutor{},
	)
	return svc, writer
}

func validConfig() models.JobConfig {
	return models.JobConfig{
		City:      "Seabourne",
		TramStart: "Pier Approach",
		TramEnd:   "Gardens",
		NumAgents: 50,
		AgentDistribution: map[string]float64{
			citygraph.ModeDrive: 0.7,
			citygraph.ModeTram:  0.3,
		},
		TrafficLevel: models.TrafficNormal,
	}
}

func artifactNames(artifacts []models.Artifact) []string {
	names := make([]string, len(artifacts))
	for i, a := range artifacts {
		names[i] = a.Name
	}
	return names
}

func TestSubmitRunsToSucceeded(t *testing.T) {
	svc, writer := newTestService(t)

	job, err := svc.Submit(validConfig())
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)

	status, err := svc.Status(job.ID)
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusSucceeded, status.Job.Status)
	assert.Equal(t, 100, status.Job.ProgressPercent)
	assert.Empty(t, status.Job.Missing)
	assert.NotNil(t, status.Job.FinishedAt)
	assert.Equal(t, []string{
		ArtifactConfig,
		ArtifactBaselineStats,
		ArtifactScenarioStats,
		ArtifactComparison,
		ArtifactBaselineMap,
		ArtifactScenarioMap,
		ArtifactLog,
	}, artifactNames(status.Artifacts))

	for _, a := range status.Artifacts {
		data, err := writer.ReadArtifact(job.ID, a.Name)
		require.NoError(t, err)
		assert.Equal(t, a.SizeBytes, int64(len(data)))
	}

	// The echoed config carries the derived seed
	assert.Equal(t, "Seabourne", status.Config.City)
	assert.NotZero(t, status.Config.Seed)
}

func TestSubmitDegradesToPartial(t *testing.T) {
	svc, _ := newTestService(t)
	cfg := validConfig()
	cfg.TramEnd = "Nowhere Lane"

	job, err := svc.Submit(cfg)
	require.NoError(t, err, "scenario build problems surface on the job, not at submit")

	status, err := svc.Status(job.ID)
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusPartial, status.Job.Status)
	assert.NotEmpty(t, status.Job.Missing)
	assert.Contains(t, status.Job.Message, "Baseline results available")

	names := artifactNames(status.Artifacts)
	assert.Contains(t, names, ArtifactBaselineStats)
	assert.NotContains(t, names, ArtifactScenarioStats)
	assert.NotContains(t, names, ArtifactScenarioMap)
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []struct {
		name   string
		mutate func(*models.JobConfig)
		want   error
	}{
		{"missing city", func(c *models.JobConfig) { c.City = "" }, ErrInvalidConfig},
		{"missing tram start", func(c *models.JobConfig) { c.TramStart = " " }, ErrInvalidConfig},
		{"zero agents", func(c *models.JobConfig) { c.NumAgents = 0 }, ErrInvalidConfig},
		{"too many agents", func(c *models.JobConfig) { c.NumAgents = MaxAgents + 1 }, ErrInvalidConfig},
		{"unknown traffic level", func(c *models.JobConfig) { c.TrafficLevel = "gridlock" }, ErrInvalidConfig},
		{"empty distribution", func(c *models.JobConfig) { c.AgentDistribution = nil }, ErrInvalidConfig},
		{"all-zero distribution", func(c *models.JobConfig) {
			c.AgentDistribution = map[string]float64{citygraph.ModeWalk: 0, citygraph.ModeDrive: 0}
		}, simulation.ErrInvalidDistribution},
		{"unknown city", func(c *models.JobConfig) { c.City = "Atlantis" }, citygraph.ErrCityNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)

			_, err := svc.Submit(cfg)

			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSubmitDefaultsTrafficLevel(t *testing.T) {
	svc, _ := newTestService(t)
	cfg := validConfig()
	cfg.TrafficLevel = ""

	job, err := svc.Submit(cfg)
	require.NoError(t, err)

	status, err := svc.Status(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TrafficNormal, status.Config.TrafficLevel)
}

func TestStatusNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Status("no-such-job")

	assert.ErrorIs(t, err, repository.ErrJobNotFound)
}

func TestStatusIsIdempotentOnTerminalJobs(t *testing.T) {
	svc, _ := newTestService(t)

	job, err := svc.Submit(validConfig())
	require.NoError(t, err)

	first, err := svc.Status(job.ID)
	require.NoError(t, err)
	second, err := svc.Status(job.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Job.Status, second.Job.Status)
	assert.Equal(t, first.Job.ProgressPercent, second.Job.ProgressPercent)
	assert.Equal(t, artifactNames(first.Artifacts), artifactNames(second.Artifacts))
}

func TestDerivedSeedIsStable(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.Submit(validConfig())
	require.NoError(t, err)
	second, err := svc.Submit(validConfig())
	require.NoError(t, err)

	s1, err := svc.Status(first.ID)
	require.NoError(t, err)
	s2, err := svc.Status(second.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, s1.Config.Seed, s2.Config.Seed)
}

func TestExplicitSeedIsKept(t *testing.T) {
	svc, _ := newTestService(t)
	cfg := validConfig()
	cfg.Seed = 1234

	job, err := svc.Submit(cfg)
	require.NoError(t, err)

	status, err := svc.Status(job.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), status.Config.Seed)
}

func TestInsightsGeneratedOnceAndCached(t *testing.T) {
	svc, _ := newTestService(t)

	job, err := svc.Submit(validConfig())
	require.NoError(t, err)

	first, err := svc.Insights(job.ID)
	require.NoError(t, err)
	assert.Contains(t, first, "Seabourne")
	assert.Contains(t, first, "Pier Approach")

	status, err := svc.Status(job.ID)
	require.NoError(t, err)
	assert.Contains(t, artifactNames(status.Artifacts), ArtifactInsights)

	second, err := svc.Insights(job.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestInsightsForPartialJob(t *testing.T) {
	svc, _ := newTestService(t)
	cfg := validConfig()
	cfg.TramEnd = "Nowhere Lane"

	job, err := svc.Submit(cfg)
	require.NoError(t, err)

	summary, err := svc.Insights(job.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, summary)
}

func TestInsightsNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Insights("no-such-job")

	assert.ErrorIs(t, err, repository.ErrJobNotFound)
}
