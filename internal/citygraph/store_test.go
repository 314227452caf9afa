package citygraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obaidmalik/cityflow-backend-go/internal/models"
)

// seabourneJSON is a five-node seafront chain with stops pinned to the first
// and last nodes, plus one stop far outside the snap tolerance.
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
    {"from": 5, "to": 4, "length_m": 210, "modes": ["walk", "drive", "cycle"]},
    {"from": 5, "to": 99, "length_m": 100, "modes": ["walk"]}
  ],
  "stops": [
    {"name": "Pier Approach", "lat": 50.72, "lon": -1.880},
    {"name": "Pier North", "lat": 50.72, "lon": -1.880},
    {"name": "Gardens", "lat": 50.72, "lon": -1.868},
    {"name": "Old Harbour", "lat": 51.50, "lon": -0.100}
  ]
}`

func writeFixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seabourne.json"), []byte(seabourneJSON), 0644))
	return dir
}

func TestLoadBaseline(t *testing.T) {
	store := NewStore(writeFixtureDir(t))

	data, err := store.LoadBaseline("Seabourne")
	require.NoError(t, err)

	assert.Equal(t, "Seabourne", data.City.Name)
	assert.Equal(t, "seabourne", data.City.Slug)
	assert.Equal(t, VariantBaseline, data.Graph.Variant)
	assert.Len(t, data.Graph.Nodes, 5)
	assert.Len(t, data.Stops, 4)

	// Edges referencing unknown nodes are dropped on load
	for _, edges := range data.Graph.Edges {
		for _, e := range edges {
			assert.Contains(t, data.Graph.Nodes, e.To)
		}
	}
}

func TestLoadBaselineCaches(t *testing.T) {
	store := NewStore(writeFixtureDir(t))

	first, err := store.LoadBaseline("Seabourne")
	require.NoError(t, err)
	second, err := store.LoadBaseline("seabourne")
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestLoadBaselineCityNotFound(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.LoadBaseline("Atlantis")

	assert.ErrorIs(t, err, ErrCityNotFound)
}

func TestExists(t *testing.T) {
	store := NewStore(writeFixtureDir(t))

	assert.True(t, store.Exists("Seabourne"))
	assert.True(t, store.Exists("SEABOURNE"))
	assert.False(t, store.Exists("Atlantis"))
}

func TestLoadVariants(t *testing.T) {
	store := NewStore(writeFixtureDir(t))
	cfg := models.JobConfig{TramStart: "Pier Approach", TramEnd: "Gardens"}

	baseline, err := store.Load("Seabourne", VariantBaseline, cfg)
	require.NoError(t, err)
	assert.Empty(t, baseline.TramNodes)

	scenario, err := store.Load("Seabourne", VariantScenario, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 5}, scenario.TramNodes)

	_, err = store.Load("Seabourne", "rush", cfg)
	assert.ErrorIs(t, err, ErrVariantUnavailable)
}

func TestListCities(t *testing.T) {
	dir := writeFixtureDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aldport.json"),
		[]byte(`{"name": "Aldport", "slug": "aldport", "hub": "Station", "nodes": [], "edges": [], "stops": []}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{nope"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	store := NewStore(dir)
	cities, err := store.ListCities()
	require.NoError(t, err)

	require.Len(t, cities, 2)
	assert.Equal(t, "aldport", cities[0].Slug)
	assert.Equal(t, "seabourne", cities[1].Slug)
}

func TestListCitiesMissingDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope"))

	_, err := store.ListCities()

	assert.Error(t, err)
}
