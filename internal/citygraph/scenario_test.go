package citygraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obaidmalik/cityflow-backend-go/internal/models"
)

func loadSeabourne(t *testing.T) *CityData {
	t.Helper()
	data, err := NewStore(writeFixtureDir(t)).LoadBaseline("Seabourne")
	require.NoError(t, err)
	return data
}

func TestBuildScenario(t *testing.T) {
	data := loadSeabourne(t)

	scenario, err := BuildScenario(data, models.JobConfig{TramStart: "Pier Approach", TramEnd: "Gardens"})
	require.NoError(t, err)

	assert.Equal(t, VariantScenario, scenario.Variant)
	assert.Equal(t, []int64{1, 5}, scenario.TramNodes)

	var tramEdges []*Edge
	for _, edges := range scenario.Edges {
		for _, e := range edges {
			if e.HasMode(ModeTram) {
				tramEdges = append(tramEdges, e)
			}
		}
	}
	require.Len(t, tramEdges, 2)
	for _, e := range tramEdges {
		assert.GreaterOrEqual(t, e.LengthM, MinTramEdgeM)
		assert.Equal(t, e.LengthM, e.CostM)
	}

	// Splicing never touches the baseline graph
	for _, edges := range data.Graph.Edges {
		for _, e := range edges {
			assert.False(t, e.HasMode(ModeTram))
		}
	}
	assert.Empty(t, data.Graph.TramNodes)
}

func TestBuildScenarioEndpointNameCaseInsensitive(t *testing.T) {
	data := loadSeabourne(t)

	scenario, err := BuildScenario(data, models.JobConfig{TramStart: "pier approach", TramEnd: "GARDENS"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 5}, scenario.TramNodes)
}

func TestBuildScenarioUnknownStop(t *testing.T) {
	data := loadSeabourne(t)

	_, err := BuildScenario(data, models.JobConfig{TramStart: "Nowhere Lane", TramEnd: "Gardens"})
	assert.ErrorIs(t, err, ErrEndpointNotFound)

	_, err = BuildScenario(data, models.JobConfig{TramStart: "Pier Approach", TramEnd: "Nowhere Lane"})
	assert.ErrorIs(t, err, ErrEndpointNotFound)
}

func TestBuildScenarioEndpointOutsideSnapTolerance(t *testing.T) {
	data := loadSeabourne(t)

	// Old Harbour sits ~150km from every node
	_, err := BuildScenario(data, models.JobConfig{TramStart: "Old Harbour", TramEnd: "Gardens"})

	assert.ErrorIs(t, err, ErrEndpointNotFound)
}

func TestBuildScenarioCoincidentEndpoints(t *testing.T) {
	data := loadSeabourne(t)

	// Pier North shares Pier Approach's coordinates, so both snap to node 1
	_, err := BuildScenario(data, models.JobConfig{TramStart: "Pier Approach", TramEnd: "Pier North"})

	assert.ErrorIs(t, err, ErrVariantUnavailable)
}

func TestApplyTraffic(t *testing.T) {
	data := loadSeabourne(t)
	scenario, err := BuildScenario(data, models.JobConfig{TramStart: "Pier Approach", TramEnd: "Gardens"})
	require.NoError(t, err)

	adjusted := ApplyTraffic(scenario, models.TrafficRushHour)

	for _, edges := range adjusted.Edges {
		for _, e := range edges {
			if e.HasMode(ModeTram) {
				assert.Equal(t, e.LengthM, e.CostM, "tram edges are exempt")
			} else {
				assert.Equal(t, 210.0, e.LengthM, "base lengths stay untouched")
				assert.InDelta(t, e.LengthM*1.5, e.CostM, 1e-9)
			}
		}
	}

	// Source graph costs are unchanged
	for _, edges := range scenario.Edges {
		for _, e := range edges {
			assert.Equal(t, e.LengthM, e.CostM)
		}
	}
}

func TestApplyTrafficOffPeakIsIdentity(t *testing.T) {
	data := loadSeabourne(t)

	adjusted := ApplyTraffic(data.Graph, models.TrafficOffPeak)

	for from, edges := range adjusted.Edges {
		for i, e := range edges {
			assert.Equal(t, data.Graph.Edges[from][i].CostM, e.CostM)
		}
	}
}

func TestTrafficMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, TrafficMultiplier(models.TrafficOffPeak))
	assert.Equal(t, 1.2, TrafficMultiplier(models.TrafficNormal))
	assert.Equal(t, 1.5, TrafficMultiplier(models.TrafficRushHour))
	assert.Equal(t, 1.0, TrafficMultiplier("gridlock"))

	assert.True(t, KnownTrafficLevel(models.TrafficNormal))
	assert.False(t, KnownTrafficLevel("gridlock"))
}
