package citygraph

import (
	"fmt"
	"log"
	"strings"

	"github.com/obaidmalik/cityflow-backend-go/internal/models"
	"github.com/obaidmalik/cityflow-backend-go/internal/spatial"
)

// SnapToleranceM is the maximum distance between a tram endpoint and its
// snapped graph node.
const SnapToleranceM = 500.0

// MinTramEdgeM keeps degenerate corridors (both endpoints snapping to
// near-coincident nodes) from producing zero-cost edges.
const MinTramEdgeM = 50.0

// Traffic multipliers applied to non-tram edge costs.
var trafficMultipliers = map[string]float64{
	models.TrafficOffPeak:  1.0,
	models.TrafficNormal:   1.2,
	models.TrafficRushHour: 1.5,
}

// TrafficMultiplier returns the cost multiplier for a traffic level,
// defaulting to off-peak for unknown values.
func TrafficMultiplier(level string) float64 {
	if m, ok := trafficMultipliers[level]; ok {
		return m
	}
	return 1.0
}

// KnownTrafficLevel reports whether level is a recognized traffic enum value.
func KnownTrafficLevel(level string) bool {
	_, ok := trafficMultipliers[level]
	return ok
}

// ApplyTraffic returns a derived copy of the graph with non-tram edge costs
// scaled for the traffic level. Tram edges keep their own cost model; base
// lengths are preserved so repeated application never compounds.
func ApplyTraffic(g *Graph, level string) *Graph {
	mult := TrafficMultiplier(level)
	adjusted := g.Clone(g.Variant)
	if mult == 1.0 {
		return adjusted
	}
	for _, edges := range adjusted.Edges {
		for _, e := range edges {
			if e.HasMode(ModeTram) {
				continue
			}
			e.CostM = e.LengthM * mult
		}
	}
	return adjusted
}

// BuildScenario derives the scenario graph from a baseline dataset by
// splicing a bidirectional tram corridor between the snapped endpoint
// nodes. The baseline graph is never mutated.
func BuildScenario(data *CityData, cfg models.JobConfig) (*Graph, error) {
	startStop, err := resolveStop(data, cfg.TramStart)
	if err != nil {
		return nil, err
	}
	endStop, err := resolveStop(data, cfg.TramEnd)
	if err != nil {
		return nil, err
	}

	startNode, startDist := data.Graph.NearestNode(startStop.Lat, startStop.Lon)
	if startDist > SnapToleranceM {
		return nil, fmt.Errorf("%w: %q is %.0fm from the nearest node (tolerance %.0fm)",
			ErrEndpointNotFound, cfg.TramStart, startDist, SnapToleranceM)
	}
	endNode, endDist := data.Graph.NearestNode(endStop.Lat, endStop.Lon)
	if endDist > SnapToleranceM {
		return nil, fmt.Errorf("%w: %q is %.0fm from the nearest node (tolerance %.0fm)",
			ErrEndpointNotFound, cfg.TramEnd, endDist, SnapToleranceM)
	}
	if startNode == endNode {
		return nil, fmt.Errorf("%w: both endpoints snap to node %d", ErrVariantUnavailable, startNode)
	}

	from := data.Graph.Nodes[startNode]
	to := data.Graph.Nodes[endNode]
	length := spatial.HaversineDistance(from.Lat, from.Lon, to.Lat, to.Lon)
	if length < MinTramEdgeM {
		length = MinTramEdgeM
	}

	scenario := data.Graph.Clone(VariantScenario)
	scenario.AddEdge(&Edge{From: startNode, To: endNode, LengthM: length, Modes: []string{ModeTram}})
	scenario.AddEdge(&Edge{From: endNode, To: startNode, LengthM: length, Modes: []string{ModeTram}})
	scenario.TramNodes = []int64{startNode, endNode}

	log.Printf("Spliced tram corridor %q -> %q (nodes %d <-> %d, %.0fm)",
		cfg.TramStart, cfg.TramEnd, startNode, endNode, length)
	return scenario, nil
}

// resolveStop matches a tram endpoint name against the city stop list,
// case-insensitively.
func resolveStop(data *CityData, name string) (models.Stop, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, stop := range data.Stops {
		if strings.ToLower(stop.Name) == want {
			return stop, nil
		}
	}
	return models.Stop{}, fmt.Errorf("%w: no stop named %q in %s", ErrEndpointNotFound, name, data.City.Name)
}
