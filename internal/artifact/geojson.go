package artifact

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/obaidmalik/cityflow-backend-go/internal/citygraph"
	"github.com/obaidmalik/cityflow-backend-go/internal/simulation"
	"github.com/obaidmalik/cityflow-backend-go/internal/spatial"
)

// GeoJSON structures for the rendered route maps. Coordinates follow the
// GeoJSON convention: [lon, lat].
type featureCollection struct {
	Type     string    `json:"type"`
	Center   []float64 `json:"center,omitempty"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   geometry               `json:"geometry"`
}

type geometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// RouteMap renders one variant's routed agents as a GeoJSON feature
// collection for the front end: a LineString per reachable agent, plus the
// spliced tram corridor when the variant has one.
func RouteMap(g *citygraph.Graph, agents []simulation.Agent, results []simulation.RouteResult) ([]byte, error) {
	fc := featureCollection{Type: "FeatureCollection", Features: []feature{}}

	minLat, minLon := math.Inf(1), math.Inf(1)
	maxLat, maxLon := math.Inf(-1), math.Inf(-1)

	for i, r := range results {
		if !r.Reachable || len(r.Path) < 2 {
			continue
		}
		coords := make([][]float64, 0, len(r.Path))
		for _, id := range r.Path {
			n, ok := g.Nodes[id]
			if !ok {
				return nil, fmt.Errorf("route references unknown node %d", id)
			}
			coords = append(coords, []float64{n.Lon, n.Lat})
			minLat = math.Min(minLat, n.Lat)
			maxLat = math.Max(maxLat, n.Lat)
			minLon = math.Min(minLon, n.Lon)
			maxLon = math.Max(maxLon, n.Lon)
		}
		fc.Features = append(fc.Features, feature{
			Type: "Feature",
			Properties: map[string]interface{}{
				"agent_id":   agents[i].ID,
				"mode":       agents[i].Mode,
				"cost_sec":   r.CostSec,
				"distance_m": r.DistanceM,
			},
			Geometry: geometry{Type: "LineString", Coordinates: coords},
		})
	}

	if len(g.TramNodes) >= 2 {
		coords := make([][]float64, 0, len(g.TramNodes))
		for _, id := range g.TramNodes {
			if n, ok := g.Nodes[id]; ok {
				coords = append(coords, []float64{n.Lon, n.Lat})
			}
		}
		if len(coords) >= 2 {
			fc.Features = append(fc.Features, feature{
				Type: "Feature",
				Properties: map[string]interface{}{
					"kind": "tram_corridor",
				},
				Geometry: geometry{Type: "LineString", Coordinates: coords},
			})
		}
	}

	if !math.IsInf(minLat, 1) {
		lat, lon := spatial.Midpoint(minLat, minLon, maxLat, maxLon)
		fc.Center = []float64{lon, lat}
	}

	return json.MarshalIndent(fc, "", "  ")
}
