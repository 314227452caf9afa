package simulation

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/obaidmalik/cityflow-backend-go/internal/citygraph"
)

var (
	// ErrEmptyGraph means the graph has no nodes to sample agents from.
	ErrEmptyGraph = errors.New("graph has no eligible nodes")

	// ErrInvalidDistribution means the mode weights cannot be normalized.
	ErrInvalidDistribution = errors.New("invalid agent distribution")
)

// Agent is one synthetic traveler. Origin and destination are node ids
// present in both graph variants, so every agent is routable against either.
type Agent struct {
	ID          int    `json:"id"`
	Origin      int64  `json:"origin"`
	Destination int64  `json:"destination"`
	Mode        string `json:"mode"`
}

// NormalizeDistribution converts mode weights into a cumulative sampling
// table over mode names in sorted order. Negative weights count as zero.
func NormalizeDistribution(dist map[string]float64) ([]string, []float64, error) {
	modes := make([]string, 0, len(dist))
	for mode := range dist {
		modes = append(modes, mode)
	}
	sort.Strings(modes)

	var total float64
	for _, mode := range modes {
		if w := dist[mode]; w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return nil, nil, fmt.Errorf("%w: weights sum to zero", ErrInvalidDistribution)
	}

	cumulative := make([]float64, len(modes))
	var running float64
	for i, mode := range modes {
		if w := dist[mode]; w > 0 {
			running += w / total
		}
		cumulative[i] = running
	}
	// Guard against float drift on the last bucket
	cumulative[len(cumulative)-1] = 1.0

	return modes, cumulative, nil
}

// ValidateDistribution checks mode weights without building the sampling
// table, for submit-time rejection before a job record exists.
func ValidateDistribution(dist map[string]float64) error {
	_, _, err := NormalizeDistribution(dist)
	return err
}

// GeneratePopulation synthesizes count agents with origins and destinations
// sampled uniformly from the graph's nodes and modes drawn from the weight
// distribution. Deterministic for a fixed seed: node candidates are visited
// in id order and modes in name order, and all draws come from one seeded
// stream.
func GeneratePopulation(g *citygraph.Graph, count int, dist map[string]float64, seed int64) ([]Agent, error) {
	nodes := g.NodeIDsSorted()
	if len(nodes) == 0 {
		return nil, ErrEmptyGraph
	}

	modes, cumulative, err := NormalizeDistribution(dist)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	agents := make([]Agent, 0, count)
	for i := 0; i < count; i++ {
		draw := rng.Float64()
		mode := modes[len(modes)-1]
		for j, c := range cumulative {
			if draw < c {
				mode = modes[j]
				break
			}
		}

		agents = append(agents, Agent{
			ID:          i,
			Origin:      nodes[rng.Intn(len(nodes))],
			Destination: nodes[rng.Intn(len(nodes))],
			Mode:        mode,
		})
	}
	return agents, nil
}
