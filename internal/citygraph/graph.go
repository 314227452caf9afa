package citygraph

import (
	"math"
	"sort"

	"github.com/obaidmalik/cityflow-backend-go/internal/spatial"
)

// Graph variant names
const (
	VariantBaseline = "baseline"
	VariantScenario = "scenario"
)

// Transport modes an edge can carry
const (
	ModeWalk  = "walk"
	ModeDrive = "drive"
	ModeCycle = "cycle"
	ModeTram  = "tram"
)

// Node represents a vertex in the street/transit graph
type Node struct {
	ID  int64   `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Edge represents a directed segment between two nodes. CostM is the
// effective length after traffic adjustment; LengthM is the base length and
// is never overwritten, so adjustments don't compound.
type Edge struct {
	From    int64    `json:"from"`
	To      int64    `json:"to"`
	LengthM float64  `json:"length_m"`
	Modes   []string `json:"modes"`
	CostM   float64  `json:"-"`
}

// HasMode reports whether the edge carries the given mode.
func (e *Edge) HasMode(mode string) bool {
	for _, m := range e.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// Graph is a directed weighted graph of one city variant. Once built it is
// read-only and safe to share across concurrent routing calls.
type Graph struct {
	Variant string
	Nodes   map[int64]*Node
	Edges   map[int64][]*Edge

	// Snapped endpoint node ids of the spliced tram corridor; empty on the
	// baseline variant.
	TramNodes []int64
}

// NewGraph creates an empty graph for the given variant.
func NewGraph(variant string) *Graph {
	return &Graph{
		Variant: variant,
		Nodes:   make(map[int64]*Node),
		Edges:   make(map[int64][]*Edge),
	}
}

// AddNode inserts a node, keeping the first definition on duplicate ids.
func (g *Graph) AddNode(n *Node) {
	if _, ok := g.Nodes[n.ID]; !ok {
		g.Nodes[n.ID] = n
	}
}

// AddEdge appends a directed edge. CostM defaults to the base length.
func (g *Graph) AddEdge(e *Edge) {
	if e.CostM == 0 {
		e.CostM = e.LengthM
	}
	g.Edges[e.From] = append(g.Edges[e.From], e)
}

// Clone returns a deep copy of the edge structure. Node records are
// immutable and shared between the copies.
func (g *Graph) Clone(variant string) *Graph {
	c := NewGraph(variant)
	for id, n := range g.Nodes {
		c.Nodes[id] = n
	}
	for from, edges := range g.Edges {
		copied := make([]*Edge, len(edges))
		for i, e := range edges {
			dup := *e
			copied[i] = &dup
		}
		c.Edges[from] = copied
	}
	c.TramNodes = append([]int64(nil), g.TramNodes...)
	return c
}

// NodeIDsSorted returns all node ids in ascending order, the stable
// iteration order used wherever determinism matters.
func (g *Graph) NodeIDsSorted() []int64 {
	ids := make([]int64, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NearestNode snaps a coordinate to the closest graph node, returning the
// node id and the snap distance in meters.
func (g *Graph) NearestNode(lat, lon float64) (int64, float64) {
	best := int64(-1)
	minDist := math.Inf(1)
	for _, id := range g.NodeIDsSorted() {
		n := g.Nodes[id]
		d := spatial.HaversineDistance(lat, lon, n.Lat, n.Lon)
		if d < minDist {
			minDist = d
			best = id
		}
	}
	return best, minDist
}
