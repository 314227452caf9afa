package simulation

import (
	"container/heap"
	"math"

	"github.com/obaidmalik/cityflow-backend-go/internal/citygraph"
)

// Mode speeds in meters per second
const (
	WalkSpeedMS  = 1.4
	CycleSpeedMS = 4.5 // ~16.2 km/h typical urban cycling
	DriveSpeedMS = 13.9
	TramSpeedMS  = 8.3
)

// maxSearchPops caps heap pops per routing call so a pathological search is
// treated as unreachable instead of hanging the job.
const maxSearchPops = 200000

// costEpsilon is the tolerance for treating two path costs as equal.
const costEpsilon = 1e-9

// RouteResult is the outcome of routing one agent over one graph variant.
// Unreachable is a modeled outcome, not an error; its cost is +Inf.
type RouteResult struct {
	AgentID   int     `json:"agent_id"`
	Variant   string  `json:"variant"`
	Mode      string  `json:"mode"`
	Path      []int64 `json:"path,omitempty"`
	CostSec   float64 `json:"cost_sec"`
	DistanceM float64 `json:"distance_m"`
	Reachable bool    `json:"reachable"`
}

// ModeSpeed returns the travel speed for an agent mode.
func ModeSpeed(mode string) float64 {
	switch mode {
	case citygraph.ModeDrive:
		return DriveSpeedMS
	case citygraph.ModeCycle:
		return CycleSpeedMS
	case citygraph.ModeTram:
		return TramSpeedMS
	default:
		return WalkSpeedMS
	}
}

// edgeUsable reports whether an agent of the given mode may traverse the
// edge. Tram agents also use walk edges for the access legs to and from a
// tram stop.
func edgeUsable(e *citygraph.Edge, mode string) bool {
	if e.HasMode(mode) {
		return true
	}
	if mode == citygraph.ModeTram && e.HasMode(citygraph.ModeWalk) {
		return true
	}
	return false
}

// edgeCostSec returns the traversal time of an edge for an agent mode.
// A tram agent rides tram edges at tram speed and walks everything else.
func edgeCostSec(e *citygraph.Edge, mode string) float64 {
	speed := ModeSpeed(mode)
	if mode == citygraph.ModeTram && !e.HasMode(citygraph.ModeTram) {
		speed = WalkSpeedMS
	}
	return e.CostM / speed
}

type queueItem struct {
	nodeID   int64
	priority float64
	index    int
}

type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	// Stable pop order for equal priorities keeps re-runs bit-identical
	return pq[i].nodeID < pq[j].nodeID
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	n := len(*pq)
	item := x.(*queueItem)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// Route computes the lowest-cost path for one agent over one graph variant
// using Dijkstra on the mode-filtered subgraph. Equal-cost paths resolve to
// the one through the smallest predecessor node id, so identical inputs
// reproduce identical paths.
func Route(g *citygraph.Graph, agent Agent) RouteResult {
	result := RouteResult{
		AgentID: agent.ID,
		Variant: g.Variant,
		Mode:    agent.Mode,
		CostSec: math.Inf(1),
	}

	if _, ok := g.Nodes[agent.Origin]; !ok {
		return result
	}
	if _, ok := g.Nodes[agent.Destination]; !ok {
		return result
	}

	dist := map[int64]float64{agent.Origin: 0}
	prev := make(map[int64]int64)
	visited := make(map[int64]bool)

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &queueItem{nodeID: agent.Origin, priority: 0})

	pops := 0
	for pq.Len() > 0 {
		pops++
		if pops > maxSearchPops {
			// Search budget exhausted; report unreachable rather than hang
			return result
		}

		current := heap.Pop(pq).(*queueItem).nodeID
		if visited[current] {
			continue
		}
		visited[current] = true

		if current == agent.Destination {
			break
		}

		for _, e := range g.Edges[current] {
			if !edgeUsable(e, agent.Mode) || visited[e.To] {
				continue
			}
			next := dist[current] + edgeCostSec(e, agent.Mode)
			old, seen := dist[e.To]
			switch {
			case !seen || next < old-costEpsilon:
				dist[e.To] = next
				prev[e.To] = current
				heap.Push(pq, &queueItem{nodeID: e.To, priority: next})
			case math.Abs(next-old) <= costEpsilon && current < prev[e.To]:
				prev[e.To] = current
			}
		}
	}

	cost, ok := dist[agent.Destination]
	if !ok {
		return result
	}

	path, distance := reconstruct(g, prev, agent)
	if path == nil {
		return result
	}

	result.Path = path
	result.CostSec = cost
	result.DistanceM = distance
	result.Reachable = true
	return result
}

// reconstruct walks the predecessor chain back from the destination and
// sums base edge lengths along the way.
func reconstruct(g *citygraph.Graph, prev map[int64]int64, agent Agent) ([]int64, float64) {
	path := []int64{agent.Destination}
	var distance float64

	current := agent.Destination
	for current != agent.Origin {
		p, ok := prev[current]
		if !ok {
			return nil, 0
		}
		distance += edgeLength(g, p, current, agent.Mode)
		path = append(path, p)
		current = p
	}

	// Reverse into origin -> destination order
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, distance
}

// edgeLength picks the cheapest usable edge between two adjacent nodes,
// matching the edge the search relaxed.
func edgeLength(g *citygraph.Graph, from, to int64, mode string) float64 {
	best := math.Inf(1)
	length := 0.0
	for _, e := range g.Edges[from] {
		if e.To != to || !edgeUsable(e, mode) {
			continue
		}
		if c := edgeCostSec(e, mode); c < best {
			best = c
			length = e.LengthM
		}
	}
	return length
}
