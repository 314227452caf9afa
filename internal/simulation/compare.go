package simulation

import (
	"math"

	"github.com/obaidmalik/cityflow-backend-go/internal/citygraph"
	"github.com/obaidmalik/cityflow-backend-go/internal/stats"
)

// deltaEpsilon separates genuinely changed costs from float noise when
// classifying agents as improved or worsened.
const deltaEpsilon = 1e-6

// ModeStats aggregates routed costs for one mode within one variant.
// Averages cover reachable agents only.
type ModeStats struct {
	Count       int     `json:"count"`
	Reachable   int     `json:"reachable_count"`
	Unreachable int     `json:"unreachable"`
	AvgCostSec  float64 `json:"avg_cost_sec"`
	MinCostSec  float64 `json:"min_cost_sec"`
	MaxCostSec  float64 `json:"max_cost_sec"`
}

// VariantStats aggregates one variant's routing outcomes.
type VariantStats struct {
	Variant       string                `json:"variant"`
	TotalAgents   int                   `json:"total_agents"`
	Reachable     int                   `json:"reachable"`
	Unreachable   int                   `json:"unreachable"`
	AvgCostSec    float64               `json:"avg_cost_sec"`
	MedianCostSec float64               `json:"median_cost_sec"`
	P90CostSec    float64               `json:"p90_cost_sec"`
	MinCostSec    float64               `json:"min_cost_sec"`
	MaxCostSec    float64               `json:"max_cost_sec"`
	AvgDistanceM  float64               `json:"avg_distance_m"`
	Modes         map[string]*ModeStats `json:"by_mode"`
}

// ModeDelta compares one mode's average cost across variants. Only agents
// reachable in both variants contribute.
type ModeDelta struct {
	Compared        int     `json:"compared"`
	BaselineAvgSec  float64 `json:"baseline_avg_sec"`
	ScenarioAvgSec  float64 `json:"scenario_avg_sec"`
	DeltaAvgSec     float64 `json:"delta_avg_sec"`
	DeltaAvgPercent float64 `json:"delta_avg_percent"`
}

// ComparisonStats is the derived cross-variant aggregate. It is recomputed
// from scratch each run, never mutated incrementally.
type ComparisonStats struct {
	TotalAgents         int                  `json:"total_agents"`
	ComparedAgents      int                  `json:"compared_agents"`
	UnreachableBaseline int                  `json:"unreachable_baseline"`
	UnreachableScenario int                  `json:"unreachable_scenario"`
	BaselineAvgSec      float64              `json:"baseline_avg_sec"`
	ScenarioAvgSec      float64              `json:"scenario_avg_sec"`
	OverallDeltaSec     float64              `json:"overall_delta_sec"`
	ImprovedPercent     float64              `json:"improved_percent"`
	WorsenedPercent     float64              `json:"worsened_percent"`
	UnchangedPercent    float64              `json:"unchanged_percent"`
	Modes               map[string]ModeDelta `json:"by_mode"`
	BaselineOnly        bool                 `json:"baseline_only"`
}

// ComparisonRun bundles the per-agent route results of both variants with
// the aggregates. The raw results feed downstream map rendering.
type ComparisonRun struct {
	Agents        []Agent
	Baseline      []RouteResult
	Scenario      []RouteResult
	BaselineStats *VariantStats
	ScenarioStats *VariantStats
	Stats         *ComparisonStats
}

// RouteAll routes every agent over one graph variant, in agent order.
func RouteAll(g *citygraph.Graph, agents []Agent) []RouteResult {
	results := make([]RouteResult, len(agents))
	for i, agent := range agents {
		results[i] = Route(g, agent)
	}
	return results
}

// Compare routes one shared agent population against both graph variants
// and aggregates differential statistics. Holding origin, destination and
// mode fixed across variants is what makes the comparison valid. A nil
// scenario graph degrades to a baseline-only run.
func Compare(base, scenario *citygraph.Graph, agents []Agent) *ComparisonRun {
	run := &ComparisonRun{Agents: agents}

	run.Baseline = RouteAll(base, agents)
	run.BaselineStats = ComputeVariantStats(citygraph.VariantBaseline, agents, run.Baseline)

	if scenario != nil {
		run.Scenario = RouteAll(scenario, agents)
		run.ScenarioStats = ComputeVariantStats(citygraph.VariantScenario, agents, run.Scenario)
	}

	run.Stats = computeComparison(agents, run.Baseline, run.Scenario)
	return run
}

// ComputeVariantStats aggregates one variant's results. Unreachable agents
// are counted but their infinite costs never enter the averages.
func ComputeVariantStats(variant string, agents []Agent, results []RouteResult) *VariantStats {
	vs := &VariantStats{
		Variant:     variant,
		TotalAgents: len(agents),
		Modes:       make(map[string]*ModeStats),
	}

	var costs, distances []float64
	modeCosts := make(map[string][]float64)

	for i, r := range results {
		mode := agents[i].Mode
		ms := vs.Modes[mode]
		if ms == nil {
			ms = &ModeStats{}
			vs.Modes[mode] = ms
		}
		ms.Count++

		if !r.Reachable {
			vs.Unreachable++
			ms.Unreachable++
			continue
		}

		vs.Reachable++
		ms.Reachable++
		costs = append(costs, r.CostSec)
		distances = append(distances, r.DistanceM)
		modeCosts[mode] = append(modeCosts[mode], r.CostSec)
	}

	vs.AvgCostSec = stats.Mean(costs)
	vs.MedianCostSec = stats.Median(costs)
	vs.P90CostSec = stats.Percentile(costs, 90)
	vs.MinCostSec = stats.Min(costs)
	vs.MaxCostSec = stats.Max(costs)
	vs.AvgDistanceM = stats.Mean(distances)

	for mode, ms := range vs.Modes {
		mc := modeCosts[mode]
		ms.AvgCostSec = stats.Mean(mc)
		ms.MinCostSec = stats.Min(mc)
		ms.MaxCostSec = stats.Max(mc)
	}
	return vs
}

func computeComparison(agents []Agent, baseline, scenario []RouteResult) *ComparisonStats {
	cs := &ComparisonStats{
		TotalAgents: len(agents),
		Modes:       make(map[string]ModeDelta),
	}

	for _, r := range baseline {
		if !r.Reachable {
			cs.UnreachableBaseline++
		}
	}

	if scenario == nil {
		cs.BaselineOnly = true
		return cs
	}

	for _, r := range scenario {
		if !r.Reachable {
			cs.UnreachableScenario++
		}
	}

	var baseCosts, scenCosts []float64
	modeBase := make(map[string][]float64)
	modeScen := make(map[string][]float64)
	improved, worsened, unchanged := 0, 0, 0

	for i := range agents {
		b, s := baseline[i], scenario[i]
		if !b.Reachable || !s.Reachable {
			continue
		}

		baseCosts = append(baseCosts, b.CostSec)
		scenCosts = append(scenCosts, s.CostSec)
		mode := agents[i].Mode
		modeBase[mode] = append(modeBase[mode], b.CostSec)
		modeScen[mode] = append(modeScen[mode], s.CostSec)

		switch delta := s.CostSec - b.CostSec; {
		case delta < -deltaEpsilon:
			improved++
		case delta > deltaEpsilon:
			worsened++
		default:
			unchanged++
		}
	}

	cs.ComparedAgents = len(baseCosts)
	cs.BaselineAvgSec = stats.Mean(baseCosts)
	cs.ScenarioAvgSec = stats.Mean(scenCosts)
	cs.OverallDeltaSec = cs.ScenarioAvgSec - cs.BaselineAvgSec

	if cs.ComparedAgents > 0 {
		total := float64(cs.ComparedAgents)
		cs.ImprovedPercent = 100 * float64(improved) / total
		cs.WorsenedPercent = 100 * float64(worsened) / total
		cs.UnchangedPercent = 100 * float64(unchanged) / total
	}

	for mode, bc := range modeBase {
		sc := modeScen[mode]
		delta := ModeDelta{
			Compared:       len(bc),
			BaselineAvgSec: stats.Mean(bc),
			ScenarioAvgSec: stats.Mean(sc),
		}
		delta.DeltaAvgSec = delta.ScenarioAvgSec - delta.BaselineAvgSec
		if delta.BaselineAvgSec > 0 && !math.IsInf(delta.BaselineAvgSec, 1) {
			delta.DeltaAvgPercent = 100 * delta.DeltaAvgSec / delta.BaselineAvgSec
		}
		cs.Modes[mode] = delta
	}
	return cs
}
