package insights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/obaidmalik/cityflow-backend-go/internal/models"
	"github.com/obaidmalik/cityflow-backend-go/internal/simulation"
)

// FormatMarkdown produces a rule-based markdown summary of a finished
// comparison for the demo UI. It works purely from the aggregates, so it
// stays valid for baseline-only (partial) runs.
func FormatMarkdown(cfg models.JobConfig, stats *simulation.ComparisonStats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### Summary for %s\n\n", cfg.City)
	fmt.Fprintf(&b, "- Traffic: %s\n", cfg.TrafficLevel)
	fmt.Fprintf(&b, "- Agents: %d\n", cfg.NumAgents)
	fmt.Fprintf(&b, "- Tramline: %s to %s\n", cfg.TramStart, cfg.TramEnd)

	if stats.BaselineOnly {
		b.WriteString("\nScenario results are unavailable; figures below cover the baseline network only.\n")
		fmt.Fprintf(&b, "- Unreachable agents (baseline): %d\n", stats.UnreachableBaseline)
		return b.String()
	}

	trend := "no change"
	if stats.OverallDeltaSec < 0 {
		trend = "decrease"
	} else if stats.OverallDeltaSec > 0 {
		trend = "increase"
	}
	var pct float64
	if stats.BaselineAvgSec > 0 {
		pct = 100 * stats.OverallDeltaSec / stats.BaselineAvgSec
	}
	fmt.Fprintf(&b, "- Average travel time: %s to %s (%s, %+.1f%%)\n",
		fmtMinutes(stats.BaselineAvgSec), fmtMinutes(stats.ScenarioAvgSec), trend, pct)
	fmt.Fprintf(&b, "- Agents improved/worsened/unchanged: %.0f%% / %.0f%% / %.0f%%\n",
		stats.ImprovedPercent, stats.WorsenedPercent, stats.UnchangedPercent)
	fmt.Fprintf(&b, "- Unreachable: %d baseline, %d scenario\n",
		stats.UnreachableBaseline, stats.UnreachableScenario)

	if rows := topModeChanges(stats, 2); len(rows) > 0 {
		b.WriteString("\n#### By mode (top changes)\n")
		for _, mode := range rows {
			d := stats.Modes[mode]
			verdict := "unchanged"
			if d.DeltaAvgSec < 0 {
				verdict = "improved"
			} else if d.DeltaAvgSec > 0 {
				verdict = "worsened"
			}
			fmt.Fprintf(&b, "- %s: %s to %s (%s)\n",
				titleCase(mode), fmtMinutes(d.BaselineAvgSec), fmtMinutes(d.ScenarioAvgSec), verdict)
		}
	}

	if why := likelyReasons(cfg, stats); len(why) > 0 {
		b.WriteString("\n#### Why (likely)\n")
		for _, reason := range why {
			fmt.Fprintf(&b, "- %s\n", reason)
		}
	}

	return b.String()
}

func fmtMinutes(sec float64) string {
	return fmt.Sprintf("%.1f min", sec/60)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// topModeChanges ranks modes by absolute average delta.
func topModeChanges(stats *simulation.ComparisonStats, n int) []string {
	modes := make([]string, 0, len(stats.Modes))
	for mode, d := range stats.Modes {
		if d.Compared > 0 {
			modes = append(modes, mode)
		}
	}
	sort.Slice(modes, func(i, j int) bool {
		di := stats.Modes[modes[i]].DeltaAvgSec
		dj := stats.Modes[modes[j]].DeltaAvgSec
		if abs(di) != abs(dj) {
			return abs(di) > abs(dj)
		}
		return modes[i] < modes[j]
	})
	if len(modes) > n {
		modes = modes[:n]
	}
	return modes
}

// likelyReasons applies simple heuristics to explain the headline numbers.
func likelyReasons(cfg models.JobConfig, stats *simulation.ComparisonStats) []string {
	var why []string

	switch {
	case stats.OverallDeltaSec < 0:
		why = append(why, "The tram segment shortens paths for some travelers.")
	case stats.OverallDeltaSec > 0:
		why = append(why, "Tram endpoints are far from demand clusters; few benefit from the link.")
	default:
		why = append(why, "The new link overlaps existing routes; impact is limited in this slice.")
	}

	if tram, ok := stats.Modes["tram"]; ok && tram.Compared > 0 {
		if tram.ScenarioAvgSec < 0.7*tram.BaselineAvgSec {
			why = append(why, "Tram trips are much shorter, indicating a direct shortcut was added.")
		}
	}

	if cfg.TrafficLevel == models.TrafficRushHour {
		why = append(why, "Peak congestion inflates road costs; the tram has a relative advantage.")
	}

	if len(why) > 5 {
		why = why[:5]
	}
	return why
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
