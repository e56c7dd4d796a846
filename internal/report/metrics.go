package report

import (
	"fmt"
	"strings"

	"qualityreport/internal/extract"
)

// DefaultFleetSize is assumed when neither the stagger export nor the
// configuration gives a fleet size.
const DefaultFleetSize = 1000

// BugRatio returns active production bugs per cell and its rating.
func BugRatio(bugs, fleetSize int) (float64, string) {
	if fleetSize <= 0 {
		fleetSize = DefaultFleetSize
	}
	ratio := float64(bugs) / float64(fleetSize)
	switch {
	case ratio < 0.05:
		return ratio, "Excellent"
	case ratio < 0.1:
		return ratio, "Good"
	default:
		return ratio, "Review Needed"
	}
}

// Scorecard statuses.
const (
	StatusGreen    = "GREEN"
	StatusYellow   = "YELLOW"
	StatusRed      = "RED"
	StatusElevated = "ELEVATED"
	StatusHighRisk = "HIGH RISK"
	StatusCritical = "CRITICAL"
)

// Scorecard is one dashboard tile.
type Scorecard struct {
	Name   string `json:"name"`
	Value  int    `json:"value"`
	Status string `json:"status"`
}

// PRBScorecard rates incidents. Any P0/Sev0 report is critical.
func PRBScorecard(prbs []extract.ProblemReport) Scorecard {
	var p0, p1 int
	for _, p := range prbs {
		if containsAny(p.Priority, "P0", "Sev0") {
			p0++
		}
		if containsAny(p.Priority, "P1", "Sev1") {
			p1++
		}
	}
	critical := p0 + p1
	status := StatusGreen
	switch {
	case p0 > 0:
		status = StatusCritical
	case critical > 4:
		status = StatusHighRisk
	case critical > 2:
		status = StatusElevated
	}
	return Scorecard{Name: "Critical PRBs", Value: critical, Status: status}
}

// WeightedScore counts P0/P1 items as 4 points and P2-P4 items as 1.
func WeightedScore(priorities []string) int {
	score := 0
	for _, p := range priorities {
		p = strings.ToUpper(p)
		switch {
		case containsAny(p, "P0", "P1"):
			score += 4
		case containsAny(p, "P2", "P3", "P4"):
			score++
		}
	}
	return score
}

func thresholdStatus(score, yellow, red int) string {
	switch {
	case score > red:
		return StatusRed
	case score > yellow:
		return StatusYellow
	default:
		return StatusGreen
	}
}

// Scorecards computes every tile shown on the summary.
func Scorecards(s *Snapshot) []Scorecard {
	bugs := make([]string, len(s.ProductionBugs))
	for i, b := range s.ProductionBugs {
		bugs[i] = b.Severity
	}
	ci := workItemPriorities(s.CIIssues)
	leftShift := workItemPriorities(s.LeftShiftIssues)
	security := make([]string, len(s.ScanFindings))
	for i, f := range s.ScanFindings {
		security[i] = f.Tier
	}

	at := AtRiskFeatures(s.Risks)
	riskStatus := StatusGreen
	if at > 2 {
		riskStatus = StatusRed
	} else if at > 0 {
		riskStatus = StatusYellow
	}

	bugScore := WeightedScore(bugs)
	ciScore := WeightedScore(ci)
	secScore := WeightedScore(security)
	lsScore := WeightedScore(leftShift)
	return []Scorecard{
		{Name: "At-Risk Features", Value: at, Status: riskStatus},
		PRBScorecard(s.ProblemReports),
		{Name: "Production Bugs", Value: bugScore, Status: thresholdStatus(bugScore, 16, 32)},
		{Name: "CI Issues", Value: ciScore, Status: thresholdStatus(ciScore, 25, 50)},
		{Name: "Security Bugs", Value: secScore, Status: thresholdStatus(secScore, 16, 32)},
		{Name: "LeftShift Issues", Value: lsScore, Status: thresholdStatus(lsScore, 25, 50)},
	}
}

func workItemPriorities(items []extract.WorkItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Priority
	}
	return out
}

// FormatChange renders the percent change from prev to cur.
func FormatChange(cur, prev float64) string {
	if prev == 0 {
		if cur > 0 {
			return "+∞%"
		}
		return "0%"
	}
	pct := (cur - prev) / prev * 100
	switch {
	case pct > 0:
		return fmt.Sprintf("+%.1f%%", pct)
	case pct < 0:
		return fmt.Sprintf("%.1f%%", pct)
	default:
		return "0%"
	}
}

// WeekOverWeek compares this run's counts against the previous run.
type WeekOverWeek struct {
	AtRiskFeatures string `json:"at_risk_features"`
	CriticalPRBs   string `json:"critical_prbs"`
	P0P1Bugs       string `json:"bugs_p0_p1"`
	Coverage       string `json:"coverage_overall_line"`
}

// CompareCounts returns nil when there is no previous run.
func CompareCounts(cur SourceCounts, prev *SourceCounts) *WeekOverWeek {
	if prev == nil {
		return nil
	}
	return &WeekOverWeek{
		AtRiskFeatures: FormatChange(float64(cur.AtRiskFeatures), float64(prev.AtRiskFeatures)),
		CriticalPRBs:   FormatChange(float64(cur.CriticalPRBs), float64(prev.CriticalPRBs)),
		P0P1Bugs:       FormatChange(float64(cur.P0P1Bugs), float64(prev.P0P1Bugs)),
		Coverage:       FormatChange(cur.CoverageOverallLine, prev.CoverageOverallLine),
	}
}
