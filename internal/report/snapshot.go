package report

import (
	"strings"
	"time"

	"qualityreport/internal/churn"
	"qualityreport/internal/deploy"
	"qualityreport/internal/extract"
)

// Narratives holds the LLM-written sections of a report.
type Narratives struct {
	PRBNarratives        map[string]string `json:"prb_narratives"`
	PRBAnalyses          map[string]string `json:"prb_analyses"`
	LowerPrioritySummary string            `json:"lower_priority_summary,omitempty"`
	TrendAnalysis        string            `json:"trend_analysis"`
	RiskAnalysis         string            `json:"risk_analysis"`
}

// Snapshot is everything collected for one weekly run.
type Snapshot struct {
	RunID string `json:"run_id"`
	Team  string `json:"team"`
	Week  Week   `json:"week"`

	Risks           []extract.Risk            `json:"risks"`
	ProblemReports  []extract.ProblemReport   `json:"prbs"`
	ProductionBugs  []extract.ProductionBug   `json:"bugs"`
	CIIssues        []extract.WorkItem        `json:"ci_issues"`
	LeftShiftIssues []extract.WorkItem        `json:"leftshift_issues"`
	ABSIssues       []extract.WorkItem        `json:"abs_issues"`
	SecurityIssues  []extract.SecurityFinding `json:"security_issues"`
	ScanFindings    []extract.ScanFinding     `json:"security_bugs"`
	// Backlogs holds grouped backlog exports keyed by parser name.
	Backlogs map[string][]extract.BacklogItem `json:"backlogs,omitempty"`

	Coverage          *extract.CoverageSummary `json:"coverage_summary,omitempty"`
	Staggers          []deploy.Stagger         `json:"stagger_deployments"`
	Deployment        deploy.Summary           `json:"deployment"`
	FleetSize         int                      `json:"fleet_size"`
	DeploymentSummary string                   `json:"deployment_summary"`
	Churn             churn.Stats              `json:"git_stats"`
	Narratives        *Narratives              `json:"llm_content,omitempty"`

	Metadata Metadata `json:"metadata"`
}

// Metadata summarizes a snapshot. The counts are what week-over-week
// comparisons read back from the archive.
type Metadata struct {
	GeneratedAt   time.Time    `json:"generated_at"`
	PeriodStart   string       `json:"report_period_start"`
	PeriodEnd     string       `json:"report_period_end"`
	PeriodDisplay string       `json:"report_period_display"`
	Sources       SourceCounts `json:"data_sources"`
}

type SourceCounts struct {
	Risks          int  `json:"risks"`
	AtRiskFeatures int  `json:"at_risk_features"`
	PRBs           int  `json:"prbs"`
	CriticalPRBs   int  `json:"critical_prbs"`
	Bugs           int  `json:"bugs"`
	P0P1Bugs       int  `json:"bugs_p0_p1"`
	Deployments    int  `json:"deployments"`
	HasNarratives  bool `json:"has_llm_content"`

	CITotal        int `json:"ci_total"`
	CIP0P1         int `json:"ci_p0_p1"`
	SecurityTotal  int `json:"security_total"`
	SecurityP0P1   int `json:"security_p0_p1"`
	LeftShiftTotal int `json:"leftshift_total"`
	LeftShiftP0P1  int `json:"leftshift_p0_p1"`

	CoverageOverall     float64 `json:"coverage_overall"`
	CoverageOverallLine float64 `json:"coverage_overall_line"`
	CoverageNewCode     float64 `json:"coverage_new_code"`
	CoverageNewCodeLine float64 `json:"coverage_new_code_line"`
}

// Finalize fills in the metadata from the collected data.
func (s *Snapshot) Finalize(now time.Time) {
	m := Metadata{
		GeneratedAt:   now,
		PeriodStart:   s.Week.StartISO(),
		PeriodEnd:     s.Week.EndISO(),
		PeriodDisplay: s.Week.PeriodDisplay(),
	}
	c := &m.Sources
	c.Risks = len(s.Risks)
	c.AtRiskFeatures = AtRiskFeatures(s.Risks)
	c.PRBs = len(s.ProblemReports)
	c.CriticalPRBs = CriticalPRBs(s.ProblemReports)
	c.Bugs = len(s.ProductionBugs)
	c.P0P1Bugs = countP0P1(len(s.ProductionBugs), func(i int) string { return s.ProductionBugs[i].Severity })
	c.Deployments = len(s.Staggers)
	c.HasNarratives = s.Narratives != nil

	c.CITotal = len(s.CIIssues)
	c.CIP0P1 = countP0P1(len(s.CIIssues), func(i int) string { return s.CIIssues[i].Priority })
	c.SecurityTotal = len(s.SecurityIssues) + len(s.ScanFindings)
	c.SecurityP0P1 = countP0P1(len(s.ScanFindings), func(i int) string { return s.ScanFindings[i].Tier })
	c.LeftShiftTotal = len(s.LeftShiftIssues)
	c.LeftShiftP0P1 = countP0P1(len(s.LeftShiftIssues), func(i int) string { return s.LeftShiftIssues[i].Priority })

	if s.Coverage != nil {
		c.CoverageOverall = s.Coverage.Overall.Coverage
		c.CoverageOverallLine = s.Coverage.Overall.LineCoverage
		c.CoverageNewCode = s.Coverage.NewCode.Coverage
		c.CoverageNewCodeLine = s.Coverage.NewCode.LineCoverage
	}
	s.Metadata = m
}

func countP0P1(n int, priority func(int) string) int {
	count := 0
	for i := 0; i < n; i++ {
		p := strings.ToUpper(priority(i))
		if strings.HasPrefix(p, "P0") || strings.HasPrefix(p, "P1") {
			count++
		}
	}
	return count
}

// CriticalPRBs counts problem reports at P0/P1 or Sev0/Sev1.
func CriticalPRBs(prbs []extract.ProblemReport) int {
	n := 0
	for _, p := range prbs {
		if containsAny(p.Priority, "P0", "P1", "Sev0", "Sev1") {
			n++
		}
	}
	return n
}

// AtRiskFeatures counts risks whose status is exactly "At Risk".
func AtRiskFeatures(risks []extract.Risk) int {
	n := 0
	for _, r := range risks {
		if r.Status == "At Risk" {
			n++
		}
	}
	return n
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
