package report

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"qualityreport/internal/extract"
)

var numbers = message.NewPrinter(language.English)

// Render produces the Markdown report for a snapshot. wow may be nil when
// there is no earlier run to compare against.
func Render(s *Snapshot, wow *WeekOverWeek) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Quality Report\n", s.Team)
	fmt.Fprintf(&b, "**Report Date:** %s\n", s.Week.ReportDisplay())
	fmt.Fprintf(&b, "**Reporting Period:** %s to %s\n\n", s.Week.StartDisplay(), s.Week.EndDisplay())

	b.WriteString("## Executive Summary\n")
	fmt.Fprintf(&b, "This quality report provides an overview of system health, risk factors, incidents, deployments, and test coverage metrics for the period %s.\n\n", s.Week.PeriodDisplay())
	writeScorecards(&b, s, wow)

	writeRisks(&b, s.Risks)
	writeIncidents(&b, s)
	writeDeployment(&b, s)
	writeCodeline(&b, s)
	if s.Narratives != nil {
		writeNarratives(&b, s)
	}
	return b.String()
}

func writeScorecards(b *strings.Builder, s *Snapshot, wow *WeekOverWeek) {
	b.WriteString("**Scorecard:**\n")
	for _, c := range Scorecards(s) {
		fmt.Fprintf(b, "- %s: %d (**%s**)\n", c.Name, c.Value, c.Status)
	}
	fleet := s.FleetSize
	ratio, rating := BugRatio(len(s.ProductionBugs), fleet)
	if fleet <= 0 {
		fleet = DefaultFleetSize
	}
	fmt.Fprintf(b, "- Active Bugs: %d (%.3f per cell across %s cells - %s)\n",
		len(s.ProductionBugs), ratio, numbers.Sprintf("%d", fleet), rating)
	if wow != nil {
		b.WriteString("\n**Week over Week:**\n")
		fmt.Fprintf(b, "- At-Risk Features: %s\n", wow.AtRiskFeatures)
		fmt.Fprintf(b, "- Critical PRBs: %s\n", wow.CriticalPRBs)
		fmt.Fprintf(b, "- P0/P1 Production Bugs: %s\n", wow.P0P1Bugs)
		fmt.Fprintf(b, "- Overall Line Coverage: %s\n", wow.Coverage)
	}
	b.WriteString("\n")
}

func writeRisks(b *strings.Builder, risks []extract.Risk) {
	b.WriteString("## Risk Assessment\n")
	fmt.Fprintf(b, "**Total Features Tracked:** %d\n", len(risks))
	b.WriteString("**Risk Status Breakdown:**\n")
	writeBreakdown(b, len(risks), func(i int) string { return risks[i].Status }, false)
}

func writeIncidents(b *strings.Builder, s *Snapshot) {
	b.WriteString("\n## Incident Analysis\n")
	fmt.Fprintf(b, "**Total PRBs:** %d\n", len(s.ProblemReports))
	b.WriteString("**PRB Priority Breakdown:**\n")
	writeBreakdown(b, len(s.ProblemReports), func(i int) string { return s.ProblemReports[i].Priority }, false)
	for _, p := range s.ProblemReports {
		fmt.Fprintf(b, "- %s: %s (%s, %s)\n", p.ID, p.Title, p.Team, p.Status)
	}

	fmt.Fprintf(b, "\n**Total Active Bugs:** %d\n", len(s.ProductionBugs))
	b.WriteString("**Bug Severity Breakdown:**\n")
	writeBreakdown(b, len(s.ProductionBugs), func(i int) string { return s.ProductionBugs[i].Severity }, false)
}

func writeDeployment(b *strings.Builder, s *Snapshot) {
	b.WriteString("\n## Deployment Quality\n")
	if len(s.Staggers) > 0 {
		fmt.Fprintf(b, "**Fleet Size:** %s cells\n", numbers.Sprintf("%d", s.Deployment.FleetSize))
		fmt.Fprintf(b, "**Active SDB Versions:** %d\n", len(s.Deployment.Versions))
		for _, v := range s.Deployment.Versions {
			fmt.Fprintf(b, "- **v%s**: %s cells (%s)\n", v.Version, numbers.Sprintf("%d", v.Cells), strings.Join(staggersFor(s, v.Version), ", "))
		}
	}
	if s.DeploymentSummary != "" {
		b.WriteString("\n")
		b.WriteString(s.DeploymentSummary)
		b.WriteString("\n")
	}
}

func staggersFor(s *Snapshot, version string) []string {
	seen := map[string]bool{}
	var out []string
	for _, st := range s.Staggers {
		if st.Version == version && !seen[st.Name] {
			seen[st.Name] = true
			out = append(out, st.Name)
		}
	}
	sort.Strings(out)
	return out
}

func writeCodeline(b *strings.Builder, s *Snapshot) {
	b.WriteString("\n## Development Codeline Health\n")
	fmt.Fprintf(b, "**CI Issues:** %d\n", len(s.CIIssues))
	if len(s.CIIssues) > 0 {
		b.WriteString("**CI Issues by Team:**\n")
		writeBreakdown(b, len(s.CIIssues), func(i int) string { return s.CIIssues[i].Team }, true)
	}
	fmt.Fprintf(b, "\n**LeftShift Issues:** %d\n", len(s.LeftShiftIssues))
	fmt.Fprintf(b, "**ABS Issues:** %d\n", len(s.ABSIssues))
	fmt.Fprintf(b, "**Security Issues:** %d\n", len(s.SecurityIssues))
	if len(s.SecurityIssues) > 0 {
		b.WriteString("**Security Issues by Category:**\n")
		writeBreakdown(b, len(s.SecurityIssues), func(i int) string { return s.SecurityIssues[i].Category }, true)
	}
	if len(s.ScanFindings) > 0 {
		fmt.Fprintf(b, "**Security Scan Bugs:** %d\n", len(s.ScanFindings))
		writeBreakdown(b, len(s.ScanFindings), func(i int) string { return s.ScanFindings[i].Category }, true)
	}
	for _, name := range sortedKeys(s.Backlogs) {
		items := s.Backlogs[name]
		fmt.Fprintf(b, "**Backlog (%s):** %d\n", name, len(items))
		writeBreakdown(b, len(items), func(i int) string { return items[i].Priority }, true)
	}

	g := s.Churn
	b.WriteString("\n**Code Churn Analysis:**\n")
	if g.Commits > 0 {
		fmt.Fprintf(b, "- Total Commits: %d\n", g.Commits)
		fmt.Fprintf(b, "- Lines Changed: %s (+%s -%s)\n", numbers.Sprintf("%d", g.LinesChanged),
			numbers.Sprintf("%d", g.LinesAdded), numbers.Sprintf("%d", g.LinesDeleted))
		fmt.Fprintf(b, "- Files Changed: %d\n", g.FilesChanged)
		fmt.Fprintf(b, "- Active Authors: %d\n", len(g.Authors))
		fmt.Fprintf(b, "- Commit Frequency: %.1f commits/day\n", g.CommitsPerDay)
		fmt.Fprintf(b, "- Code Churn Risk: **%s**\n", g.Risk)
		if len(g.MostChanged) > 0 {
			b.WriteString("- Most Changed Files:\n")
			for i, f := range g.MostChanged {
				if i == 3 {
					break
				}
				fmt.Fprintf(b, "  %d. %s: %d lines\n", i+1, f.File, f.Total)
			}
		}
	} else {
		start, end := orNA(g.PeriodStart), orNA(g.PeriodEnd)
		risk := g.Risk
		if risk == "" {
			risk = "Low"
		}
		fmt.Fprintf(b, "- **Quiet Period**: No commits during reporting period (%s to %s)\n", start, end)
		fmt.Fprintf(b, "- **Code Churn Risk**: %s (minimal development activity)\n", risk)
	}

	if c := s.Coverage; c != nil {
		fmt.Fprintf(b, "\n**Code Coverage (%s):**\n", c.Component)
		fmt.Fprintf(b, "- New Code Coverage: %.1f%%\n", c.NewCode.Coverage)
		fmt.Fprintf(b, "- Overall Coverage: %.1f%%\n", c.Overall.Coverage)
		fmt.Fprintf(b, "- Overall Line Coverage: %.1f%%\n", c.Overall.LineCoverage)
	}
}

func writeNarratives(b *strings.Builder, s *Snapshot) {
	n := s.Narratives
	b.WriteString("\n## Incident Narratives\n")
	for _, p := range s.ProblemReports {
		text, ok := n.PRBNarratives[p.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "\n### %s: %s\n%s\n", p.ID, p.Title, text)
		if analysis := n.PRBAnalyses[p.ID]; analysis != "" {
			fmt.Fprintf(b, "\n%s\n", analysis)
		}
	}
	if n.LowerPrioritySummary != "" {
		fmt.Fprintf(b, "\n%s\n", n.LowerPrioritySummary)
	}
	if n.TrendAnalysis != "" {
		fmt.Fprintf(b, "\n## Trend Analysis\n%s\n", n.TrendAnalysis)
	}
	if n.RiskAnalysis != "" {
		fmt.Fprintf(b, "\n## Deployment Risk Analysis\n%s\n", n.RiskAnalysis)
	}
}

// writeBreakdown lists value counts. Values keep first-seen order unless
// byCount is set, in which case the largest groups come first.
func writeBreakdown(b *strings.Builder, n int, value func(int) string, byCount bool) {
	counts := map[string]int{}
	var order []string
	for i := 0; i < n; i++ {
		v := value(i)
		if v == "" {
			v = "Unknown"
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	if byCount {
		sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	}
	for _, v := range order {
		fmt.Fprintf(b, "- %s: %d\n", v, counts[v])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
