package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"qualityreport/internal/churn"
	"qualityreport/internal/deploy"
	"qualityreport/internal/extract"
)

func fixtureSnapshot() *Snapshot {
	prb := extract.NewProblemReport("PRB0012345")
	prb.Title = "Storage latency spike"
	prb.Priority = "P1-High"
	prb.Team = "SDB Performance"

	bug := extract.NewProductionBug("W-12345678")
	bug.Title = "Login service timeout"
	bug.Tier = "P1"
	bug.Severity = "P1-High"

	staggers := []deploy.Stagger{
		{Name: "SB0", Version: "256.4", Cells: 40, Phase: deploy.PhaseSandbox},
		{Name: "R1", Version: "256.4", Cells: 1200, Phase: deploy.PhaseProduction},
		{Name: "R2", Version: "254.9", Cells: 300, Phase: deploy.PhaseProduction},
	}

	return &Snapshot{
		RunID: "run-1",
		Team:  "SDB",
		Week:  WeekFor(time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC)),
		Risks: []extract.Risk{
			{Feature: "Online resharding", Status: "At Risk", Priority: "High"},
			{Feature: "Backup v2", Status: "On Track", Priority: "Medium"},
		},
		ProblemReports: []extract.ProblemReport{prb},
		ProductionBugs: []extract.ProductionBug{bug},
		CIIssues: []extract.WorkItem{
			{ID: "W-11111111", Source: extract.SourceCI, Team: "SDB Store", Priority: "P1"},
			{ID: "W-22222222", Source: extract.SourceCI, Team: "SDB Store", Priority: "P3"},
			{ID: "W-33333333", Source: extract.SourceCI, Team: "SDB Engine", Priority: "P2"},
		},
		LeftShiftIssues: []extract.WorkItem{{ID: "W-44444444", Source: extract.SourceLeftShift, Priority: "P0"}},
		SecurityIssues:  []extract.SecurityFinding{{ID: "W-55555555", Category: "RESOURCE_LEAK"}},
		ScanFindings:    []extract.ScanFinding{{ID: "W-66666666", Tier: "P1", Category: "Resource Leak"}},
		Coverage: &extract.CoverageSummary{
			Component: "SDB Engine",
			NewCode:   extract.CoverageSide{Coverage: 81.2, LineCoverage: 83.0},
			Overall:   extract.CoverageSide{Coverage: 70.4, LineCoverage: 72.5},
		},
		Staggers:   staggers,
		Deployment: deploy.Summarize(staggers),
		FleetSize:  1540,
		Churn: churn.Stats{
			PeriodStart:   "2025-09-08",
			PeriodEnd:     "2025-09-14",
			Commits:       12,
			LinesAdded:    1500,
			LinesDeleted:  250,
			LinesChanged:  1750,
			FilesChanged:  9,
			Authors:       []string{"alice", "bob"},
			MostChanged:   []churn.FileChange{{File: "src/engine/page.c", Added: 900, Deleted: 100, Total: 1000}},
			CommitsPerDay: 12.0 / 7,
			Risk:          churn.RiskLow,
		},
	}
}

func TestFinalizeCounts(t *testing.T) {
	s := fixtureSnapshot()
	now := time.Date(2025, 9, 17, 9, 0, 0, 0, time.UTC)
	s.Finalize(now)

	assert.Equal(t, Metadata{
		GeneratedAt:   now,
		PeriodStart:   "2025-09-08",
		PeriodEnd:     "2025-09-14",
		PeriodDisplay: "September 08-14, 2025",
		Sources: SourceCounts{
			Risks:               2,
			AtRiskFeatures:      1,
			PRBs:                1,
			CriticalPRBs:        1,
			Bugs:                1,
			P0P1Bugs:            1,
			Deployments:         3,
			CITotal:             3,
			CIP0P1:              1,
			SecurityTotal:       2,
			SecurityP0P1:        1,
			LeftShiftTotal:      1,
			LeftShiftP0P1:       1,
			CoverageOverall:     70.4,
			CoverageOverallLine: 72.5,
			CoverageNewCode:     81.2,
			CoverageNewCodeLine: 83.0,
		},
	}, s.Metadata)
}

func TestFinalizeWithoutCoverageOrNarratives(t *testing.T) {
	s := &Snapshot{Week: WeekFor(time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC))}
	s.Finalize(time.Now())

	assert.False(t, s.Metadata.Sources.HasNarratives)
	assert.Zero(t, s.Metadata.Sources.CoverageOverallLine)

	s.Narratives = &Narratives{}
	s.Finalize(time.Now())
	assert.True(t, s.Metadata.Sources.HasNarratives)
}

func TestCriticalPRBsAndAtRisk(t *testing.T) {
	assert.Equal(t, 3, CriticalPRBs(prbs("P0", "Sev1", "P1-High", "P2", "Sev3")))
	assert.Equal(t, 1, AtRiskFeatures([]extract.Risk{{Status: "At Risk"}, {Status: "at risk"}, {Status: "At Risk "}}))
}
