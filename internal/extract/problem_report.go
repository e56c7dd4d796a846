package extract

import "strings"

var (
	problemReportSpan = Span{Before: 5, After: 50}
	problemNarrative  = Span{Before: 20, After: 80}

	problemTeams = candidateList{
		{text: "SDB", mode: matchExact},
		{text: "Cloud", mode: matchExact},
		{text: "SDB Performance"},
		{text: "CRM Database Sustaining Engineering"},
		{text: "Site Reliability"},
		{text: "CRM DB Replication and Recovery as a Service"},
	}
	problemStates  = exacts("Analysis Complete", "Waiting 3rd Party", "Open", "Resolved", "In Progress")
	problemImpacts = candidateList{
		{text: featureDegradation},
		{text: "Performance degradation (general)", mode: matchExact},
		{text: "Service unavailable", mode: matchExact},
		{text: "Data loss", mode: matchExact},
	}
)

const (
	featureDegradation  = "Feature degradation / disruption (internal service impact)"
	groupHeaderLookback = 20
)

// ParseProblemReports extracts PRB records from a problem-report export.
func ParseProblemReports(text string) []ProblemReport {
	doc := NewDocument(text)
	anchors := ScanAnchors(doc, KindProblemReport, problemReportIDPattern)
	return assemble(anchors, 0, func(a Anchor) ProblemReport {
		return buildProblemReport(doc, a)
	})
}

func buildProblemReport(doc Document, a Anchor) ProblemReport {
	r := defaultProblemReport(a.ID)

	if tier, ok := classifyTier(doc.Slice(Window{Start: a.Line - 1, End: a.Line}), 1); ok {
		r.Priority = TierLabel(tier)
	}
	if r.Priority == "Medium" {
		if tier, ok := lookbackGroupTier(doc, a.Line); ok {
			r.Priority = TierLabel(tier)
		}
	}

	w := NewWindow(a.Line, problemReportSpan, doc.Len()).
		ClipEnd(nextAnchorLine(doc, a.Line, problemReportIDPattern))
	lines := doc.Slice(w)
	if team, ok := problemTeams.fold(lines); ok {
		r.Team = team
	}
	if state, ok := problemStates.fold(lines); ok {
		r.State, r.Status = state, state
	}
	if impact, ok := problemImpacts.fold(lines); ok {
		r.CustomerImpact = impact
	}
	if d, ok := classifyDate(lines); ok {
		r.CreatedDate = d
	}

	nw := NewWindow(a.Line, problemNarrative, doc.Len())
	r.CustomerExperience = closestLine(doc, nw, a.Line, customerExperience)
	if team, ok := refineProblemTeam(doc.Slice(nw)); ok {
		r.Team = team
	}
	if impact, ok := refineCustomerImpact(doc, nw); ok {
		r.CustomerImpact = impact
	}
	r.ProximateCause = closestLine(doc, nw, a.Line, proximateCause)
	r.WhatHappened = closestLine(doc, nw, a.Line, whatHappened)
	r.HowResolved = closestLine(doc, nw, a.Line, howResolved)
	if detail, ok := resolutionDetail(doc, nw); ok {
		r.HowResolved = detail
	}
	r.NextSteps = nextSteps(doc.Slice(nw))

	if r.CustomerImpact != "Unknown" {
		r.Title = a.ID + ": " + r.CustomerImpact
	} else {
		r.Title = a.ID + ": " + r.State + " - " + r.Team
	}
	r.Description = "Problem report " + a.ID + " managed by " + r.Team
	return r
}

// lookbackGroupTier walks upward from the line above the anchor and returns
// the nearest "P<n>(<count>)" group header within the lookback.
func lookbackGroupTier(doc Document, line int) (int, bool) {
	stop := line - groupHeaderLookback
	if stop < 0 {
		stop = 0
	}
	for i := line - 1; i > stop; i-- {
		if m := tierCountPattern.FindStringSubmatch(doc.Line(i)); m != nil {
			return int(m[1][0] - '0'), true
		}
	}
	return 0, false
}

// refineProblemTeam prefers an explicit team line from the wider narrative
// window; an exact "SDB Archival" line overrides everything else.
func refineProblemTeam(lines []string) (string, bool) {
	team, found := "", false
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "Team:") && !strings.Contains(line, "Team Name"):
			team, found = strings.TrimSpace(strings.ReplaceAll(line, "Team:", "")), true
		case line == "SDB" || line == "Cloud":
			team, found = line, true
		case strings.Contains(line, "Database") && len([]rune(line)) < 20:
			team, found = line, true
		default:
			continue
		}
		break
	}
	for _, line := range lines {
		if line == "SDB Archival" {
			return line, true
		}
	}
	return team, found
}

func refineCustomerImpact(doc Document, w Window) (string, bool) {
	for i := w.Start; i < w.End; i++ {
		line := doc.Line(i)
		if strings.Contains(line, "Customer Impact") && i < doc.Len()-1 {
			next := doc.Line(i + 1)
			if len([]rune(next)) > 5 && !strings.Contains(next, "External RCA") {
				return next, true
			}
			continue
		}
		if strings.Contains(line, featureDegradation) {
			return featureDegradation, true
		}
	}
	return "", false
}
