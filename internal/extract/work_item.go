package extract

import "strings"

var (
	workItemSpan = Span{Before: 15, After: 10}

	workItemTeams = candidateList{
		{text: "Sayonara Data Management"},
		{text: "Sayonara Foundation Services"},
		{text: "Sayonara TxP"},
		{text: "SDB Catalog Services"},
		{text: "SDB Engine Health"},
		{text: "SDB Query Proc"},
		{text: "SDBStore"},
		{text: "SDB Production Readiness"},
		{text: "SDB Data Management Work Queue", value: "Sayonara Data Management"},
		{text: "SDB Foundation Services Work Queue", value: "Sayonara Foundation Services"},
		{text: "SDB Engine Health and Diagnostics", value: "SDB Engine Health"},
		{text: "SDB Query Proc Execution", value: "SDB Query Proc"},
	}
	// Known owners used to infer a team when no team name is nearby.
	workItemOwners = candidateList{
		{text: "Kaushal Mittal", value: "Sayonara TxP"},
		{text: "Shao-Yuan Ho", value: "Sayonara Data Management"},
		{text: "Anup Ghatage", value: "Sayonara Data Management"},
		{text: "Thomas Fanghaenel", value: "SDB Engine Health"},
		{text: "Vaibhav Arora", value: "Sayonara Data Management"},
	}
	workItemStatuses = substrings("New", "In Progress", "Triaged", "Ready for Review", "Waiting")
)

// ParseWorkItems extracts CI, LeftShift or ABS work items from a report
// export where attributes sit within a few lines of each work ID.
func ParseWorkItems(text string, source Source) []WorkItem {
	doc := NewDocument(text)
	anchors := ScanAnchors(doc, KindWorkItem, workItemIDPattern)
	return assemble(anchors, 0, func(a Anchor) WorkItem {
		return buildWorkItem(doc, a, source)
	})
}

func buildWorkItem(doc Document, a Anchor, source Source) WorkItem {
	r := defaultWorkItem(a.ID, source)

	w := NewWindow(a.Line, workItemSpan, doc.Len())
	lines := doc.Slice(w)

	for _, line := range lines {
		if team, ok := workItemTeams.match(line); ok {
			r.Team = team
		}
		if r.Team == "Unknown" {
			if team, ok := workItemOwners.match(line); ok {
				r.Team = team
			}
		}
	}
	if p, ok := classifyRawTier(lines); ok {
		r.Priority = p
	}
	if s, ok := workItemStatuses.fold(lines); ok {
		r.Status = s
	}
	if b, ok := classifyBuild(lines); ok {
		r.BuildVersion = b
	}
	if d, ok := classifyDate(lines); ok {
		r.CreatedDate = d
	}
	if w.Contains(a.Line + 1) {
		if s, ok := classifySubject(doc.Line(a.Line+1), 10, func(line string) bool {
			return strings.HasPrefix(line, "Subtotal")
		}); ok {
			r.Subject = truncateRunes(s, 150)
		}
	}
	return r
}
