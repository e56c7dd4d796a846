package extract

import "strings"

// ProductionBugLimit caps how many anchors a bug export may contribute.
const ProductionBugLimit = 30

var (
	productionBugSpan = Span{Before: 3, After: 8}

	bugComponents = substrings(
		"Sayonara TxP", "SDB Query Proc Optimizer", "Sayonara Data Management",
		"Sayonara Foundation Services", "SDBStore", "SDB QP Execution",
		"SDB TxP Work Queue", "SDBStore Work Queue",
	)
	bugStatuses        = exacts("New", "In Progress", "Triaged", "Open", "Resolved", "Closed")
	bugAssigneeKeyword = []string{"sdb", "queue", "falcon", "usa", "ind", "deu", "gbr"}
)

// ParseProductionBugs extracts active production bugs. Only the first
// ProductionBugLimit work IDs in the export are considered, duplicates
// included.
func ParseProductionBugs(text string) []ProductionBug {
	doc := NewDocument(text)
	sections := trackTierSections(doc)
	anchors := ScanAnchors(doc, KindProductionBug, workItemIDPattern)
	return assemble(anchors, ProductionBugLimit, func(a Anchor) ProductionBug {
		return buildProductionBug(doc, a, sections[a.Line])
	})
}

// trackTierSections records, for every line, the tier declared by the most
// recent "P<n>(<count>)" header at or above it. Headers after an anchor do
// not count toward that anchor's tier.
func trackTierSections(doc Document) []SectionState {
	states := make([]SectionState, doc.Len())
	var state SectionState
	for i := 0; i < doc.Len(); i++ {
		if m := tierCountPattern.FindStringSubmatch(doc.Line(i)); m != nil {
			state.SetPriority("P" + m[1])
		}
		states[i] = state
	}
	return states
}

func buildProductionBug(doc Document, a Anchor, section SectionState) ProductionBug {
	r := defaultProductionBug(a.ID)

	w := NewWindow(a.Line, productionBugSpan, doc.Len())
	lines := doc.Slice(w)

	// Group headers below the anchor open the next section, so only the
	// lines up to the anchor may contribute one.
	if tier, ok := classifyTier(lines, a.Line-w.Start+1); ok {
		r.Tier, r.Severity = tierToken(tier), TierLabel(tier)
	} else if token := section.Priority(""); token != "" {
		r.Tier, r.Severity = token, TierLabel(bareTierTokens[token])
	}

	if c, ok := bugComponents.fold(lines); ok {
		r.Component = c
	}
	if s, ok := bugStatuses.fold(lines); ok {
		r.Status = s
	}
	if d, ok := classifyDate(lines); ok {
		r.ReportedDate = d
	}
	for _, line := range lines {
		if strings.Contains(line, "SDBFalcon") {
			r.Customer = line
		}
	}
	after := doc.Slice(Window{Start: a.Line + 3, End: w.End})
	if name, ok := firstPersonName(after, func(line string) bool {
		return !containsAnyFold(line, bugAssigneeKeyword)
	}); ok {
		r.Assignee = name
	}

	if a.Line+1 < doc.Len() {
		if title := doc.Line(a.Line + 1); title != "-" {
			if t, ok := classifySubject(title, 10, func(string) bool { return false }); ok {
				if strings.Contains(t, "[EA][PROD]") {
					r.Title = truncateWithEllipsis(t, 80)
				} else {
					r.Title = truncateWithEllipsis(t, 100)
				}
			}
		}
	}

	r.Description = "Assigned: " + r.Assignee + ", Customer: " + r.Customer
	return r
}
