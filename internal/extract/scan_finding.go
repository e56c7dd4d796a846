package extract

import "strings"

// scanFieldLines is the number of positional lines following each work ID.
const scanFieldLines = 4

var scanCategoryLabels = []struct{ token, label string }{
	{"RESOURCE_LEAK", "Resource Leak"},
	{"ARRAY_VS_SINGLETON", "Array vs Singleton"},
	{"OVERRUN", "Buffer Overrun"},
	{"USE_AFTER_FREE", "Use After Free"},
	{"UNINIT", "Uninitialized Variable"},
	{"NO_EFFECT", "No Effect"},
}

// ParseScanFindings extracts security bugs from a grouped scan export. Team
// and priority come from "Name(count)" and "P<n>(count)" headers; the four
// lines after each work ID hold build, assignee, status and description.
func ParseScanFindings(text string) []ScanFinding {
	doc := NewDocument(text)
	var state SectionState
	var out []ScanFinding

	for i := 0; i < doc.Len(); i++ {
		line := doc.Line(i)
		if strings.HasPrefix(line, "P") && strings.Contains(line, "(") {
			if tier, ok := priorityHeader(line); ok {
				state.SetPriority(tier)
			}
			continue
		}
		if team, ok := teamHeader(line); ok {
			state.SetTeam(team)
			continue
		}
		id := listedWorkIDPattern.FindString(line)
		if id == "" {
			continue
		}
		out = append(out, buildScanFinding(doc, i, id, &state))
		i += scanFieldLines
	}
	return dedupe(out)
}

func buildScanFinding(doc Document, line int, id string, state *SectionState) ScanFinding {
	field := func(offset int, def string) string {
		if v := doc.Line(line + offset); v != "" {
			return v
		}
		return def
	}
	tier := state.Priority("P4")
	description := field(4, "Security Issue")
	return ScanFinding{
		ID:           id,
		Title:        description,
		Tier:         tier,
		Severity:     scanSeverity(tier),
		Status:       field(3, "Unknown"),
		Component:    state.Team("Unknown"),
		Assignee:     field(2, "Unknown"),
		BuildVersion: field(1, "Unknown"),
		Description:  description,
		Category:     ScanCategory(description),
	}
}

// scanSeverity uses a coarser scale than TierLabel: P0 and P1 are both
// critical and everything below P2 is low.
func scanSeverity(tier string) string {
	switch tier {
	case "P0", "P1":
		return tier + "-Critical"
	case "P2":
		return tier + "-Medium"
	default:
		return tier + "-Low"
	}
}

// ScanCategory maps a scanner description to a readable defect category.
func ScanCategory(description string) string {
	for _, c := range scanCategoryLabels {
		if strings.Contains(description, c.token) {
			return c.label
		}
	}
	return "Other"
}
