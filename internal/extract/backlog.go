package extract

import "strings"

// BacklogLayout describes one grouped backlog export.
type BacklogLayout struct {
	Source          Source
	TeamKeywords    []string
	SkipWords       []string
	Strict          bool // reject team headers containing "issues)", "/" or "-"
	DefaultPriority string
	Subject         string
	Status          string
}

var (
	dashboardSkipWords = []string{"sorted by", "select row", "drill down", "work:", "subtotal", "total("}

	CIBacklog = BacklogLayout{
		Source:          SourceCI,
		TeamKeywords:    []string{"Sayonara", "SDB"},
		SkipWords:       dashboardSkipWords,
		Strict:          true,
		DefaultPriority: "P2",
		Subject:         "CI Issue",
	}
	SecurityBacklog = BacklogLayout{
		Source:          SourceSecurity,
		TeamKeywords:    []string{"Sayonara", "SDB"},
		SkipWords:       dashboardSkipWords,
		Strict:          true,
		DefaultPriority: "P4",
		Subject:         "Security Issue",
		Status:          "New",
	}
	LeftShiftBacklog = BacklogLayout{
		Source:          SourceLeftShift,
		TeamKeywords:    []string{"SDB", "Sayonara", "Production"},
		SkipWords:       []string{"sorted by", "select row", "work:", "subtotal", "total("},
		DefaultPriority: "P2",
		Subject:         "Left Shift Issue",
		Status:          "New",
	}
)

const unknownBacklogTeam = "Unknown Team"

// ParseBacklog stamps every work ID in a grouped export with the team and
// priority headers in force at that line.
func ParseBacklog(text string, layout BacklogLayout) []BacklogItem {
	doc := NewDocument(text)
	var state SectionState
	var out []BacklogItem

	for i := 0; i < doc.Len(); i++ {
		line := doc.Line(i)
		if line == "" || containsAnyFold(line, layout.SkipWords) {
			continue
		}
		if team, ok := layout.teamHeader(line); ok {
			state.SetTeam(team)
			continue
		}
		if strings.HasPrefix(line, "P") && strings.Contains(line, "(") && strings.HasSuffix(line, ")") {
			if tier, ok := priorityHeader(line); ok {
				state.SetPriority(tier)
			}
			continue
		}
		if id := listedWorkIDPattern.FindString(line); id != "" {
			out = append(out, BacklogItem{
				ID:       id,
				Source:   layout.Source,
				Team:     state.Team(unknownBacklogTeam),
				Priority: state.Priority(layout.DefaultPriority),
				Subject:  layout.Subject,
				Status:   layout.Status,
			})
		}
	}
	return dedupe(out)
}

func (l BacklogLayout) teamHeader(line string) (string, bool) {
	if !strings.Contains(line, "(") || !strings.HasSuffix(line, ")") ||
		strings.HasPrefix(line, "P") || strings.HasPrefix(line, "W-") {
		return "", false
	}
	if l.Strict && (strings.Contains(line, "issues)") || strings.ContainsAny(line, "/-")) {
		return "", false
	}
	if !containsAny(line, l.TeamKeywords) {
		return "", false
	}
	return headerName(line), true
}
