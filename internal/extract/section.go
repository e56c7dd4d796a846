package extract

import "strings"

// SectionState carries the running team and priority declared by header
// lines. Each parse call creates its own; it is never shared.
type SectionState struct {
	team        string
	teamSet     bool
	priority    string
	prioritySet bool
}

func (s *SectionState) SetTeam(team string) {
	s.team, s.teamSet = team, true
}

func (s *SectionState) SetPriority(priority string) {
	s.priority, s.prioritySet = priority, true
}

// Team returns the current team, or def when no team header was seen.
func (s *SectionState) Team(def string) string {
	if !s.teamSet {
		return def
	}
	return s.team
}

// Priority returns the current priority, or def when no priority header was seen.
func (s *SectionState) Priority(def string) string {
	if !s.prioritySet {
		return def
	}
	return s.priority
}

// headerName splits "Name(count)" into its name part.
func headerName(line string) string {
	name, _, _ := strings.Cut(line, "(")
	return strings.TrimSpace(name)
}

// priorityHeader reports the tier token of a "P<n>(...)" header line. The
// token before "(" must be a valid tier.
func priorityHeader(line string) (string, bool) {
	if !strings.HasPrefix(line, "P") || !strings.Contains(line, "(") {
		return "", false
	}
	token, _, _ := strings.Cut(line, "(")
	if _, ok := bareTierTokens[token]; !ok {
		return "", false
	}
	return token, true
}

var reservedHeaderNames = map[string]bool{"Subtotal": true, "Total": true}

// teamHeader reports the team declared by a "Team Name(count)" line.
func teamHeader(line string) (string, bool) {
	if !strings.Contains(line, "(") || !strings.HasSuffix(line, ")") || strings.HasPrefix(line, "W-") {
		return "", false
	}
	name := headerName(line)
	if len([]rune(name)) <= 5 || reservedHeaderNames[name] {
		return "", false
	}
	return name, true
}
