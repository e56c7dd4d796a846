package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	tierCountPattern  = regexp.MustCompile(`P([0-4])\(\d+\)`)
	rawTierPattern    = regexp.MustCompile(`P[1-4]`)
	buildPattern      = regexp.MustCompile(`sdb\.\d+(\.\d+)*`)
	datePattern       = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)
	sourcePathPattern = regexp.MustCompile(`/[^()]+\.(c|cpp|h|java|py)`)
	tierLabels        = [...]string{"Critical", "High", "Medium", "Low", "Minimal"}
	bareTierTokens    = map[string]int{"P0": 0, "P1": 1, "P2": 2, "P3": 3, "P4": 4}
)

const (
	exportDateLayout = "1/2/2006"
	isoDateLayout    = "2006-01-02"
	ellipsis         = "..."
	noValue          = ""
)

func tierToken(tier int) string {
	return "P" + strconv.Itoa(tier)
}

// TierLabel formats a priority tier as "P<n>-<label>", e.g. "P1-High".
func TierLabel(tier int) string {
	if tier < 0 || tier >= len(tierLabels) {
		return tierToken(tier)
	}
	return tierToken(tier) + "-" + tierLabels[tier]
}

// tierOf reads the tier on a single line: either a "P<n>(<count>)" group
// header anywhere on the line or a bare "P<n>" line. When both forms apply,
// the bare form is checked last and wins.
func tierOf(line string, allowHeader bool) (int, bool) {
	tier, found := 0, false
	if allowHeader {
		if m := tierCountPattern.FindStringSubmatch(line); m != nil {
			tier, found = int(m[1][0]-'0'), true
		}
	}
	if n, ok := bareTierTokens[line]; ok {
		tier, found = n, true
	}
	return tier, found
}

// classifyTier folds over lines in order; every match replaces the previous
// one. Group headers are only honoured on lines before headerLimit.
func classifyTier(lines []string, headerLimit int) (int, bool) {
	tier, found := 0, false
	for i, line := range lines {
		if n, ok := tierOf(line, i < headerLimit); ok {
			tier, found = n, true
		}
	}
	return tier, found
}

// classifyRawTier returns the last "P1".."P4" token found in lines.
func classifyRawTier(lines []string) (string, bool) {
	return foldPattern(lines, rawTierPattern)
}

func classifyBuild(lines []string) (string, bool) {
	return foldPattern(lines, buildPattern)
}

func foldPattern(lines []string, pattern *regexp.Regexp) (string, bool) {
	value, found := noValue, false
	for _, line := range lines {
		if m := pattern.FindString(line); m != "" {
			value, found = m, true
		}
	}
	return value, found
}

// parseExportDate converts the first M/D/YYYY date on line to YYYY-MM-DD.
// Calendar-invalid dates report false.
func parseExportDate(line string) (string, bool) {
	m := datePattern.FindString(line)
	if m == "" {
		return noValue, false
	}
	t, err := time.Parse(exportDateLayout, m)
	if err != nil {
		return noValue, false
	}
	return t.Format(isoDateLayout), true
}

// classifyDate returns the last valid date in lines.
func classifyDate(lines []string) (string, bool) {
	value, found := noValue, false
	for _, line := range lines {
		if d, ok := parseExportDate(line); ok {
			value, found = d, true
		}
	}
	return value, found
}

type matchMode int

const (
	matchSubstring matchMode = iota
	matchExact
)

type candidate struct {
	text  string
	mode  matchMode
	value string // reported value; text is used when empty
}

func (c candidate) matches(line string) bool {
	if c.mode == matchExact {
		return line == c.text
	}
	return strings.Contains(line, c.text)
}

func (c candidate) result() string {
	if c.value != "" {
		return c.value
	}
	return c.text
}

// candidateList is an ordered priority list of known values.
type candidateList []candidate

func substrings(texts ...string) candidateList {
	out := make(candidateList, len(texts))
	for i, t := range texts {
		out[i] = candidate{text: t}
	}
	return out
}

func exacts(texts ...string) candidateList {
	out := make(candidateList, len(texts))
	for i, t := range texts {
		out[i] = candidate{text: t, mode: matchExact}
	}
	return out
}

// match returns the first list entry found on line. List order decides,
// not position within the line.
func (l candidateList) match(line string) (string, bool) {
	for _, c := range l {
		if c.matches(line) {
			return c.result(), true
		}
	}
	return noValue, false
}

// fold applies match to every line in order; a later matching line replaces
// an earlier one.
func (l candidateList) fold(lines []string) (string, bool) {
	value, found := noValue, false
	for _, line := range lines {
		if v, ok := l.match(line); ok {
			value, found = v, true
		}
	}
	return value, found
}

// classifySubject takes the line right after the anchor when it is longer
// than minLen and not a skip token.
func classifySubject(line string, minLen int, skip func(string) bool) (string, bool) {
	if utf8.RuneCountInString(line) <= minLen || skip(line) {
		return noValue, false
	}
	return line, true
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

// truncateWithEllipsis cuts s to max runes and marks the cut.
func truncateWithEllipsis(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return truncateRunes(s, max) + ellipsis
}

// firstPersonName scans lines in order and returns the first one made of
// exactly two whitespace-separated tokens that accept allows.
func firstPersonName(lines []string, accept func(string) bool) (string, bool) {
	for _, line := range lines {
		if len(strings.Fields(line)) != 2 {
			continue
		}
		if accept(line) {
			return line, true
		}
	}
	return noValue, false
}

func containsAnyFold(line string, keywords []string) bool {
	lower := strings.ToLower(line)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func containsAny(line string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(line, n) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(line string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
