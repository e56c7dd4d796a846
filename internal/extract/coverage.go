package extract

import (
	"strconv"
	"strings"
)

// CoverageSide holds the metrics of one coverage section.
type CoverageSide struct {
	Coverage            float64 `json:"coverage"`
	LineCoverage        float64 `json:"line_coverage"`
	ConditionCoverage   float64 `json:"condition_coverage"`
	LinesToCover        int     `json:"lines_to_cover"`
	UncoveredLines      int     `json:"uncovered_lines"`
	ConditionsToCover   int     `json:"conditions_to_cover"`
	UncoveredConditions int     `json:"uncovered_conditions"`
}

// CoverageSummary compares coverage on new code against the whole codebase.
type CoverageSummary struct {
	Component string       `json:"component"`
	NewCode   CoverageSide `json:"new_code"`
	Overall   CoverageSide `json:"overall"`
}

const coverageComponent = "SDB Engine"

var (
	percentLabels = map[string]func(*CoverageSide, float64){
		"Coverage":           func(s *CoverageSide, v float64) { s.Coverage = v },
		"Line Coverage":      func(s *CoverageSide, v float64) { s.LineCoverage = v },
		"Condition Coverage": func(s *CoverageSide, v float64) { s.ConditionCoverage = v },
	}
	countLabels = map[string]func(*CoverageSide, int){
		"Lines to Cover":       func(s *CoverageSide, v int) { s.LinesToCover = v },
		"Uncovered Lines":      func(s *CoverageSide, v int) { s.UncoveredLines = v },
		"Conditions to Cover":  func(s *CoverageSide, v int) { s.ConditionsToCover = v },
		"Uncovered Conditions": func(s *CoverageSide, v int) { s.UncoveredConditions = v },
	}
)

// ParseCoverage reads a quality-gate export made of "On new code" and
// "Overall" sections, each a run of label lines followed by value lines.
// It reports false unless both sections yielded at least one value.
func ParseCoverage(text string) (CoverageSummary, bool) {
	doc := NewDocument(text)
	summary := CoverageSummary{Component: coverageComponent}
	var section *CoverageSide
	var newSeen, overallSeen bool
	seen := func() {
		if section == &summary.NewCode {
			newSeen = true
		} else {
			overallSeen = true
		}
	}

	for i := 0; i < doc.Len(); i++ {
		line := doc.Line(i)
		switch line {
		case "On new code":
			section = &summary.NewCode
			continue
		case "Overall":
			section = &summary.Overall
			continue
		}
		if section == nil || line == "" || i+1 >= doc.Len() {
			continue
		}
		value := doc.Line(i + 1)
		if set, ok := percentLabels[line]; ok && strings.HasSuffix(value, "%") {
			if v, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64); err == nil {
				set(section, v)
				seen()
			}
			continue
		}
		if set, ok := countLabels[line]; ok {
			if v, err := strconv.Atoi(strings.ReplaceAll(value, ",", "")); err == nil {
				set(section, v)
				seen()
			}
		}
	}
	return summary, newSeen && overallSeen
}
