package extract

import "strings"

// lineMatcher reports whether a line carries a narrative field and the
// value to keep for it.
type lineMatcher func(line string) (string, bool)

// closestLine returns the value of the matching line nearest to the anchor.
// On equal distance the earlier line is kept.
func closestLine(doc Document, w Window, anchor int, match lineMatcher) string {
	best, bestDist := "", -1
	for i := w.Start; i < w.End; i++ {
		value, ok := match(doc.Line(i))
		if !ok {
			continue
		}
		dist := i - anchor
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = value, dist
		}
	}
	return best
}

func customerExperience(line string) (string, bool) {
	if !strings.Contains(line, "User Experience:") && !strings.Contains(line, "Customer Experience:") {
		return "", false
	}
	_, text, _ := strings.Cut(line, ":")
	text = strings.TrimSpace(text)
	if strings.HasSuffix(text, ellipsis) {
		text = strings.TrimSpace(strings.TrimSuffix(text, ellipsis))
	}
	if before, _, ok := strings.Cut(text, "|"); ok {
		text = strings.TrimSpace(before)
	}
	return text, true
}

var proximateCauseLeads = []string{
	"The proximate cause of the incident was",
	"Proximate Cause:",
	"The primary cause of the incident was",
	"The incident was primarily caused by",
	"The main contributing factor of the incident was",
	"The exact root cause of the incident",
	"Caused after Change case was deployed",
	"Performance regression from index deprecation",
}

func proximateCause(line string) (string, bool) {
	lower := strings.ToLower(line)
	switch {
	case hasAnyPrefix(line, proximateCauseLeads):
	case strings.Contains(lower, "proximate cause") && strings.Contains(lower, "incident was"):
	case strings.Contains(lower, "primary cause") && len([]rune(line)) > 50:
	default:
		return "", false
	}
	if strings.HasPrefix(line, "Proximate Cause:") {
		return strings.TrimSpace(strings.ReplaceAll(line, "Proximate Cause:", "")), true
	}
	return line, true
}

var (
	narrativeSkipMarkers = []string{
		"[THIS PRB IS MANAGED BY QUIP2GUS]", "User Experience:", "Impact Quantification:",
		"Q:", "A:", "https://", "Proximate Cause:", "Key Questions", "Created Date Time",
		"Select all rows", "Sorted by", "Select row for Drill Down", "Any updates made in GUS",
	}
	incidentLeads = []string{
		"Sherlock detected", "PRB Retrospective | SEV-",
		"On January", "On February", "On March", "On April", "On May", "On June",
		"On July", "On August", "On September", "On October", "On November", "On December",
	}
	incidentPhrases = []string{
		"SDB Archival is not running",
		"archival is not running",
		"cell experienced significant performance degradation",
		"incident was detected involving high Average Page Time",
	}
	incidentIndicators = []string{
		"sherlock detected", "apt incident", "anomalies detected", "not running for sdb",
		"backup", "capacity constraints", "clusters in hyperforce", "performance degradation due",
	}
)

func whatHappened(line string) (string, bool) {
	if len([]rune(line)) <= 30 || containsAny(line, narrativeSkipMarkers) {
		return "", false
	}
	if hasAnyPrefix(line, incidentLeads) || containsAny(line, incidentPhrases) || containsAnyFold(line, incidentIndicators) {
		return line, true
	}
	return "", false
}

var (
	resolutionKeywords = []string{
		"rolled back", "rollback", "restarted", "pods were restarted", "self-resolved",
		"no immediate resolution", "continuous monitoring", "resolved", "immediate actions included",
		"the immediate resolution involved", "autoscaling mechanism", "flushing the memstore",
		"suspending sandbox copies",
	}
	resolutionLeads = []string{
		"No immediate resolution was applied",
		"Immediate actions included",
		"The immediate resolution involved",
		"Immediate communication with the customer",
		"The fix involved reverting",
		"Recreated the following objects",
		"The incident self-resolved",
	}
)

func howResolved(line string) (string, bool) {
	if len([]rune(line)) <= 20 {
		return "", false
	}
	if containsAnyFold(line, resolutionKeywords) || hasAnyPrefix(line, resolutionLeads) {
		return line, true
	}
	return "", false
}

var resolutionMarkers = []string{"how was it resolved", "rollback", "failover", "resolution involved", "self resolved"}

// resolutionDetail looks for "How was it resolved?" style markers in w and
// returns the detail line under the last one that has any: the first of the
// four following lines that is not a question, a bracketed tag or a short
// fragment.
func resolutionDetail(doc Document, w Window) (string, bool) {
	detail, found := "", false
	for i := w.Start; i < w.End; i++ {
		if !containsAnyFold(doc.Line(i), resolutionMarkers) {
			continue
		}
		end := i + 5
		if end > doc.Len() {
			end = doc.Len()
		}
		for k := i + 1; k < end; k++ {
			line := doc.Line(k)
			if line == "" || strings.HasPrefix(line, "[") || strings.HasPrefix(line, "Q:") || len([]rune(line)) <= 10 {
				continue
			}
			detail, found = line, true
			break
		}
	}
	return detail, found
}

var nextStepPrefixes = []string{"1)", "2)", "3)"}

// nextSteps joins the numbered follow-up lines that reference a work item.
func nextSteps(lines []string) string {
	var steps []string
	for _, line := range lines {
		if hasAnyPrefix(line, nextStepPrefixes) && strings.Contains(line, "W-") {
			steps = append(steps, line)
		}
	}
	return strings.Join(steps, " ")
}
