package salesforce

import (
	"regexp"
	"strings"

	"qualityreport/internal/extract"
)

// FieldValue returns the first of names present in row. Each name is tried
// as an exact key before a case-insensitive one.
func FieldValue(row Row, names ...string) string {
	for _, name := range names {
		if v, ok := row[name]; ok {
			return v
		}
		for key, v := range row {
			if strings.EqualFold(key, name) {
				return v
			}
		}
	}
	return ""
}

var (
	prbIDFields          = []string{"ID", "Case Number", "Number", "PRB ID"}
	prbTitleFields       = []string{"Title", "Subject", "Summary", "Description"}
	prbPriorityFields    = []string{"Priority", "Severity", "Urgency"}
	prbStatusFields      = []string{"Status", "State", "Case Status"}
	prbDescriptionFields = []string{"Description", "Details", "Comments"}
	prbCreatedFields     = []string{"Created Date", "Date Created", "Opened Date"}
	prbTeamFields        = []string{"Team", "Scrum Team", "Owning Team"}
	prbImpactFields      = []string{"Customer Impact", "Impact"}

	issueIDFields          = []string{"ID", "Issue ID", "Incident ID", "Number"}
	issueTitleFields       = []string{"Title", "Subject", "Issue Summary"}
	issueSeverityFields    = []string{"Severity", "Priority", "Critical Level"}
	issueStatusFields      = []string{"Status", "State", "Issue Status"}
	issueDescriptionFields = []string{"Description", "Details", "Root Cause"}
	issueImpactFields      = []string{"Impact", "Customer Impact", "Business Impact"}
	issueCreatedFields     = []string{"Created Date", "Reported Date", "Incident Date"}
	issueComponentFields   = []string{"Component", "Product Tag", "Team"}

	severityTier = regexp.MustCompile(`^P([0-4])`)
)

// ProblemReports maps report rows to PRB records. Rows without an ID or a
// title are dropped; later rows repeating an ID are ignored.
func ProblemReports(rows []Row) []extract.ProblemReport {
	seen := make(map[string]bool)
	var out []extract.ProblemReport
	for _, row := range rows {
		id, title := FieldValue(row, prbIDFields...), FieldValue(row, prbTitleFields...)
		if id == "" || title == "" || seen[id] {
			continue
		}
		seen[id] = true
		r := extract.NewProblemReport(id)
		r.Title = title
		setIf(&r.Priority, FieldValue(row, prbPriorityFields...))
		if status := FieldValue(row, prbStatusFields...); status != "" {
			r.Status, r.State = status, status
		}
		r.Description = FieldValue(row, prbDescriptionFields...)
		r.CreatedDate = FieldValue(row, prbCreatedFields...)
		setIf(&r.Team, FieldValue(row, prbTeamFields...))
		setIf(&r.CustomerImpact, FieldValue(row, prbImpactFields...))
		out = append(out, r)
	}
	return out
}

// ProductionBugs maps critical-issue rows to production bugs. A severity
// starting with a tier token ("P1", "P1-High") sets the tier.
func ProductionBugs(rows []Row) []extract.ProductionBug {
	seen := make(map[string]bool)
	var out []extract.ProductionBug
	for _, row := range rows {
		id, title := FieldValue(row, issueIDFields...), FieldValue(row, issueTitleFields...)
		if id == "" || title == "" || seen[id] {
			continue
		}
		seen[id] = true
		r := extract.NewProductionBug(id)
		r.Title = title
		if m := severityTier.FindStringSubmatch(FieldValue(row, issueSeverityFields...)); m != nil {
			tier := int(m[1][0] - '0')
			r.Tier, r.Severity = "P"+m[1], extract.TierLabel(tier)
		}
		setIf(&r.Status, FieldValue(row, issueStatusFields...))
		setIf(&r.Component, FieldValue(row, issueComponentFields...))
		setIf(&r.Customer, FieldValue(row, issueImpactFields...))
		r.ReportedDate = FieldValue(row, issueCreatedFields...)
		r.Description = FieldValue(row, issueDescriptionFields...)
		out = append(out, r)
	}
	return out
}

func setIf(field *string, v string) {
	if v != "" {
		*field = v
	}
}
