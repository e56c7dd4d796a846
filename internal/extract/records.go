package extract

// Kind names one extraction target.
type Kind string

const (
	KindProblemReport   Kind = "problem_report"
	KindProductionBug   Kind = "production_bug"
	KindWorkItem        Kind = "work_item"
	KindSecurityFinding Kind = "security_finding"
	KindScanFinding     Kind = "scan_finding"
	KindBacklogItem     Kind = "backlog_item"
)

// Record is implemented by every typed extraction result.
type Record interface {
	RecordID() string
	RecordKind() Kind
}

// Source identifies which export a work item came from.
type Source string

const (
	SourceCI        Source = "CI"
	SourceLeftShift Source = "LeftShift"
	SourceABS       Source = "ABS"
	SourceSecurity  Source = "Security"
)

const unknownIssue = "Unknown Issue"

// ProblemReport is an incident (PRB) row.
type ProblemReport struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Priority           string `json:"priority"`
	Status             string `json:"status"`
	State              string `json:"problem_state"`
	Team               string `json:"team"`
	CustomerImpact     string `json:"customer_impact"`
	CreatedDate        string `json:"created_date"`
	Description        string `json:"description"`
	WhatHappened       string `json:"what_happened"`
	CustomerExperience string `json:"customer_experience"`
	ProximateCause     string `json:"proximate_cause"`
	HowResolved        string `json:"how_resolved"`
	NextSteps          string `json:"next_steps"`
}

func (r ProblemReport) RecordID() string { return r.ID }
func (ProblemReport) RecordKind() Kind  { return KindProblemReport }

func defaultProblemReport(id string) ProblemReport {
	return ProblemReport{
		ID:             id,
		Title:          "Incident " + id,
		Priority:       "Medium",
		Status:         "Open",
		State:          "Unknown",
		Team:           "Unknown",
		CustomerImpact: "Unknown",
	}
}

// ProductionBug is an active production bug row.
type ProductionBug struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Tier         string `json:"priority"`
	Severity     string `json:"severity"`
	Status       string `json:"status"`
	Component    string `json:"component"`
	ReportedDate string `json:"reported_date"`
	Assignee     string `json:"assigned_to"`
	Customer     string `json:"customer"`
	Description  string `json:"description"`
}

func (r ProductionBug) RecordID() string { return r.ID }
func (ProductionBug) RecordKind() Kind  { return KindProductionBug }

func defaultProductionBug(id string) ProductionBug {
	return ProductionBug{
		ID:        id,
		Title:     unknownIssue,
		Tier:      "P2",
		Severity:  TierLabel(2),
		Status:    "Open",
		Component: "Unknown",
		Assignee:  "Unknown",
		Customer:  "Unknown",
	}
}

// WorkItem is a CI, LeftShift or ABS work item found by proximity search.
type WorkItem struct {
	ID           string `json:"work_id"`
	Source       Source `json:"issue_type"`
	Team         string `json:"team"`
	Priority     string `json:"priority"`
	Subject      string `json:"subject"`
	Status       string `json:"status"`
	BuildVersion string `json:"build_version"`
	CreatedDate  string `json:"created_date"`
}

func (r WorkItem) RecordID() string { return r.ID }
func (WorkItem) RecordKind() Kind  { return KindWorkItem }

func defaultWorkItem(id string, source Source) WorkItem {
	return WorkItem{
		ID:           id,
		Source:       source,
		Team:         "Unknown",
		Priority:     "P2",
		Subject:      unknownIssue,
		Status:       "New",
		BuildVersion: "Unknown",
	}
}

// SecurityFinding is a static-analysis finding tied to a work item.
type SecurityFinding struct {
	ID           string `json:"work_id"`
	Category     string `json:"issue_category"`
	FilePath     string `json:"file_path"`
	AssignedTo   string `json:"assigned_to"`
	Status       string `json:"status"`
	BuildVersion string `json:"build_version"`
	Team         string `json:"team"`
}

func (r SecurityFinding) RecordID() string { return r.ID }
func (SecurityFinding) RecordKind() Kind  { return KindSecurityFinding }

func defaultSecurityFinding(id string) SecurityFinding {
	return SecurityFinding{
		ID:           id,
		Category:     "UNKNOWN",
		AssignedTo:   "Unassigned",
		Status:       "New",
		BuildVersion: "Unknown",
		Team:         "Security",
	}
}

// ScanFinding is a security bug from a grouped scan export where the four
// lines after the work ID carry build, assignee, status and description.
type ScanFinding struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Tier         string `json:"tier"`
	Severity     string `json:"severity"`
	Status       string `json:"status"`
	Component    string `json:"component"`
	Assignee     string `json:"assignee"`
	BuildVersion string `json:"build_version"`
	Description  string `json:"description"`
	Category     string `json:"issue_category"`
}

func (r ScanFinding) RecordID() string { return r.ID }
func (ScanFinding) RecordKind() Kind  { return KindScanFinding }

// BacklogItem is a work item from a grouped backlog export, stamped with the
// team and priority headers above it.
type BacklogItem struct {
	ID       string `json:"work_id"`
	Source   Source `json:"source"`
	Team     string `json:"team"`
	Priority string `json:"priority"`
	Subject  string `json:"subject"`
	Status   string `json:"status,omitempty"`
}

func (r BacklogItem) RecordID() string { return r.ID }
func (BacklogItem) RecordKind() Kind  { return KindBacklogItem }

// NewProblemReport returns a report carrying the default field values.
func NewProblemReport(id string) ProblemReport { return defaultProblemReport(id) }

// NewProductionBug returns a bug carrying the default field values.
func NewProductionBug(id string) ProductionBug { return defaultProductionBug(id) }
