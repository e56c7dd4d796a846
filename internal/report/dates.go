package report

import "time"

// Week is the reporting period: the Monday to Sunday before the week that
// contains the reference date.
type Week struct {
	ReportDate time.Time `json:"report_date"`
	Start      time.Time `json:"period_start"`
	End        time.Time `json:"period_end"`
}

// WeekFor returns the period reported on ref.
func WeekFor(ref time.Time) Week {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	sinceMonday := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -sinceMonday)
	start := monday.AddDate(0, 0, -7)
	return Week{ReportDate: ref, Start: start, End: start.AddDate(0, 0, 6)}
}

func (w Week) ReportDisplay() string { return w.ReportDate.Format("January 02, 2006") }
func (w Week) StartDisplay() string  { return w.Start.Format("January 02") }
func (w Week) EndDisplay() string    { return w.End.Format("January 02, 2006") }

// PeriodDisplay renders the period compactly, e.g. "September 08-14, 2025".
func (w Week) PeriodDisplay() string {
	return w.Start.Format("January 02") + "-" + w.End.Format("02, 2006")
}

func (w Week) StartISO() string { return w.Start.Format("2006-01-02") }
func (w Week) EndISO() string   { return w.End.Format("2006-01-02") }
