package app

import (
	"context"
	"log"

	"qualityreport/internal/report"
	"qualityreport/internal/salesforce"
)

// reportSource fetches tabular Salesforce report rows.
type reportSource interface {
	ReportRows(ctx context.Context, reportURL string) ([]salesforce.Row, error)
}

// applyStructured replaces text-parsed PRBs and bugs with records from the
// Salesforce reports when those reports return usable rows.
func (p *Pipeline) applyStructured(ctx context.Context, snap *report.Snapshot) {
	if p.salesforce == nil {
		return
	}
	if url := p.cfg.SalesforcePRBReportURL; url != "" {
		if rows := p.fetchRows(ctx, "prb", url); len(rows) > 0 {
			if prbs := salesforce.ProblemReports(rows); len(prbs) > 0 {
				log.Printf("structured source=salesforce export=prb records=%d", len(prbs))
				snap.ProblemReports = prbs
			}
		}
	}
	if url := p.cfg.SalesforceBugReportURL; url != "" {
		if rows := p.fetchRows(ctx, "bugs", url); len(rows) > 0 {
			if bugs := salesforce.ProductionBugs(rows); len(bugs) > 0 {
				log.Printf("structured source=salesforce export=bugs records=%d", len(bugs))
				snap.ProductionBugs = bugs
			}
		}
	}
}

func (p *Pipeline) fetchRows(ctx context.Context, export, url string) []salesforce.Row {
	rows, err := p.salesforce.ReportRows(ctx, url)
	if err != nil {
		log.Printf("WARNING: salesforce export=%s failed, using text export: %v", export, err)
		return nil
	}
	return rows
}
