package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"qualityreport/internal/extract"
	"qualityreport/internal/inputs"
	"qualityreport/internal/report"
)

// parseExports reads and parses every configured export concurrently.
// Exports without a configured path or file are skipped.
func (p *Pipeline) parseExports(ctx context.Context) (map[string][]extract.Record, error) {
	var mu sync.Mutex
	results := make(map[string][]extract.Record)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.ParseWorkers)
	for _, name := range p.registry.Names() {
		path := p.cfg.ExportPath(name)
		if path == "" {
			continue
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			text, ok, err := inputs.ReadText(path)
			if err != nil {
				return fmt.Errorf("export %s: %w", name, err)
			}
			if !ok {
				return nil
			}
			records, err := p.registry.Parse(name, text)
			if err != nil {
				return err
			}
			log.Printf("extract export=%s path=%s records=%d", name, path, len(records))
			mu.Lock()
			results[name] = records
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func typed[T extract.Record](records []extract.Record) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if v, ok := r.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// assignRecords files parsed records into the snapshot by export name.
func assignRecords(snap *report.Snapshot, parsed map[string][]extract.Record) {
	for name, records := range parsed {
		switch name {
		case "prb":
			snap.ProblemReports = typed[extract.ProblemReport](records)
		case "bugs":
			snap.ProductionBugs = typed[extract.ProductionBug](records)
		case "ci":
			snap.CIIssues = typed[extract.WorkItem](records)
		case "leftshift":
			snap.LeftShiftIssues = typed[extract.WorkItem](records)
		case "abs":
			snap.ABSIssues = typed[extract.WorkItem](records)
		case "security":
			snap.SecurityIssues = typed[extract.SecurityFinding](records)
		case "scan":
			snap.ScanFindings = typed[extract.ScanFinding](records)
		default:
			items := typed[extract.BacklogItem](records)
			if len(items) == 0 {
				continue
			}
			if snap.Backlogs == nil {
				snap.Backlogs = make(map[string][]extract.BacklogItem)
			}
			snap.Backlogs[name] = items
		}
	}
}
