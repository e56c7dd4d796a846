package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ParseSchedule parses a standard five-field cron expression.
func ParseSchedule(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("report_schedule is empty")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid report_schedule %q: %w", spec, err)
	}
	return sched, nil
}

// RunSchedule calls job at every activation of spec in loc until ctx is
// done. A failed job is logged and the loop continues.
func RunSchedule(ctx context.Context, spec string, loc *time.Location, job func(context.Context) error) error {
	sched, err := ParseSchedule(spec)
	if err != nil {
		return err
	}
	if loc == nil {
		loc = time.Local
	}
	log.Printf("Report scheduled (cron: %s, timezone: %s)", spec, loc)

	for {
		now := time.Now().In(loc)
		next := sched.Next(now)
		wait := next.Sub(now)
		log.Printf("Next report at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("Report scheduler stopped")
			return nil
		case <-timer.C:
		}

		if err := job(ctx); err != nil {
			log.Printf("Scheduled report error: %v", err)
		}
	}
}

// ScheduledJob runs the pipeline for the current date.
func (p *Pipeline) ScheduledJob(ctx context.Context) error {
	res, err := p.Run(ctx, Options{})
	if err != nil {
		return err
	}
	log.Printf("Scheduled report complete run=%s markdown=%s", res.Snapshot.RunID, res.Files.Markdown)
	return nil
}
