// Package app runs the weekly quality report: it collects every export,
// narrates and renders the report, archives the run and delivers it.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"qualityreport/internal/churn"
	"qualityreport/internal/config"
	"qualityreport/internal/deploy"
	"qualityreport/internal/extract"
	"qualityreport/internal/httpx"
	"qualityreport/internal/inputs"
	llm "qualityreport/internal/integrations/llm"
	slackbot "qualityreport/internal/integrations/slack"
	"qualityreport/internal/report"
	"qualityreport/internal/salesforce"
	"qualityreport/internal/storage/sqlite"
)

type narrator interface {
	Narrate(ctx context.Context, snap *report.Snapshot) (*report.Narratives, llm.Usage, error)
}

type notifier interface {
	PostSummary(ctx context.Context, snap *report.Snapshot, wow *report.WeekOverWeek, files report.Files) error
}

type Pipeline struct {
	cfg        config.Config
	registry   *extract.Registry
	store      *sqlite.Store
	narrator   narrator
	notifier   notifier
	salesforce reportSource
	churn      func(ctx context.Context, repo, start, end string) churn.Stats
	now        func() time.Time
}

// NewPipeline wires the collaborators the configuration enables. store may
// be nil, in which case runs are neither archived nor compared.
func NewPipeline(cfg config.Config, store *sqlite.Store) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		registry: extract.DefaultRegistry(),
		store:    store,
		churn:    churn.Analyze,
		now:      time.Now,
	}
	if cfg.NarrationEnabled() {
		p.narrator = llm.NewNarrator(cfg, httpx.Client())
	}
	if cfg.SlackConfigured() {
		p.notifier = slackbot.NewNotifier(cfg.SlackBotToken, cfg.ReportChannelID)
	}
	if cfg.SalesforceConfigured() {
		p.salesforce = salesforce.NewClient(cfg.SalesforceInstanceURL, cfg.SalesforceSessionID, httpx.Client())
	}
	return p
}

type Options struct {
	// ReportDate selects the period: the week before the one containing it.
	ReportDate time.Time
	NoLLM      bool
	NoNotify   bool
}

type Result struct {
	Snapshot     *report.Snapshot
	WeekOverWeek *report.WeekOverWeek
	Files        report.Files
	Usage        llm.Usage
}

func (p *Pipeline) Run(ctx context.Context, opts Options) (Result, error) {
	ref := opts.ReportDate
	if ref.IsZero() {
		ref = p.now()
	}
	if p.cfg.Location != nil {
		ref = ref.In(p.cfg.Location)
	}

	snap, err := p.Collect(ctx, ref)
	if err != nil {
		return Result{}, err
	}
	res := Result{Snapshot: snap}

	if p.narrator != nil && !opts.NoLLM {
		narratives, usage, err := p.narrator.Narrate(ctx, snap)
		if err != nil {
			return Result{}, err
		}
		snap.Narratives = narratives
		res.Usage = usage
	} else {
		log.Printf("narration skipped enabled=%t no_llm=%t", p.narrator != nil, opts.NoLLM)
	}
	snap.Finalize(p.now())

	if p.store != nil {
		prev, err := p.store.PreviousRun(ctx, snap.Team, snap.Week.StartISO())
		if err != nil {
			return Result{}, fmt.Errorf("load previous run: %w", err)
		}
		if prev != nil {
			res.WeekOverWeek = report.CompareCounts(snap.Metadata.Sources, &prev.Metadata.Sources)
			log.Printf("week-over-week previous_run=%s period=%s", prev.RunID, prev.Week.StartISO())
		}
	}

	content := report.Render(snap, res.WeekOverWeek)
	res.Files, err = report.WriteFiles(content, p.cfg.ReportOutputDir, ref, snap.Team)
	if err != nil {
		return Result{}, fmt.Errorf("write report: %w", err)
	}
	log.Printf("report written run=%s markdown=%s email=%s", snap.RunID, res.Files.Markdown, res.Files.EmailDraft)

	if p.store != nil {
		if err := p.store.SaveRun(ctx, snap, res.Files); err != nil {
			return Result{}, fmt.Errorf("archive run: %w", err)
		}
	}

	if p.notifier != nil && !opts.NoNotify {
		if err := p.notifier.PostSummary(ctx, snap, res.WeekOverWeek, res.Files); err != nil {
			log.Printf("slack notify error: %v", err)
		}
	}
	return res, nil
}

// Collect gathers every input for the period reported on ref.
func (p *Pipeline) Collect(ctx context.Context, ref time.Time) (*report.Snapshot, error) {
	week := report.WeekFor(ref)
	snap := &report.Snapshot{
		RunID: uuid.NewString(),
		Team:  p.cfg.TeamName,
		Week:  week,
	}
	log.Printf("collect run=%s period=%s..%s", snap.RunID, week.StartISO(), week.EndISO())

	parsed, err := p.parseExports(ctx)
	if err != nil {
		return nil, err
	}
	assignRecords(snap, parsed)
	p.applyStructured(ctx, snap)

	notes, err := inputs.LoadPRBNotes(p.cfg.InputPath(p.cfg.PRBNotesPath))
	if err != nil {
		return nil, err
	}
	if len(notes) > 0 {
		snap.ProblemReports = inputs.AugmentProblemReports(snap.ProblemReports, notes)
	}

	if snap.Risks, err = inputs.LoadRisks(p.cfg.InputPath(p.cfg.RisksPath), week.ReportDisplay()); err != nil {
		return nil, err
	}

	coverageText, ok, err := inputs.ReadText(p.cfg.InputPath(p.cfg.CoveragePath))
	if err != nil {
		return nil, err
	}
	if ok {
		if summary, found := extract.ParseCoverage(coverageText); found {
			snap.Coverage = &summary
		}
	}

	if snap.Staggers, err = deploy.LoadStaggerCSV(p.cfg.InputPath(p.cfg.StaggerCSVPath)); err != nil {
		return nil, err
	}
	snap.Deployment = deploy.Summarize(snap.Staggers)
	snap.FleetSize = snap.Deployment.FleetSize
	if snap.FleetSize == 0 {
		snap.FleetSize = p.cfg.FleetSize
	}
	if snap.DeploymentSummary, err = inputs.LoadDeploymentSummary(p.cfg.InputPath(p.cfg.DeploymentSummaryPath)); err != nil {
		return nil, err
	}

	if p.cfg.GitRepoPath != "" {
		snap.Churn = p.churn(ctx, p.cfg.GitRepoPath, week.StartISO(), week.EndISO())
	} else {
		snap.Churn = churn.Empty(week.StartISO(), week.EndISO())
	}

	log.Printf("collect done prbs=%d bugs=%d ci=%d leftshift=%d abs=%d security=%d scan=%d risks=%d staggers=%d",
		len(snap.ProblemReports), len(snap.ProductionBugs), len(snap.CIIssues), len(snap.LeftShiftIssues),
		len(snap.ABSIssues), len(snap.SecurityIssues), len(snap.ScanFindings), len(snap.Risks), len(snap.Staggers))
	return snap, nil
}
