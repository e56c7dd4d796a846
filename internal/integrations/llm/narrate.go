package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/errgroup"

	"qualityreport/internal/config"
	"qualityreport/internal/extract"
	"qualityreport/internal/report"
)

// FallbackText stands in for any section whose generation failed.
const FallbackText = "Content not available - LLM generation failed"

const (
	systemPrompt      = "You are a senior quality engineer providing technical analysis."
	narrationWorkers  = 4
	noDeploymentValue = "No deployment data"
)

type Narrator struct {
	completer completer
	provider  string
	model     string
}

// NewNarrator builds a narrator for the configured provider. Callers check
// cfg.NarrationEnabled first.
func NewNarrator(cfg config.Config, httpClient *http.Client) *Narrator {
	n := &Narrator{provider: cfg.LLMProvider, model: cfg.LLMModel}
	switch cfg.LLMProvider {
	case "gateway":
		n.completer = &gatewayCompleter{
			url:         cfg.GatewayURL,
			apiKey:      cfg.GatewayAPIKey,
			model:       cfg.LLMModel,
			maxTokens:   cfg.LLMMaxTokens,
			temperature: cfg.LLMTemperature,
			client:      httpClient,
		}
	default:
		n.completer = newAnthropicCompleter(cfg.AnthropicAPIKey, cfg.LLMModel, cfg.LLMMaxTokens, cfg.LLMTemperature,
			option.WithHTTPClient(httpClient))
	}
	return n
}

// Narrate writes every narrative section for the snapshot. A failed call
// yields FallbackText for that section only.
func (n *Narrator) Narrate(ctx context.Context, snap *report.Snapshot) (*report.Narratives, Usage, error) {
	out := &report.Narratives{
		PRBNarratives: make(map[string]string, len(snap.ProblemReports)),
		PRBAnalyses:   make(map[string]string, len(snap.ProblemReports)),
	}
	var (
		mu    sync.Mutex
		total Usage
	)
	run := func(name string, prompt string, store func(string)) func() error {
		return func() error {
			text := n.generate(ctx, name, prompt, &mu, &total)
			mu.Lock()
			store(text)
			mu.Unlock()
			return ctx.Err()
		}
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(narrationWorkers)
	log.Printf("llm narrate provider=%s model=%s prbs=%d", n.provider, n.model, len(snap.ProblemReports))
	for _, prb := range snap.ProblemReports {
		id := prb.ID
		g.Go(run("prb_narrative "+id, prbNarrativePrompt(prb), func(s string) { out.PRBNarratives[id] = s }))
		g.Go(run("prb_analysis "+id, prbAnalysisPrompt(prb), func(s string) { out.PRBAnalyses[id] = s }))
	}
	if lower := lowerPriority(snap.ProblemReports); len(lower) > 0 {
		g.Go(run("lower_priority", lowerPriorityPrompt(lower), func(s string) { out.LowerPrioritySummary = s }))
	}
	g.Go(run("trend_analysis", trendPrompt(snap), func(s string) { out.TrendAnalysis = s }))
	g.Go(run("risk_analysis", riskPrompt(snap.DeploymentSummary), func(s string) { out.RiskAnalysis = s }))

	if err := g.Wait(); err != nil {
		return nil, total, fmt.Errorf("narration interrupted: %w", err)
	}
	log.Printf("llm narrate done tokens_in=%d tokens_out=%d", total.InputTokens, total.OutputTokens)
	return out, total, nil
}

func (n *Narrator) generate(ctx context.Context, name, prompt string, mu *sync.Mutex, total *Usage) string {
	text, usage, err := n.completer.complete(ctx, systemPrompt, prompt)
	mu.Lock()
	total.Add(usage)
	mu.Unlock()
	if err != nil {
		log.Printf("llm section=%s error: %v", name, err)
		return FallbackText
	}
	return strings.TrimSpace(text)
}

func lowerPriority(prbs []extract.ProblemReport) []extract.ProblemReport {
	var out []extract.ProblemReport
	for _, p := range prbs {
		if strings.Contains(p.Priority, "P2") || strings.Contains(p.Priority, "P3") {
			out = append(out, p)
		}
	}
	return out
}

func prbNarrativePrompt(p extract.ProblemReport) string {
	return fmt.Sprintf(`You are a technical incident analyst for a database platform team. Analyze this Problem Report (PRB) and provide a clear, concise summary in exactly this format:

**Problem Type:** [One sentence describing the specific technical issue type]
**Root Cause:** [One sentence explaining the detailed underlying technical cause]
**Resolution:** [One sentence describing how the issue was specifically fixed or mitigated]
**Next Steps:** [One sentence describing concrete follow-up actions or improvements]

PRB Data:
ID: %s
Title: %s
Priority: %s
Team: %s
What Happened: %s
Customer Experience: %s
Proximate Cause: %s
How Resolved: %s
Next Steps: %s
`, p.ID, p.Title, p.Priority, p.Team, p.WhatHappened, p.CustomerExperience, p.ProximateCause, p.HowResolved, p.NextSteps)
}

func prbAnalysisPrompt(p extract.ProblemReport) string {
	data, _ := json.MarshalIndent(p, "", "  ")
	return fmt.Sprintf(`Generate a comprehensive technical analysis for this PRB:

**Technical Impact:** [Detailed impact assessment]
**Root Cause Analysis:** [In-depth technical root cause]
**Resolution Applied:** [Detailed resolution methodology]
**Preventive Measures:** [Specific prevention strategies]

PRB Data: %s
`, data)
}

type lowerPriorityItem struct {
	ID           string `json:"id"`
	Priority     string `json:"priority"`
	Team         string `json:"team"`
	WhatHappened string `json:"what_happened"`
}

func lowerPriorityPrompt(prbs []extract.ProblemReport) string {
	items := make([]lowerPriorityItem, len(prbs))
	for i, p := range prbs {
		items[i] = lowerPriorityItem{ID: p.ID, Priority: p.Priority, Team: p.Team, WhatHappened: p.WhatHappened}
	}
	data, _ := json.MarshalIndent(items, "", "  ")
	return fmt.Sprintf(`Generate a concise summary of these Sev 2+ PRBs:

PRB Data: %s

Format as: **Current Sev 2+ Issues:** followed by a brief summary of each issue.
`, data)
}

func trendPrompt(s *report.Snapshot) string {
	return fmt.Sprintf(`Analyze these quality metrics and provide trend insights:

Data Summary:
- PRBs: %d
- Bugs: %d
- Risks: %d
- Security Issues: %d

Provide a brief quality trends analysis focusing on overall system health.
`, len(s.ProblemReports), len(s.ProductionBugs), len(s.Risks), len(s.ScanFindings))
}

func riskPrompt(deploymentSummary string) string {
	if deploymentSummary == "" {
		deploymentSummary = noDeploymentValue
	}
	return fmt.Sprintf(`Analyze code changes and deployment risks based on this data:

Deployment Summary: %s

Provide a risk assessment focusing on deployment stability and code change impact.

Format the response using standard markdown headers. Start with ### for the main title
(not # which is too large), then use #### for main sections and ##### for subsections.
`, deploymentSummary)
}
