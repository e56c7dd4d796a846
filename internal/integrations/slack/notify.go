// Package slackbot posts the weekly report summary to a Slack channel.
package slackbot

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/slack-go/slack"

	"qualityreport/internal/report"
)

// poster is the part of *slack.Client the notifier needs.
type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

type Notifier struct {
	api     poster
	channel string
}

func NewNotifier(token, channel string, options ...slack.Option) *Notifier {
	return &Notifier{api: slack.New(token, options...), channel: channel}
}

// PostSummary posts the scorecards, week-over-week changes and the path of
// the written report.
func (n *Notifier) PostSummary(ctx context.Context, snap *report.Snapshot, wow *report.WeekOverWeek, files report.Files) error {
	blocks := SummaryBlocks(snap, wow, files)
	fallback := fmt.Sprintf("%s quality report for %s", snap.Team, snap.Week.PeriodDisplay())
	_, ts, err := n.api.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(fallback, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("post report summary: %w", err)
	}
	log.Printf("slack report summary posted channel=%s ts=%s", n.channel, ts)
	return nil
}

var statusEmoji = map[string]string{
	report.StatusGreen:    ":large_green_circle:",
	report.StatusYellow:   ":large_yellow_circle:",
	report.StatusElevated: ":large_yellow_circle:",
	report.StatusRed:      ":red_circle:",
	report.StatusHighRisk: ":red_circle:",
	report.StatusCritical: ":red_circle:",
}

func SummaryBlocks(snap *report.Snapshot, wow *report.WeekOverWeek, files report.Files) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType,
			fmt.Sprintf("%s Quality Report: %s", snap.Team, snap.Week.PeriodDisplay()), false, false)),
	}

	var lines []string
	for _, c := range report.Scorecards(snap) {
		lines = append(lines, fmt.Sprintf("%s *%s*: %d (%s)", statusEmoji[c.Status], c.Name, c.Value, c.Status))
	}
	ratio, rating := report.BugRatio(len(snap.ProductionBugs), snap.FleetSize)
	lines = append(lines, fmt.Sprintf("*Bug ratio*: %.3f per cell (%s)", ratio, rating))
	blocks = append(blocks, slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, strings.Join(lines, "\n"), false, false), nil, nil))

	if wow != nil {
		text := fmt.Sprintf("*Week over week*: at-risk %s, critical PRBs %s, P0/P1 bugs %s, coverage %s",
			wow.AtRiskFeatures, wow.CriticalPRBs, wow.P0P1Bugs, wow.Coverage)
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil))
	}
	if files.Markdown != "" {
		blocks = append(blocks, slack.NewContextBlock("report_files",
			slack.NewTextBlockObject(slack.MarkdownType, "Report: `"+filepath.Base(files.Markdown)+"`", false, false)))
	}
	return blocks
}
