package slackbot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qualityreport/internal/extract"
	"qualityreport/internal/report"
)

func testSnapshot() *report.Snapshot {
	prb := extract.NewProblemReport("PRB0000001")
	prb.Priority = "P0-Critical"
	return &report.Snapshot{
		Team:           "SDB",
		Week:           report.WeekFor(time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC)),
		ProblemReports: []extract.ProblemReport{prb},
		FleetSize:      1000,
	}
}

func TestSummaryBlocks(t *testing.T) {
	wow := &report.WeekOverWeek{AtRiskFeatures: "0%", CriticalPRBs: "+∞%", P0P1Bugs: "0%", Coverage: "-1.0%"}
	blocks := SummaryBlocks(testSnapshot(), wow, report.Files{Markdown: "/out/SDB_20250917.md"})

	require.Len(t, blocks, 4)
	header, ok := blocks[0].(*slack.HeaderBlock)
	require.True(t, ok)
	assert.Equal(t, "SDB Quality Report: September 08-14, 2025", header.Text.Text)

	summary := blocks[1].(*slack.SectionBlock).Text.Text
	assert.Contains(t, summary, ":red_circle: *Critical PRBs*: 1 (CRITICAL)")
	assert.Contains(t, summary, "*Bug ratio*: 0.000 per cell (Excellent)")
	assert.Contains(t, blocks[2].(*slack.SectionBlock).Text.Text, "critical PRBs +∞%")

	ctxBlock := blocks[3].(*slack.ContextBlock)
	assert.Equal(t, "Report: `SDB_20250917.md`", ctxBlock.ContextElements.Elements[0].(*slack.TextBlockObject).Text)
}

func TestSummaryBlocksWithoutHistory(t *testing.T) {
	blocks := SummaryBlocks(testSnapshot(), nil, report.Files{})
	assert.Len(t, blocks, 2)
}

type fakePoster struct {
	channel string
	err     error
}

func (f *fakePoster) PostMessageContext(_ context.Context, channelID string, _ ...slack.MsgOption) (string, string, error) {
	f.channel = channelID
	return channelID, "1700000000.000100", f.err
}

func TestPostSummaryWrapsError(t *testing.T) {
	fake := &fakePoster{err: errors.New("channel_not_found")}
	n := &Notifier{api: fake, channel: "C123"}

	err := n.PostSummary(context.Background(), testSnapshot(), nil, report.Files{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "post report summary: channel_not_found")
	assert.Equal(t, "C123", fake.channel)
}

func TestPostSummaryAgainstSlackAPI(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": "C123", "ts": "1700000000.000100"})
	}))
	defer srv.Close()

	n := NewNotifier("xoxb-test", "C123", slack.OptionAPIURL(srv.URL+"/"))
	require.NoError(t, n.PostSummary(context.Background(), testSnapshot(), nil, report.Files{}))

	assert.Equal(t, []string{"C123"}, form["channel"])
	assert.Equal(t, []string{"SDB quality report for September 08-14, 2025"}, form["text"])
	assert.Contains(t, form["blocks"][0], "SDB Quality Report")
}
