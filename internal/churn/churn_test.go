package churn

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	return dir
}

func fakeGit(outputs map[string]string) gitRunner {
	return func(_ context.Context, _ string, args ...string) (string, error) {
		key := strings.Join(args[:2], " ")
		out, ok := outputs[key]
		if !ok {
			return "", errors.New("unexpected git call: " + key)
		}
		return out, nil
	}
}

func TestAnalyze(t *testing.T) {
	git := fakeGit(map[string]string{
		"rev-list --count":        "14\n",
		"log --numstat":           "10\t2\tsrc/a.c\n\n-\t-\tassets/logo.png\n5\t5\tsrc/b.c\n3\t0\tsrc/a.c\n",
		"log --pretty=format:%an": "Ann Lee\nJohn Doe\nAnn Lee\n",
	})

	got := analyze(context.Background(), git, fakeRepo(t), "2025-09-01", "2025-09-07")

	assert.Equal(t, 14, got.Commits)
	assert.Equal(t, 18, got.LinesAdded)
	assert.Equal(t, 7, got.LinesDeleted)
	assert.Equal(t, 25, got.LinesChanged)
	assert.Equal(t, 3, got.FilesChanged)
	assert.Equal(t, []string{"Ann Lee", "John Doe"}, got.Authors)
	assert.Equal(t, []FileChange{
		{File: "src/a.c", Added: 13, Deleted: 2, Total: 15},
		{File: "src/b.c", Added: 5, Deleted: 5, Total: 10},
		{File: "assets/logo.png"},
	}, got.MostChanged)
	assert.InDelta(t, 2.0, got.CommitsPerDay, 0.0001)
	assert.Equal(t, RiskLow, got.Risk)
}

func TestAnalyzeFallsBackToEmpty(t *testing.T) {
	failing := func(context.Context, string, ...string) (string, error) {
		return "", errors.New("boom")
	}

	tests := []struct {
		name string
		repo string
	}{
		{"no repo configured", ""},
		{"not a git repository", t.TempDir()},
		{"git failure", fakeRepo(t)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyze(context.Background(), failing, tt.repo, "2025-09-01", "2025-09-07")
			assert.Equal(t, Empty("2025-09-01", "2025-09-07"), got)
		})
	}
}

func TestAssessRisk(t *testing.T) {
	tests := []struct {
		name                        string
		commits, lines, files, days int
		want                        string
	}{
		{"zero days", 100, 100, 100, 0, RiskUnknown},
		{"quiet week", 7, 700, 14, 7, RiskLow},
		{"busy commits and lines", 42, 4200, 14, 7, RiskMedium},
		{"heavy churn", 84, 60000, 14, 7, RiskHigh},
		{"single medium signal", 42, 700, 14, 7, RiskLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssessRisk(tt.commits, tt.lines, tt.files, tt.days))
		})
	}
}

func TestPeriodDays(t *testing.T) {
	assert.Equal(t, 7, periodDays("2025-09-01", "2025-09-07"))
	assert.Equal(t, 0, periodDays("bad", "2025-09-07"))
}
