package inputs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qualityreport/internal/extract"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadTextMissingFile(t *testing.T) {
	text, ok, err := ReadText(filepath.Join(t.TempDir(), "absent.txt"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, text)

	_, ok, err = ReadText("")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	got := Normalize("\ufeffW-12345678\r\nSDB Store\rslow loads…")
	assert.Equal(t, "W-12345678\nSDB Store\nslow loads...", got)
}

func TestLoadRisksText(t *testing.T) {
	path := writeFile(t, "risks.txt", "Feature: Online index rebuild\nStatus: At Risk\n")

	got, err := LoadRisks(path, "2025-09-12")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "At Risk", got[0].Status)
	assert.Equal(t, "Medium", got[0].Priority)
	assert.Equal(t, "2025-09-12", got[0].LastUpdated)
}

func TestLoadRisksYAML(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bare list", "- feature: Cross-region failover\n  priority: High\n"},
		{"risks key", "risks:\n  - feature: Cross-region failover\n    priority: High\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "risks.yaml", tt.content)

			got, err := LoadRisks(path, "2025-09-12")

			require.NoError(t, err)
			assert.Equal(t, []extract.Risk{{
				Feature:     "Cross-region failover",
				Status:      "Unknown",
				Priority:    "High",
				LastUpdated: "2025-09-12",
			}}, got)
		})
	}
}

func TestLoadRisksMissingFile(t *testing.T) {
	got, err := LoadRisks(filepath.Join(t.TempDir(), "risks.txt"), "2025-09-12")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPRBNotes(t *testing.T) {
	path := writeFile(t, "prb_augmentation.json", `{"PRB-1234567": "customer escalated"}`)

	notes, err := LoadPRBNotes(path)
	require.NoError(t, err)

	prbs := []extract.ProblemReport{
		{ID: "PRB-1234567", Description: "Problem report PRB-1234567 managed by SDB"},
		{ID: "PRB-7654321", Description: "untouched"},
	}
	got := AugmentProblemReports(prbs, notes)

	assert.Equal(t, "Problem report PRB-1234567 managed by SDB | Manual Note: customer escalated", got[0].Description)
	assert.Equal(t, "untouched", got[1].Description)
}

func TestLoadPRBNotesInvalidJSON(t *testing.T) {
	_, err := LoadPRBNotes(writeFile(t, "notes.json", "{not json"))
	assert.Error(t, err)
}

func TestLoadDeploymentSummary(t *testing.T) {
	got, err := LoadDeploymentSummary(writeFile(t, "deployment.txt", "\n  Weekly Deployment Summary\n\n"))
	require.NoError(t, err)
	assert.Equal(t, "Weekly Deployment Summary", got)
}
