package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWorkItems(t *testing.T) {
	text := strings.Join([]string{
		"Sayonara TxP(3)",
		"P1(3)",
		"W-11111111",
		"Flaky test in replication suite",
		"sdb.258.11.3",
		"In Progress",
		"09/03/2025",
	}, "\n")

	got := ParseWorkItems(text, SourceCI)

	require.Len(t, got, 1)
	assert.Equal(t, WorkItem{
		ID:           "W-11111111",
		Source:       SourceCI,
		Team:         "Sayonara TxP",
		Priority:     "P1",
		Subject:      "Flaky test in replication suite",
		Status:       "In Progress",
		BuildVersion: "sdb.258.11.3",
		CreatedDate:  "2025-09-03",
	}, got[0])
}

func TestParseWorkItemsTeamNormalization(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"SDB Data Management Work Queue", "Sayonara Data Management"},
		{"SDB Foundation Services Work Queue", "Sayonara Foundation Services"},
		{"SDB Engine Health and Diagnostics", "SDB Engine Health"},
		{"SDB Query Proc Execution", "SDB Query Proc"},
		{"Anup Ghatage", "Sayonara Data Management"},
		{"nobody we know", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := ParseWorkItems("W-22222222\n"+tt.line, SourceLeftShift)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Team)
		})
	}
}

func TestParseWorkItemsSubjectRules(t *testing.T) {
	got := ParseWorkItems("W-33333333\nSubtotal for the whole section", SourceABS)
	require.Len(t, got, 1)
	assert.Equal(t, "Unknown Issue", got[0].Subject)

	long := strings.Repeat("y", 200)
	got = ParseWorkItems("W-33333334\n"+long, SourceABS)
	require.Len(t, got, 1)
	assert.Equal(t, strings.Repeat("y", 150), got[0].Subject)
}

func TestParseWorkItemsDefaults(t *testing.T) {
	got := ParseWorkItems("W-44444444", SourceABS)
	require.Len(t, got, 1)
	assert.Equal(t, defaultWorkItem("W-44444444", SourceABS), got[0])
}
