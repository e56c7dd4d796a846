package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScanFindings(t *testing.T) {
	text := strings.Join([]string{
		"Sayonara Data Management(2)",
		"P2(2)",
		"W-44444444",
		"sdb.258.7",
		"John Doe",
		"Triaged",
		"RESOURCE_LEAK: fd not closed in reader",
		"W-55555555",
		"sdb.258.8",
		"Ann Lee",
		"New",
		"OVERRUN in parser",
		"SDB Engine Health(1)",
		"P1(1)",
		"W-66666666",
	}, "\n")

	got := ParseScanFindings(text)

	require.Len(t, got, 3)
	assert.Equal(t, ScanFinding{
		ID:           "W-44444444",
		Title:        "RESOURCE_LEAK: fd not closed in reader",
		Tier:         "P2",
		Severity:     "P2-Medium",
		Status:       "Triaged",
		Component:    "Sayonara Data Management",
		Assignee:     "John Doe",
		BuildVersion: "sdb.258.7",
		Description:  "RESOURCE_LEAK: fd not closed in reader",
		Category:     "Resource Leak",
	}, got[0])

	assert.Equal(t, "W-55555555", got[1].ID)
	assert.Equal(t, "Buffer Overrun", got[1].Category)
	assert.Equal(t, "Sayonara Data Management", got[1].Component)

	assert.Equal(t, "W-66666666", got[2].ID)
	assert.Equal(t, "SDB Engine Health", got[2].Component)
	assert.Equal(t, "P1-Critical", got[2].Severity)
	assert.Equal(t, "Unknown", got[2].BuildVersion)
	assert.Equal(t, "Security Issue", got[2].Description)
	assert.Equal(t, "Other", got[2].Category)
}

func TestParseScanFindingsWithoutHeaders(t *testing.T) {
	got := ParseScanFindings("W-77777777")

	require.Len(t, got, 1)
	assert.Equal(t, "P4", got[0].Tier)
	assert.Equal(t, "P4-Low", got[0].Severity)
	assert.Equal(t, "Unknown", got[0].Component)
}

func TestParseScanFindingsIgnoresInvalidPriorityHeader(t *testing.T) {
	got := ParseScanFindings("P9(2)\nPending(3)\nW-88888888")

	require.Len(t, got, 1)
	assert.Equal(t, "P4", got[0].Tier)
}

func TestScanCategory(t *testing.T) {
	assert.Equal(t, "Use After Free", ScanCategory("USE_AFTER_FREE in cache"))
	assert.Equal(t, "Array vs Singleton", ScanCategory("ARRAY_VS_SINGLETON"))
	assert.Equal(t, "Other", ScanCategory("unclassified"))
}
