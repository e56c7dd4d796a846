package salesforce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValue(t *testing.T) {
	row := Row{"case number": "PRB-1", "Subject": "Outage", "Description": ""}

	assert.Equal(t, "PRB-1", FieldValue(row, "ID", "Case Number"))
	assert.Equal(t, "Outage", FieldValue(row, "Title", "Subject"))
	assert.Equal(t, "", FieldValue(row, "Description", "Subject"))
	assert.Equal(t, "", FieldValue(row, "Missing"))
}

func TestProblemReports(t *testing.T) {
	rows := []Row{
		{"Case Number": "PRB-1234567", "Subject": "Replication lag", "Priority": "P1", "Status": "Open", "Created Date": "2025-09-10"},
		{"Case Number": "PRB-1234567", "Subject": "duplicate row"},
		{"Case Number": "PRB-0000002"},
		{"Subject": "no id"},
	}

	got := ProblemReports(rows)

	require.Len(t, got, 1)
	assert.Equal(t, "PRB-1234567", got[0].ID)
	assert.Equal(t, "Replication lag", got[0].Title)
	assert.Equal(t, "P1", got[0].Priority)
	assert.Equal(t, "Open", got[0].State)
	assert.Equal(t, "2025-09-10", got[0].CreatedDate)
	assert.Equal(t, "Unknown", got[0].Team)
}

func TestProductionBugs(t *testing.T) {
	rows := []Row{
		{"Issue ID": "W-12345678", "Title": "Login service timeout", "Severity": "P1-High", "Status": "Open", "Product Tag": "SDBStore"},
		{"Issue ID": "W-22222222", "Title": "Slow query", "Severity": "Critical"},
	}

	got := ProductionBugs(rows)

	require.Len(t, got, 2)
	assert.Equal(t, "P1", got[0].Tier)
	assert.Equal(t, "P1-High", got[0].Severity)
	assert.Equal(t, "SDBStore", got[0].Component)
	assert.Equal(t, "P2", got[1].Tier)
	assert.Equal(t, "Unknown", got[1].Component)
}
