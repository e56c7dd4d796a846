package deploy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const staggerExport = `stagger,version,SUM(count)
SB0,258.11,40
SB1,258.11,60
R0,258.10,100
R1,258.10,n/a
X9,257.4,5
`

func TestParseStaggerCSV(t *testing.T) {
	got, err := ParseStaggerCSV(strings.NewReader(staggerExport))

	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, Stagger{Name: "SB0", Version: "258.11", Cells: 40, Phase: PhaseSandbox}, got[0])
	assert.Equal(t, PhaseProduction, got[2].Phase)
	assert.Equal(t, 0, got[3].Cells)
	assert.Equal(t, PhaseUnknown, got[4].Phase)
}

func TestParseStaggerCSVHeaderOrder(t *testing.T) {
	got, err := ParseStaggerCSV(strings.NewReader("SUM(count),stagger,version\n7,R2,259.1\n"))

	require.NoError(t, err)
	assert.Equal(t, []Stagger{{Name: "R2", Version: "259.1", Cells: 7, Phase: PhaseProduction}}, got)
}

func TestParseStaggerCSVEmpty(t *testing.T) {
	got, err := ParseStaggerCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSummarize(t *testing.T) {
	rows, err := ParseStaggerCSV(strings.NewReader(staggerExport))
	require.NoError(t, err)

	got := Summarize(rows)

	assert.Equal(t, 205, got.FleetSize)
	assert.Equal(t, 100, got.Sandbox)
	assert.Equal(t, 100, got.Production)
	assert.Equal(t, []VersionRollup{
		{Version: "258.10", Cells: 100},
		{Version: "258.11", Cells: 100},
		{Version: "257.4", Cells: 5},
	}, got.Versions)
	assert.Equal(t, "258.10", got.DominantVersion())
	assert.Equal(t, "", Summarize(nil).DominantVersion())
}

func TestLoadStaggerCSV(t *testing.T) {
	rows, err := LoadStaggerCSV(filepath.Join(t.TempDir(), "missing.csv"))
	require.NoError(t, err)
	assert.Empty(t, rows)

	path := filepath.Join(t.TempDir(), "deployment.csv")
	require.NoError(t, os.WriteFile(path, []byte(staggerExport), 0o644))
	rows, err = LoadStaggerCSV(path)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}
