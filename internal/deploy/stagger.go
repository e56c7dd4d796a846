// Package deploy summarizes the stagger deployment export.
package deploy

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Stagger is one row of the deployment export: how many cells in a stagger
// run a given SDB version.
type Stagger struct {
	Name    string `json:"stagger"`
	Version string `json:"sdb_version"`
	Cells   int    `json:"cell_count"`
	Phase   string `json:"deployment_phase"`
}

const (
	PhaseSandbox    = "Sandbox"
	PhaseProduction = "Production Rollout"
	PhaseUnknown    = "Unknown"
)

func phaseOf(stagger string) string {
	switch {
	case strings.HasPrefix(stagger, "SB"):
		return PhaseSandbox
	case strings.HasPrefix(stagger, "R"):
		return PhaseProduction
	default:
		return PhaseUnknown
	}
}

// ParseStaggerCSV reads rows with the columns stagger, version and
// SUM(count). Column order is taken from the header; a count that does not
// parse is recorded as zero.
func ParseStaggerCSV(r io.Reader) ([]Stagger, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []Stagger
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		name := field(row, "stagger")
		cells, err := strconv.Atoi(field(row, "SUM(count)"))
		if err != nil {
			cells = 0
		}
		out = append(out, Stagger{
			Name:    name,
			Version: field(row, "version"),
			Cells:   cells,
			Phase:   phaseOf(name),
		})
	}
	return out, nil
}

// LoadStaggerCSV parses the export at path. A missing file yields no rows.
func LoadStaggerCSV(path string) ([]Stagger, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("WARNING: stagger deployment file not found path=%s", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ParseStaggerCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rows, nil
}

// VersionRollup counts the cells running one version across all staggers.
type VersionRollup struct {
	Version string `json:"version"`
	Cells   int    `json:"cells"`
}

// Summary aggregates the stagger rows.
type Summary struct {
	FleetSize  int             `json:"fleet_size"`
	Sandbox    int             `json:"sandbox_cells"`
	Production int             `json:"production_cells"`
	Versions   []VersionRollup `json:"versions"`
}

// Summarize rolls the rows up by version, largest first. Versions with the
// same cell count are ordered by name.
func Summarize(rows []Stagger) Summary {
	var s Summary
	byVersion := make(map[string]int)
	for _, r := range rows {
		s.FleetSize += r.Cells
		switch r.Phase {
		case PhaseSandbox:
			s.Sandbox += r.Cells
		case PhaseProduction:
			s.Production += r.Cells
		}
		byVersion[r.Version] += r.Cells
	}
	for v, cells := range byVersion {
		s.Versions = append(s.Versions, VersionRollup{Version: v, Cells: cells})
	}
	sort.Slice(s.Versions, func(i, j int) bool {
		if s.Versions[i].Cells != s.Versions[j].Cells {
			return s.Versions[i].Cells > s.Versions[j].Cells
		}
		return s.Versions[i].Version < s.Versions[j].Version
	})
	return s
}

// DominantVersion returns the version on the most cells, or "" when there
// is no data.
func (s Summary) DominantVersion() string {
	if len(s.Versions) == 0 {
		return ""
	}
	return s.Versions[0].Version
}
