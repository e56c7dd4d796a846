// Package inputs loads the weekly export files from disk.
package inputs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"qualityreport/internal/extract"
)

// ReadText returns the normalized contents of an export file. A missing
// file is not an error: ok is false and the caller treats the export as
// empty.
func ReadText(path string) (text string, ok bool, err error) {
	if path == "" {
		return "", false, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("WARNING: input file not found path=%s", path)
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	return Normalize(string(data)), true, nil
}

// Normalize folds copy-paste artifacts out of browser exports: a leading
// byte order mark, CRLF line endings and compatibility characters such as
// non-breaking spaces and the single-glyph ellipsis.
func Normalize(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return norm.NFKC.String(text)
}

// LoadRisks reads the risk register. YAML files (.yaml, .yml) hold a list
// of risks, either bare or under a "risks" key; any other file uses the
// "Feature:" text layout. updated fills missing LastUpdated values.
func LoadRisks(path, updated string) ([]extract.Risk, error) {
	text, ok, err := ReadText(path)
	if err != nil || !ok {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		risks, err := decodeRiskYAML([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		for i := range risks {
			risks[i] = risks[i].WithDefaults(updated)
		}
		return risks, nil
	default:
		return extract.ParseRisks(text, updated), nil
	}
}

func decodeRiskYAML(data []byte) ([]extract.Risk, error) {
	var list []extract.Risk
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc struct {
		Risks []extract.Risk `yaml:"risks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Risks, nil
}

// LoadPRBNotes reads the manual augmentation file: a JSON object mapping a
// PRB ID to a note. A missing file yields no notes.
func LoadPRBNotes(path string) (map[string]string, error) {
	text, ok, err := ReadText(path)
	if err != nil || !ok {
		return nil, err
	}
	notes := make(map[string]string)
	if err := json.Unmarshal([]byte(text), &notes); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return notes, nil
}

// AugmentProblemReports appends the matching manual note to each report's
// description.
func AugmentProblemReports(prbs []extract.ProblemReport, notes map[string]string) []extract.ProblemReport {
	for i := range prbs {
		if note, ok := notes[prbs[i].ID]; ok {
			prbs[i].Description += " | Manual Note: " + note
		}
	}
	return prbs
}

// LoadDeploymentSummary returns the free-text weekly deployment summary.
func LoadDeploymentSummary(path string) (string, error) {
	text, _, err := ReadText(path)
	return strings.TrimSpace(text), err
}
