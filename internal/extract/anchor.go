package extract

import "regexp"

var (
	workItemIDPattern      = regexp.MustCompile(`W-\d{8}`)
	problemReportIDPattern = regexp.MustCompile(`PRB-\d{7}`)
	// Grouped and positional layouts key records on the whole line.
	listedWorkIDPattern = regexp.MustCompile(`^W-.*`)
)

// Anchor marks the line where one record starts.
type Anchor struct {
	Line int
	ID   string
	Kind Kind
}

// ScanAnchors returns one anchor per line matching pattern, in document
// order. Repeated identifiers produce repeated anchors.
func ScanAnchors(doc Document, kind Kind, pattern *regexp.Regexp) []Anchor {
	var anchors []Anchor
	for i := 0; i < doc.Len(); i++ {
		if id := pattern.FindString(doc.Line(i)); id != "" {
			anchors = append(anchors, Anchor{Line: i, ID: id, Kind: kind})
		}
	}
	return anchors
}

// nextAnchorLine returns the index of the first line after from that matches
// pattern, or doc.Len() when there is none.
func nextAnchorLine(doc Document, from int, pattern *regexp.Regexp) int {
	for i := from + 1; i < doc.Len(); i++ {
		if pattern.MatchString(doc.Line(i)) {
			return i
		}
	}
	return doc.Len()
}
