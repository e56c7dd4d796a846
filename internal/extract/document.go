package extract

import "strings"

// Document is the trimmed, line-oriented form of one exported text blob.
// It is never modified after NewDocument returns.
type Document struct {
	lines []string
}

func NewDocument(text string) Document {
	if text == "" {
		return Document{}
	}
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, line := range raw {
		lines[i] = strings.TrimSpace(line)
	}
	return Document{lines: lines}
}

func (d Document) Len() int {
	return len(d.lines)
}

// Line returns the trimmed line at i, or "" when i is out of range.
func (d Document) Line(i int) string {
	if i < 0 || i >= len(d.lines) {
		return ""
	}
	return d.lines[i]
}

// Slice returns the lines covered by w. The returned slice aliases the
// document and must not be written to.
func (d Document) Slice(w Window) []string {
	w = w.clamp(len(d.lines))
	return d.lines[w.Start:w.End]
}
