package extract

import "strings"

// Risk is one tracked feature from the risk register.
type Risk struct {
	Feature     string `json:"feature" yaml:"feature"`
	Status      string `json:"status" yaml:"status"`
	Priority    string `json:"priority" yaml:"priority"`
	Description string `json:"description" yaml:"description"`
	LastUpdated string `json:"last_updated" yaml:"last_updated"`
}

// WithDefaults fills fields the register left empty. updated is used for a
// missing LastUpdated.
func (r Risk) WithDefaults(updated string) Risk {
	if r.Status == "" {
		r.Status = "Unknown"
	}
	if r.Priority == "" {
		r.Priority = "Medium"
	}
	if r.LastUpdated == "" {
		r.LastUpdated = updated
	}
	return r
}

var riskFields = []struct {
	prefix string
	set    func(*Risk, string)
}{
	{"Status:", func(r *Risk, v string) { r.Status = v }},
	{"Priority:", func(r *Risk, v string) { r.Priority = v }},
	{"Description:", func(r *Risk, v string) { r.Description = v }},
	{"Updated:", func(r *Risk, v string) { r.LastUpdated = v }},
}

// ParseRisks reads "Feature:" blocks. Lines before the first Feature line,
// blank lines and "#" comments are ignored.
func ParseRisks(text, updated string) []Risk {
	doc := NewDocument(text)
	var out []Risk
	var current *Risk
	flush := func() {
		if current != nil {
			out = append(out, current.WithDefaults(updated))
		}
	}
	for i := 0; i < doc.Len(); i++ {
		line := doc.Line(i)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if v, ok := strings.CutPrefix(line, "Feature:"); ok {
			flush()
			current = &Risk{Feature: strings.TrimSpace(v)}
			continue
		}
		if current == nil {
			continue
		}
		for _, f := range riskFields {
			if v, ok := strings.CutPrefix(line, f.prefix); ok {
				f.set(current, strings.TrimSpace(v))
				break
			}
		}
	}
	flush()
	return out
}
