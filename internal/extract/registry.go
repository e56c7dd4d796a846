// Package extract recovers typed records from copy-pasted report exports.
//
// Every parser works the same way: lines are trimmed, anchor lines carrying
// a work or problem-report ID are located, and each anchor's attributes are
// read either from a bounded window of nearby lines or from the section
// headers above it. Parsers never fail; text they cannot interpret simply
// leaves record defaults in place.
package extract

import (
	"fmt"
	"sort"
)

// Parser turns one export into records of a single kind.
type Parser interface {
	Name() string
	Kind() Kind
	Parse(text string) []Record
}

type funcParser[T Record] struct {
	name  string
	kind  Kind
	parse func(string) []T
}

func (p funcParser[T]) Name() string { return p.name }
func (p funcParser[T]) Kind() Kind   { return p.kind }

func (p funcParser[T]) Parse(text string) []Record {
	typed := p.parse(text)
	out := make([]Record, len(typed))
	for i, r := range typed {
		out[i] = r
	}
	return out
}

func newParser[T Record](name string, kind Kind, parse func(string) []T) Parser {
	return funcParser[T]{name: name, kind: kind, parse: parse}
}

// Registry looks parsers up by input name.
type Registry struct {
	parsers map[string]Parser
}

func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{parsers: make(map[string]Parser, len(parsers))}
	for _, p := range parsers {
		r.parsers[p.Name()] = p
	}
	return r
}

// DefaultRegistry registers a parser for every export this package knows.
func DefaultRegistry() *Registry {
	return NewRegistry(
		newParser("prb", KindProblemReport, ParseProblemReports),
		newParser("bugs", KindProductionBug, ParseProductionBugs),
		newParser("ci", KindWorkItem, func(text string) []WorkItem { return ParseWorkItems(text, SourceCI) }),
		newParser("leftshift", KindWorkItem, func(text string) []WorkItem { return ParseWorkItems(text, SourceLeftShift) }),
		newParser("abs", KindWorkItem, func(text string) []WorkItem { return ParseWorkItems(text, SourceABS) }),
		newParser("security", KindSecurityFinding, ParseSecurityFindings),
		newParser("scan", KindScanFinding, ParseScanFindings),
		newParser("ci_backlog", KindBacklogItem, func(text string) []BacklogItem { return ParseBacklog(text, CIBacklog) }),
		newParser("security_backlog", KindBacklogItem, func(text string) []BacklogItem { return ParseBacklog(text, SecurityBacklog) }),
		newParser("leftshift_backlog", KindBacklogItem, func(text string) []BacklogItem { return ParseBacklog(text, LeftShiftBacklog) }),
	)
}

// Parse runs the parser registered under name.
func (r *Registry) Parse(name, text string) ([]Record, error) {
	p, ok := r.parsers[name]
	if !ok {
		return nil, fmt.Errorf("unknown export %q (known: %v)", name, r.Names())
	}
	return p.Parse(text), nil
}

// Lookup returns the parser registered under name.
func (r *Registry) Lookup(name string) (Parser, bool) {
	p, ok := r.parsers[name]
	return p, ok
}

// Names returns the registered input names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
