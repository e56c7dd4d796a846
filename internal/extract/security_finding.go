package extract

import "strings"

var (
	securityFindingSpan = Span{Before: 5, After: 8}

	securityCategories = substrings(
		"RESOURCE_LEAK", "OVERRUN", "USE_AFTER_FREE", "UNINIT", "NO_EFFECT", "ARRAY_VS_SINGLETON",
	)
	securityAssigneeKeywords = []string{"test", "error", "exception"}
)

// ParseSecurityFindings extracts static-analysis findings from a scan
// export where the category, file and owner sit near each work ID.
func ParseSecurityFindings(text string) []SecurityFinding {
	doc := NewDocument(text)
	anchors := ScanAnchors(doc, KindSecurityFinding, workItemIDPattern)
	return assemble(anchors, 0, func(a Anchor) SecurityFinding {
		return buildSecurityFinding(doc, a)
	})
}

func buildSecurityFinding(doc Document, a Anchor) SecurityFinding {
	r := defaultSecurityFinding(a.ID)

	w := NewWindow(a.Line, securityFindingSpan, doc.Len())
	lines := doc.Slice(w)

	for _, line := range lines {
		if category, ok := securityCategories.match(line); ok {
			r.Category = category
			if path := sourcePathPattern.FindString(line); path != "" {
				r.FilePath = path
			}
		}
		if strings.Contains(line, "Sayonara") {
			r.Team = line
		}
	}
	if b, ok := classifyBuild(lines); ok {
		r.BuildVersion = b
	}
	after := doc.Slice(Window{Start: a.Line + 1, End: w.End})
	if name, ok := firstPersonName(after, securityAssignee); ok {
		r.AssignedTo = name
	}
	return r
}

func securityAssignee(line string) bool {
	return len([]rune(line)) > 5 &&
		line != "New" &&
		!strings.HasPrefix(line, "sdb.") &&
		strings.Contains(line, " ") &&
		!containsAnyFold(line, securityAssigneeKeywords)
}
