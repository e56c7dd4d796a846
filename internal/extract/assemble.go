package extract

// assemble builds one record per unique anchor identifier. Only the first
// limit anchors are eligible when limit > 0; the cut happens before
// deduplication. Later anchors repeating a seen identifier are dropped
// without being classified.
func assemble[T Record](anchors []Anchor, limit int, build func(Anchor) T) []T {
	if limit > 0 && len(anchors) > limit {
		anchors = anchors[:limit]
	}
	seen := make(map[string]struct{}, len(anchors))
	out := make([]T, 0, len(anchors))
	for _, a := range anchors {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, build(a))
	}
	return out
}

// dedupe keeps the first record for every identifier.
func dedupe[T Record](records []T) []T {
	seen := make(map[string]struct{}, len(records))
	out := make([]T, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.RecordID()]; dup {
			continue
		}
		seen[r.RecordID()] = struct{}{}
		out = append(out, r)
	}
	return out
}
