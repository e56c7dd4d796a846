package extract

// Span is a kind-specific pair of offsets around an anchor line.
type Span struct {
	Before int
	After  int
}

// Window is a half-open line range [Start, End).
type Window struct {
	Start int
	End   int
}

// NewWindow returns [max(0, line-before), min(n, line+after)). The result is
// always inside [0, n] even for anchors on the first or last line.
func NewWindow(line int, span Span, n int) Window {
	return Window{Start: line - span.Before, End: line + span.After}.clamp(n)
}

func (w Window) clamp(n int) Window {
	if w.Start < 0 {
		w.Start = 0
	}
	if w.End > n {
		w.End = n
	}
	if w.Start > n {
		w.Start = n
	}
	if w.End < w.Start {
		w.End = w.Start
	}
	return w
}

// ClipEnd shrinks the window so it stops before line end.
func (w Window) ClipEnd(end int) Window {
	if end < w.End {
		w.End = end
	}
	if w.End < w.Start {
		w.End = w.Start
	}
	return w
}

func (w Window) Len() int {
	return w.End - w.Start
}

func (w Window) Contains(line int) bool {
	return line >= w.Start && line < w.End
}
