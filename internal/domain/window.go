package domain

import "time"

// Window is a sprint's effective time span. A window missing its start or
// its effective end is undated and never matches date or range queries.
type Window struct {
	Start    *time.Time
	End      *time.Time
	Complete *time.Time
}

// EffectiveEnd returns the end timestamp, falling back to the completion
// timestamp for closed sprints where the backend omitted the end.
func (w Window) EffectiveEnd() *time.Time {
	if w.End != nil {
		return w.End
	}
	return w.Complete
}

// ContainsDate reports whether d falls inside the window. The day bounds
// are anchored in the window's own start offset, so containment follows the
// sprint's reported time zone rather than the caller's.
func (w Window) ContainsDate(d Date) bool {
	end := w.EffectiveEnd()
	if w.Start == nil || end == nil {
		return false
	}
	loc := w.Start.Location()
	return !w.Start.After(d.endOfDay(loc)) && !end.Before(d.startOfDay(loc))
}

// OverlapsRange reports whether the window intersects the inclusive date
// range [a, b]. A reversed range is normalized before comparison.
func (w Window) OverlapsRange(a, b Date) bool {
	if a.After(b) {
		a, b = b, a
	}
	end := w.EffectiveEnd()
	if w.Start == nil || end == nil {
		return false
	}
	loc := w.Start.Location()
	return !w.Start.After(b.endOfDay(loc)) && !end.Before(a.startOfDay(loc))
}

// SortKey orders sprints "most recently ended or started first": effective
// end when present, else start, else the zero time so undated sprints sort
// last under a descending sort.
func (w Window) SortKey() time.Time {
	if end := w.EffectiveEnd(); end != nil {
		return *end
	}
	if w.Start != nil {
		return *w.Start
	}
	return time.Time{}
}
