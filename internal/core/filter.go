package core

// FilterSpec is a predicate over the record set. Nil fields mean "no
// constraint". Both date bounds are inclusive and compared at local-day
// granularity.
type FilterSpec struct {
	Category *Category
	Start    *Date
	End      *Date
}

// Matches reports whether a single record passes the filter.
func (f FilterSpec) Matches(r Record) bool {
	if f.Category != nil && r.Category != *f.Category {
		return false
	}
	if f.Start != nil && r.Date.Time.Before(f.Start.Time) {
		return false
	}
	if f.End != nil && r.Date.Time.After(f.End.Time) {
		return false
	}
	return true
}

// IsZero reports whether the filter constrains nothing.
func (f FilterSpec) IsZero() bool {
	return f.Category == nil && f.Start == nil && f.End == nil
}

// Apply returns the records passing the filter, preserving input order.
// Dates are already normalized to local midnight, so comparing the record
// day against the bounds never shifts across timezone boundaries; a record
// dated exactly on End is included.
func Apply(records []Record, spec FilterSpec) []Record {
	if spec.IsZero() {
		return append([]Record(nil), records...)
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if spec.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
