package domain

import "strings"

// FilterAll is the sentinel callers may pass for category or
// neighborhood to mean "unconstrained", equivalent to leaving the field
// empty.
const FilterAll = "all"

// Filter narrows a listing collection. All supplied constraints are
// ANDed. Filtering is pure and total: it never errors, and an empty
// result is a valid outcome.
type Filter struct {
	Text         string
	Category     string
	Neighborhood string
}

func (f Filter) Matches(l *Listing) bool {
	if text := strings.TrimSpace(f.Text); text != "" {
		needle := strings.ToLower(text)
		if !strings.Contains(strings.ToLower(l.Name), needle) &&
			!strings.Contains(strings.ToLower(l.Description), needle) {
			return false
		}
	}
	if constrained(f.Category) && l.Category != f.Category {
		return false
	}
	if constrained(f.Neighborhood) && l.Neighborhood != f.Neighborhood {
		return false
	}
	return true
}

// Apply returns the listings satisfying the filter, preserving input
// order. The result is always a non-nil slice.
func (f Filter) Apply(listings []*Listing) []*Listing {
	out := make([]*Listing, 0, len(listings))
	for _, l := range listings {
		if f.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}

func constrained(v string) bool {
	return v != "" && !strings.EqualFold(v, FilterAll)
}
