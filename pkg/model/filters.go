package model

import "sort"

// FilterState holds the server-side query filters. Multi-value fields are
// always non-nil sets so membership and equality checks stay total; use
// DefaultFilters (or Reset) rather than a zero value.
type FilterState struct {
	Search     string
	DateFrom   string // inclusive lower bound, ISO date (2006-01-02)
	DateUntil  string // inclusive upper bound, ISO date
	Resolved   *bool  // nil = both, true = resolved only, false = open only
	Categories map[string]struct{}
	Regions    map[string]struct{}
}

// DefaultFilters returns the canonical empty filter shape. Resets restore
// this whole shape rather than clearing fields piecemeal, so the set of
// keys never drifts across resets.
func DefaultFilters() FilterState {
	return FilterState{
		Categories: make(map[string]struct{}),
		Regions:    make(map[string]struct{}),
	}
}

// Reset restores f to the canonical default shape in place.
func (f *FilterState) Reset() {
	*f = DefaultFilters()
}

// IsZero reports whether no filter is active.
func (f FilterState) IsZero() bool {
	return f.Search == "" && f.DateFrom == "" && f.DateUntil == "" &&
		f.Resolved == nil && len(f.Categories) == 0 && len(f.Regions) == 0
}

// Clone returns a deep copy, safe to hand to a request goroutine while the
// original keeps being mutated.
func (f FilterState) Clone() FilterState {
	c := f
	c.Categories = make(map[string]struct{}, len(f.Categories))
	for k := range f.Categories {
		c.Categories[k] = struct{}{}
	}
	c.Regions = make(map[string]struct{}, len(f.Regions))
	for k := range f.Regions {
		c.Regions[k] = struct{}{}
	}
	if f.Resolved != nil {
		v := *f.Resolved
		c.Resolved = &v
	}
	return c
}

// SortedCategories returns the category set as a sorted slice, for stable
// query strings and tag rendering.
func (f FilterState) SortedCategories() []string {
	return sortedKeys(f.Categories)
}

// SortedRegions returns the region set as a sorted slice.
func (f FilterState) SortedRegions() []string {
	return sortedKeys(f.Regions)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PaginationState tracks the fetch cursor for the current filter epoch.
// Offset is the next fetch start and only ever grows within one epoch; a
// filter change resets the whole struct.
type PaginationState struct {
	Offset    int
	Total     int
	HasMore   bool
	IsLoading bool
}

// DefaultPagination returns the canonical initial pagination shape.
func DefaultPagination() PaginationState {
	return PaginationState{HasMore: true}
}

// Reset restores p to the canonical initial shape in place.
func (p *PaginationState) Reset() {
	*p = DefaultPagination()
}
