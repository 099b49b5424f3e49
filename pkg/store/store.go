// Package store implements the single mutable state container behind the
// windowed report list: filter values, the pagination cursor, the fetched
// record cache, and the expanded-row set.
//
// State is addressed by dot paths ("pagination.offset", "filters.search")
// through typed accessors, and observers subscribe to change notifications.
// The store is not goroutine-safe: all mutation is expected to happen on
// one control flow (the bubbletea update loop), with asynchronous work
// re-entering it as messages.
package store

import (
	"fmt"

	"github.com/mwoudstra/winnow/pkg/debug"
	"github.com/mwoudstra/winnow/pkg/model"
)

// Well-known state paths. Nested fields use dot notation; a prefix path
// ("filters") watches every field under it.
const (
	PathFilters          = "filters"
	PathFilterSearch     = "filters.search"
	PathFilterDateFrom   = "filters.dateFrom"
	PathFilterDateUntil  = "filters.dateUntil"
	PathFilterResolved   = "filters.resolved"
	PathFilterCategories = "filters.categories"
	PathFilterRegions    = "filters.regions"
	PathPagination       = "pagination"
	PathOffset           = "pagination.offset"
	PathTotal            = "pagination.total"
	PathHasMore          = "pagination.hasMore"
	PathIsLoading        = "pagination.isLoading"
	PathReports          = "reports"
	PathExpanded         = "expanded"
	PathLastError        = "lastError"
)

// Subscriber receives the paths that changed in one mutation.
type Subscriber func(changed []string)

type subscription struct {
	id      int
	fn      Subscriber
	watched []string // empty = all paths
}

// Store holds all windowed-list state for one feed session.
type Store struct {
	filters    model.FilterState
	pagination model.PaginationState
	reports    []model.Report
	expanded   map[string]struct{}
	lastError  string

	subs   []subscription
	nextID int

	// Re-entrancy guard: if a subscriber mutates the store while a
	// dispatch is in progress, the resulting notification is parked in
	// pending (merged, last write wins) and flushed after the current
	// dispatch completes instead of recursing.
	dispatching bool
	pending     map[string]struct{}
}

// New returns a store with canonical default state.
func New() *Store {
	return &Store{
		filters:    model.DefaultFilters(),
		pagination: model.DefaultPagination(),
		expanded:   make(map[string]struct{}),
		pending:    make(map[string]struct{}),
	}
}

// Get returns the value at a dot path, or nil for an unknown path.
func (s *Store) Get(path string) any {
	switch path {
	case PathFilters:
		return s.filters
	case PathFilterSearch:
		return s.filters.Search
	case PathFilterDateFrom:
		return s.filters.DateFrom
	case PathFilterDateUntil:
		return s.filters.DateUntil
	case PathFilterResolved:
		return s.filters.Resolved
	case PathFilterCategories:
		return s.filters.SortedCategories()
	case PathFilterRegions:
		return s.filters.SortedRegions()
	case PathPagination:
		return s.pagination
	case PathOffset:
		return s.pagination.Offset
	case PathTotal:
		return s.pagination.Total
	case PathHasMore:
		return s.pagination.HasMore
	case PathIsLoading:
		return s.pagination.IsLoading
	case PathReports:
		return s.reports
	case PathExpanded:
		return s.expandedIDs()
	case PathLastError:
		return s.lastError
	}
	debug.Warn("store.Get: unknown path %q", path)
	return nil
}

// SetState applies a batch of path->value updates in one pass. With
// silent=true subscribers are not notified; used for high-frequency
// bookkeeping writes that must not trigger a re-render mid-operation.
// Unknown paths and wrong-typed values are rejected with an error;
// already-applied updates from the same batch are kept.
func (s *Store) SetState(updates map[string]any, silent bool) error {
	changed := make([]string, 0, len(updates))
	for path, value := range updates {
		ok, err := s.set(path, value)
		if err != nil {
			return err
		}
		if ok {
			changed = append(changed, path)
		}
	}
	if !silent {
		s.notify(changed)
	}
	return nil
}

func (s *Store) set(path string, value any) (bool, error) {
	switch path {
	case PathFilterSearch:
		v, ok := value.(string)
		if !ok {
			return false, typeErr(path, "string", value)
		}
		if s.filters.Search == v {
			return false, nil
		}
		s.filters.Search = v
	case PathFilterDateFrom:
		v, ok := value.(string)
		if !ok {
			return false, typeErr(path, "string", value)
		}
		if s.filters.DateFrom == v {
			return false, nil
		}
		s.filters.DateFrom = v
	case PathFilterDateUntil:
		v, ok := value.(string)
		if !ok {
			return false, typeErr(path, "string", value)
		}
		if s.filters.DateUntil == v {
			return false, nil
		}
		s.filters.DateUntil = v
	case PathFilterResolved:
		switch v := value.(type) {
		case nil:
			if s.filters.Resolved == nil {
				return false, nil
			}
			s.filters.Resolved = nil
		case *bool:
			s.filters.Resolved = v
		case bool:
			s.filters.Resolved = &v
		default:
			return false, typeErr(path, "bool, *bool or nil", value)
		}
	case PathOffset:
		v, ok := value.(int)
		if !ok {
			return false, typeErr(path, "int", value)
		}
		if s.pagination.Offset == v {
			return false, nil
		}
		s.pagination.Offset = v
	case PathTotal:
		v, ok := value.(int)
		if !ok {
			return false, typeErr(path, "int", value)
		}
		if s.pagination.Total == v {
			return false, nil
		}
		s.pagination.Total = v
	case PathHasMore:
		v, ok := value.(bool)
		if !ok {
			return false, typeErr(path, "bool", value)
		}
		if s.pagination.HasMore == v {
			return false, nil
		}
		s.pagination.HasMore = v
	case PathIsLoading:
		v, ok := value.(bool)
		if !ok {
			return false, typeErr(path, "bool", value)
		}
		if s.pagination.IsLoading == v {
			return false, nil
		}
		s.pagination.IsLoading = v
	case PathLastError:
		v, ok := value.(string)
		if !ok {
			return false, typeErr(path, "string", value)
		}
		if s.lastError == v {
			return false, nil
		}
		s.lastError = v
	default:
		return false, fmt.Errorf("store: cannot set unknown path %q", path)
	}
	return true, nil
}

func typeErr(path, want string, got any) error {
	return fmt.Errorf("store: path %q expects %s, got %T", path, want, got)
}

// Filters returns a deep copy of the current filter state, safe to hand to
// an in-flight request while the user keeps editing.
func (s *Store) Filters() model.FilterState {
	return s.filters.Clone()
}

// Pagination returns the current pagination snapshot.
func (s *Store) Pagination() model.PaginationState {
	return s.pagination
}

// Reports returns the current record sequence. Callers must treat it as
// read-only; it is replaced wholesale on refilter and extended on append.
func (s *Store) Reports() []model.Report {
	return s.reports
}

// Report returns the record at index, or a zero report and false when the
// index is out of range (resilience against a stale window).
func (s *Store) Report(index int) (model.Report, bool) {
	if index < 0 || index >= len(s.reports) {
		return model.Report{}, false
	}
	return s.reports[index], true
}

// Len returns the number of fetched records.
func (s *Store) Len() int {
	return len(s.reports)
}

// LastError returns the most recent surfaced load error, "" if none.
func (s *Store) LastError() string {
	return s.lastError
}

// SetFilter sets a scalar filter field by path and notifies on change.
func (s *Store) SetFilter(path string, value any) error {
	return s.SetState(map[string]any{path: value}, false)
}

// AddToFilter adds a value to a multi-value filter set. Adding an
// already-present value is a no-op and does not notify.
func (s *Store) AddToFilter(path, value string) error {
	set, err := s.filterSet(path)
	if err != nil {
		return err
	}
	if _, ok := set[value]; ok {
		return nil
	}
	set[value] = struct{}{}
	s.notify([]string{path})
	return nil
}

// RemoveFromFilter removes a value from a multi-value filter set. Removing
// an absent value is a no-op and does not notify.
func (s *Store) RemoveFromFilter(path, value string) error {
	set, err := s.filterSet(path)
	if err != nil {
		return err
	}
	if _, ok := set[value]; !ok {
		return nil
	}
	delete(set, value)
	s.notify([]string{path})
	return nil
}

func (s *Store) filterSet(path string) (map[string]struct{}, error) {
	switch path {
	case PathFilterCategories:
		return s.filters.Categories, nil
	case PathFilterRegions:
		return s.filters.Regions, nil
	}
	return nil, fmt.Errorf("store: %q is not a multi-value filter", path)
}

// ResetFilters restores the canonical default filter shape.
func (s *Store) ResetFilters() {
	s.filters.Reset()
	s.notify([]string{PathFilters})
}

// ResetPagination restores the canonical initial pagination shape.
func (s *Store) ResetPagination() {
	s.pagination.Reset()
	s.notify([]string{PathPagination})
}

// AddReports replaces the record set (replace=true) or appends to it.
// No deduplication happens here: any offset-0 fetch must be applied with
// replace=true by the caller.
func (s *Store) AddReports(records []model.Report, replace bool) {
	if replace {
		s.reports = append([]model.Report(nil), records...)
	} else {
		s.reports = append(s.reports, records...)
	}
	s.notify([]string{PathReports})
}

// ClearReports drops the record cache and the expanded set, ahead of a
// refilter fetch.
func (s *Store) ClearReports() {
	s.reports = nil
	s.expanded = make(map[string]struct{})
	s.notify([]string{PathReports, PathExpanded})
}

// SetExpanded records whether a report id is in the expanded visual state.
func (s *Store) SetExpanded(id string, expanded bool) {
	if expanded {
		if _, ok := s.expanded[id]; ok {
			return
		}
		s.expanded[id] = struct{}{}
	} else {
		if _, ok := s.expanded[id]; !ok {
			return
		}
		delete(s.expanded, id)
	}
	s.notify([]string{PathExpanded})
}

// IsExpanded reports whether a report id is expanded.
func (s *Store) IsExpanded(id string) bool {
	_, ok := s.expanded[id]
	return ok
}

// ExpandedCount returns the number of expanded report ids.
func (s *Store) ExpandedCount() int {
	return len(s.expanded)
}

func (s *Store) expandedIDs() []string {
	ids := make([]string, 0, len(s.expanded))
	for id := range s.expanded {
		ids = append(ids, id)
	}
	return ids
}

// Subscribe registers a callback for change notifications. With no watched
// paths the callback fires on every change; otherwise only when a changed
// path matches a watched path exactly or by prefix ("filters" matches
// "filters.search"). Returns an unsubscribe function.
func (s *Store) Subscribe(fn Subscriber, watched ...string) func() {
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn, watched: watched})
	return func() {
		for i := range s.subs {
			if s.subs[i].id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(changed []string) {
	if len(changed) == 0 {
		return
	}
	if s.dispatching {
		// Queued and flushed after the current dispatch; one slot,
		// merged, so cascading updates cannot grow the call stack.
		for _, p := range changed {
			s.pending[p] = struct{}{}
		}
		return
	}
	s.dispatching = true
	s.dispatch(changed)
	for len(s.pending) > 0 {
		flush := make([]string, 0, len(s.pending))
		for p := range s.pending {
			flush = append(flush, p)
		}
		s.pending = make(map[string]struct{})
		s.dispatch(flush)
	}
	s.dispatching = false
}

func (s *Store) dispatch(changed []string) {
	// Snapshot: a callback may subscribe or unsubscribe mid-dispatch.
	subs := append([]subscription(nil), s.subs...)
	for _, sub := range subs {
		if !sub.matches(changed) {
			continue
		}
		sub.fn(changed)
	}
}

func (sub subscription) matches(changed []string) bool {
	if len(sub.watched) == 0 {
		return true
	}
	for _, w := range sub.watched {
		for _, c := range changed {
			if pathMatches(w, c) {
				return true
			}
		}
	}
	return false
}

// pathMatches reports whether a changed path is covered by a watched path.
// Either side may be the prefix: watching "filters" covers a change to
// "filters.search", and watching "filters.search" covers a wholesale
// "filters" reset.
func pathMatches(watched, changed string) bool {
	if watched == changed {
		return true
	}
	if len(changed) > len(watched) && changed[:len(watched)] == watched && changed[len(watched)] == '.' {
		return true
	}
	if len(watched) > len(changed) && watched[:len(changed)] == changed && watched[len(changed)] == '.' {
		return true
	}
	return false
}
