package store

import (
	"reflect"
	"testing"

	"github.com/mwoudstra/winnow/pkg/model"
	"github.com/mwoudstra/winnow/pkg/testutil"
)

func TestGetSetPaths(t *testing.T) {
	s := New()

	if err := s.SetState(map[string]any{
		PathFilterSearch: "pump",
		PathOffset:       50,
		PathTotal:        120,
		PathHasMore:      true,
	}, false); err != nil {
		t.Fatalf("SetState: %v", err)
	}

	if got := s.Get(PathFilterSearch); got != "pump" {
		t.Errorf("search = %v, want pump", got)
	}
	if got := s.Get(PathOffset); got != 50 {
		t.Errorf("offset = %v, want 50", got)
	}
	if got := s.Get(PathHasMore); got != true {
		t.Errorf("hasMore = %v, want true", got)
	}
}

func TestSetStateUnknownPath(t *testing.T) {
	s := New()
	if err := s.SetState(map[string]any{"nope.nothing": 1}, false); err == nil {
		t.Fatal("expected error for unknown path")
	}
}

func TestSetStateWrongType(t *testing.T) {
	s := New()
	if err := s.SetState(map[string]any{PathOffset: "fifty"}, false); err == nil {
		t.Fatal("expected error for wrong-typed value")
	}
}

func TestSilentWriteDoesNotNotify(t *testing.T) {
	s := New()
	calls := 0
	s.Subscribe(func([]string) { calls++ })

	if err := s.SetState(map[string]any{PathIsLoading: true}, true); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if calls != 0 {
		t.Errorf("silent write notified %d times", calls)
	}
	if got := s.Pagination().IsLoading; !got {
		t.Error("silent write did not apply")
	}
}

func TestAddToFilterIdempotent(t *testing.T) {
	s := New()
	calls := 0
	s.Subscribe(func([]string) { calls++ })

	if err := s.AddToFilter(PathFilterCategories, "power"); err != nil {
		t.Fatalf("AddToFilter: %v", err)
	}
	if calls != 1 {
		t.Fatalf("first add notified %d times, want 1", calls)
	}
	// Adding an already-present value is a no-op and does not notify.
	if err := s.AddToFilter(PathFilterCategories, "power"); err != nil {
		t.Fatalf("AddToFilter: %v", err)
	}
	if calls != 1 {
		t.Errorf("duplicate add notified, calls = %d", calls)
	}

	if err := s.RemoveFromFilter(PathFilterCategories, "absent"); err != nil {
		t.Fatalf("RemoveFromFilter: %v", err)
	}
	if calls != 1 {
		t.Errorf("absent remove notified, calls = %d", calls)
	}
	if err := s.RemoveFromFilter(PathFilterCategories, "power"); err != nil {
		t.Fatalf("RemoveFromFilter: %v", err)
	}
	if calls != 2 {
		t.Errorf("remove notified %d times, want 2", calls)
	}
}

func TestResetFiltersRestoresShape(t *testing.T) {
	s := New()
	s.SetFilter(PathFilterSearch, "water")
	s.AddToFilter(PathFilterRegions, "north")
	s.SetFilter(PathFilterResolved, true)

	s.ResetFilters()

	f := s.Filters()
	if !f.IsZero() {
		t.Errorf("filters not zero after reset: %+v", f)
	}
	if f.Categories == nil || f.Regions == nil {
		t.Error("multi-value sets must stay non-nil after reset")
	}
}

func TestResetPagination(t *testing.T) {
	s := New()
	s.SetState(map[string]any{PathOffset: 50, PathTotal: 80, PathHasMore: true, PathIsLoading: true}, false)

	s.ResetPagination()

	want := model.DefaultPagination()
	if got := s.Pagination(); got != want {
		t.Errorf("pagination = %+v, want %+v", got, want)
	}
}

func TestAddReportsReplaceAndAppend(t *testing.T) {
	s := New()
	first := testutil.GenerateReports(3)
	more := testutil.GenerateReports(5)[3:]

	s.AddReports(first, true)
	testutil.AssertReportCount(t, s.Reports(), 3)

	s.AddReports(more, false)
	testutil.AssertReportCount(t, s.Reports(), 5)
	testutil.AssertNoDuplicateIDs(t, s.Reports())

	s.AddReports(first, true)
	testutil.AssertReportCount(t, s.Reports(), 3)
}

func TestClearReportsDropsExpanded(t *testing.T) {
	s := New()
	s.AddReports(testutil.GenerateReports(2), true)
	s.SetExpanded("rpt-0001", true)

	s.ClearReports()

	if s.Len() != 0 {
		t.Error("reports not cleared")
	}
	if s.IsExpanded("rpt-0001") {
		t.Error("expanded set not cleared")
	}
}

func TestExpandedSetIdempotent(t *testing.T) {
	s := New()
	calls := 0
	s.Subscribe(func([]string) { calls++ }, PathExpanded)

	s.SetExpanded("rpt-0001", true)
	s.SetExpanded("rpt-0001", true)
	if calls != 1 {
		t.Errorf("redundant expand notified, calls = %d", calls)
	}
	if !s.IsExpanded("rpt-0001") {
		t.Error("expected expanded")
	}
	s.SetExpanded("rpt-0001", false)
	s.SetExpanded("rpt-0001", false)
	if calls != 2 {
		t.Errorf("redundant collapse notified, calls = %d", calls)
	}
}

func TestSubscribeWatchedPaths(t *testing.T) {
	s := New()
	var got [][]string
	s.Subscribe(func(changed []string) {
		got = append(got, changed)
	}, PathFilters)

	s.SetFilter(PathFilterSearch, "x") // matches by prefix
	s.SetState(map[string]any{PathOffset: 10}, false)

	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d: %v", len(got), got)
	}
	if !reflect.DeepEqual(got[0], []string{PathFilterSearch}) {
		t.Errorf("changed = %v", got[0])
	}
}

func TestSubscribeWholesaleResetMatchesLeafWatcher(t *testing.T) {
	s := New()
	calls := 0
	s.Subscribe(func([]string) { calls++ }, PathFilterSearch)

	s.SetFilter(PathFilterSearch, "x")
	s.ResetFilters() // notifies "filters", which covers "filters.search"

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestUnsubscribe(t *testing.T) {
	s := New()
	calls := 0
	unsub := s.Subscribe(func([]string) { calls++ })

	s.SetFilter(PathFilterSearch, "a")
	unsub()
	s.SetFilter(PathFilterSearch, "b")

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

// A subscriber that writes back into the store must not recurse: the
// nested notification is queued and flushed after the current dispatch.
func TestReentrantNotifyQueued(t *testing.T) {
	s := New()

	var order []string
	s.Subscribe(func(changed []string) {
		order = append(order, "first:"+changed[0])
		if changed[0] == PathFilterSearch {
			// Cascading write from inside the dispatch.
			s.SetState(map[string]any{PathTotal: 99}, false)
			// The nested change must not have been dispatched yet.
			if len(order) != 1 {
				t.Errorf("nested notification dispatched re-entrantly: %v", order)
			}
		}
	})

	s.SetFilter(PathFilterSearch, "cascade")

	want := []string{"first:" + PathFilterSearch, "first:" + PathTotal}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("dispatch order = %v, want %v", order, want)
	}
	if got := s.Pagination().Total; got != 99 {
		t.Errorf("total = %d, want 99", got)
	}
}

// Deep cascades terminate: each flush merges everything queued during the
// previous dispatch, so the stack never grows with the cascade depth.
func TestCascadingUpdatesTerminate(t *testing.T) {
	s := New()
	hops := 0
	s.Subscribe(func(changed []string) {
		if hops < 5 {
			hops++
			s.SetState(map[string]any{PathOffset: hops * 10}, false)
		}
	})

	s.SetFilter(PathFilterSearch, "go")

	if got := s.Pagination().Offset; got != 50 {
		t.Errorf("offset = %d, want 50", got)
	}
}

func TestFiltersCloneIsIndependent(t *testing.T) {
	s := New()
	s.AddToFilter(PathFilterCategories, "power")

	f := s.Filters()
	f.Categories["water"] = struct{}{}
	f.Search = "mutated"

	if _, ok := s.filters.Categories["water"]; ok {
		t.Error("clone mutation leaked into store")
	}
	if s.filters.Search != "" {
		t.Error("clone scalar mutation leaked into store")
	}
}

func TestReportIndexResilience(t *testing.T) {
	s := New()
	s.AddReports(testutil.GenerateReports(2), true)

	if _, ok := s.Report(-1); ok {
		t.Error("Report(-1) should miss")
	}
	if _, ok := s.Report(2); ok {
		t.Error("Report(len) should miss")
	}
	if r, ok := s.Report(1); !ok || r.ID != "rpt-0001" {
		t.Errorf("Report(1) = %+v, %v", r, ok)
	}
}
