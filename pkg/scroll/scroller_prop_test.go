package scroll

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/mwoudstra/winnow/pkg/store"
	"github.com/mwoudstra/winnow/pkg/testutil"
)

// Under any interleaving of scrolls, resizes, expand/collapse toggles,
// appends and replaces, the pool invariants hold: active slots never
// exceed the pool, no two active slots share a record index, the window
// never exceeds the pool width, and spacers plus window always sum to the
// total estimated height.
func TestScrollerInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		poolSize := rapid.IntRange(4, 40).Draw(t, "poolSize")
		buffer := rapid.IntRange(1, 8).Draw(t, "buffer")
		st := store.New()
		st.AddReports(testutil.GenerateReports(rapid.IntRange(0, 120).Draw(t, "initial")), true)
		surface := &fakeSurface{extent: rapid.IntRange(4, 60).Draw(t, "extent")}
		sc := New(st, surface, Config{
			PoolSize:        poolSize,
			BufferRows:      buffer,
			CollapsedHeight: 2,
			ExpandedHeight:  9,
		})
		sc.Refresh()

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0: // scroll
				surface.offset = rapid.IntRange(0, sc.TotalHeight()+20).Draw(t, "offset")
				sc.OnScroll()
			case 1: // resize
				surface.extent = rapid.IntRange(1, 80).Draw(t, "resize")
				sc.Refresh()
			case 2: // toggle expansion of a random record
				if st.Len() > 0 {
					idx := rapid.IntRange(0, st.Len()-1).Draw(t, "toggleIdx")
					rec, _ := st.Report(idx)
					if st.IsExpanded(rec.ID) {
						sc.OnItemCollapsed(rec.ID)
					} else {
						sc.OnItemExpanded(rec.ID)
					}
				}
			case 3: // append a page
				extra := rapid.IntRange(1, 30).Draw(t, "append")
				st.AddReports(testutil.GenerateReports(st.Len()+extra)[st.Len():], false)
				sc.Refresh()
			case 4: // refilter replace
				st.ClearReports()
				st.AddReports(testutil.GenerateReports(rapid.IntRange(0, 60).Draw(t, "replace")), true)
				surface.offset = 0
				sc.Refresh()
			}

			start, end := sc.Range()
			if end < start || start < 0 || end > st.Len() {
				t.Fatalf("bad range [%d,%d) with %d records", start, end, st.Len())
			}
			if end-start > poolSize {
				t.Fatalf("range [%d,%d) wider than pool %d", start, end, poolSize)
			}
			if sc.ActiveCount() > poolSize {
				t.Fatalf("%d active slots exceed pool %d", sc.ActiveCount(), poolSize)
			}
			seen := make(map[int]bool)
			windowHeight := 0
			prev := -1
			for _, slot := range sc.ActiveSlots() {
				if seen[slot.Index] {
					t.Fatalf("duplicate dataIndex %d", slot.Index)
				}
				seen[slot.Index] = true
				if slot.Index <= prev {
					t.Fatalf("slots out of order: %d then %d", prev, slot.Index)
				}
				prev = slot.Index
			}
			for idx := start; idx < end; idx++ {
				rec, ok := st.Report(idx)
				if !ok {
					t.Fatalf("window index %d outside records", idx)
				}
				if st.IsExpanded(rec.ID) {
					windowHeight += 9
				} else {
					windowHeight += 2
				}
			}
			top, bottom := sc.Spacers()
			if top < 0 || bottom < 0 {
				t.Fatalf("negative spacer %d/%d", top, bottom)
			}
			if top+windowHeight+bottom != sc.TotalHeight() {
				t.Fatalf("spacers %d+%d+%d != total %d", top, windowHeight, bottom, sc.TotalHeight())
			}
		}
	})
}
