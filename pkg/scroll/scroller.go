// Package scroll implements the windowed virtual list: a fixed-size arena
// of reusable row slots plus two boundary spacers that stand in for the
// records outside the rendered window.
//
// The scroller never allocates render state per record. It computes the
// visible record-index window from the host surface's scroll offset and
// viewport extent using per-record estimated heights (collapsed vs
// expanded), then rebinds pool slots to match. Rendering the slot content
// is delegated to externally supplied Populate/Reset callbacks, keeping
// record templating out of the engine.
package scroll

import (
	"github.com/mwoudstra/winnow/pkg/debug"
	"github.com/mwoudstra/winnow/pkg/model"
	"github.com/mwoudstra/winnow/pkg/store"
)

// Unbound marks a slot with no record binding.
const Unbound = -1

// Default geometry, in terminal rows.
const (
	DefaultPoolSize        = 30
	DefaultBufferRows      = 5
	DefaultCollapsedHeight = 2
	DefaultExpandedHeight  = 12
)

// Slot is a reusable render-node handle. At most one active slot is bound
// to any given record index, and the pool never grows: slots are rebound,
// not reallocated, as the window slides.
type Slot struct {
	Index    int    // record index this slot is bound to, or Unbound
	ID       string // bound record id, "" when unbound
	Expanded bool
	Content  string // rendered row content, written by the populate callback
}

// Active reports whether the slot is bound to a record.
func (s *Slot) Active() bool {
	return s.Index != Unbound
}

// PopulateFunc writes a record into a pooled slot. Returning false marks
// the record unrenderable; it is skipped and the batch continues.
type PopulateFunc func(slot *Slot, record model.Report) bool

// ResetFunc clears all transient visual state on a slot before rebinding.
type ResetFunc func(slot *Slot)

// Surface is the scrollable host region supplying scroll geometry, in rows.
type Surface interface {
	ScrollOffset() int
	ViewportExtent() int
}

// Config controls scroller geometry and binds the templating callbacks.
type Config struct {
	PoolSize        int
	BufferRows      int // extra rows of records kept bound on each side
	CollapsedHeight int // estimated height of a collapsed record
	ExpandedHeight  int // estimated height of an expanded record
	Populate        PopulateFunc
	Reset           ResetFunc
}

func (c Config) withDefaults() Config {
	if c.PoolSize <= 0 {
		c.PoolSize = DefaultPoolSize
	}
	if c.BufferRows < 0 {
		c.BufferRows = 0
	} else if c.BufferRows == 0 {
		c.BufferRows = DefaultBufferRows
	}
	if c.CollapsedHeight <= 0 {
		c.CollapsedHeight = DefaultCollapsedHeight
	}
	if c.ExpandedHeight <= 0 {
		c.ExpandedHeight = DefaultExpandedHeight
	}
	if c.Populate == nil {
		c.Populate = func(*Slot, model.Report) bool { return true }
	}
	if c.Reset == nil {
		c.Reset = func(*Slot) {}
	}
	return c
}

// Scroller owns the slot pool and the two spacers for one report list.
// All methods must run on the store's owning control flow; slot mutation is
// synchronous within a single scroll or refresh invocation.
type Scroller struct {
	store   *store.Store
	surface Surface
	cfg     Config

	pool  []Slot
	bound map[int]int // record index -> pool slot index

	rangeStart int // current window [start, end)
	rangeEnd   int
	topSpacer  int // rows represented by records before the window
	botSpacer  int // rows represented by records after the window
}

// New allocates the slot pool once; slots are only ever rebound afterward.
func New(st *store.Store, surface Surface, cfg Config) *Scroller {
	cfg = cfg.withDefaults()
	s := &Scroller{
		store:   st,
		surface: surface,
		cfg:     cfg,
		pool:    make([]Slot, cfg.PoolSize),
		bound:   make(map[int]int, cfg.PoolSize),
	}
	for i := range s.pool {
		s.pool[i].Index = Unbound
	}
	return s
}

// PoolSize returns the fixed slot-pool capacity.
func (s *Scroller) PoolSize() int {
	return s.cfg.PoolSize
}

// Range returns the current visible window [start, end) in record indices.
func (s *Scroller) Range() (start, end int) {
	return s.rangeStart, s.rangeEnd
}

// Spacers returns the current top and bottom spacer heights in rows.
func (s *Scroller) Spacers() (top, bottom int) {
	return s.topSpacer, s.botSpacer
}

// ActiveCount returns the number of slots currently bound to a record.
func (s *Scroller) ActiveCount() int {
	return len(s.bound)
}

// ActiveSlots returns pointers to the active slots in ascending record
// order, so visual order always matches data order even though slots are
// reused out of sequence.
func (s *Scroller) ActiveSlots() []*Slot {
	out := make([]*Slot, 0, len(s.bound))
	for idx := s.rangeStart; idx < s.rangeEnd; idx++ {
		if pi, ok := s.bound[idx]; ok {
			out = append(out, &s.pool[pi])
		}
	}
	return out
}

// TotalHeight returns the estimated height of the full known record
// sequence, the size the host surface should pretend to scroll through.
func (s *Scroller) TotalHeight() int {
	total := 0
	for i := 0; i < s.store.Len(); i++ {
		total += s.heightAt(i)
	}
	return total
}

// heightAt estimates the height of the record at index. Heights are
// estimated per record state, never measured from the host surface.
func (s *Scroller) heightAt(index int) int {
	rec, ok := s.store.Report(index)
	if ok && s.store.IsExpanded(rec.ID) {
		return s.cfg.ExpandedHeight
	}
	return s.cfg.CollapsedHeight
}

// OnScroll recomputes the visible window from the host surface and
// reconciles slots if the window moved. Cheap when it did not: sub-row
// scroll deltas that land in the same range are skipped entirely.
func (s *Scroller) OnScroll() {
	start, end := s.computeRange()
	if start == s.rangeStart && end == s.rangeEnd {
		return
	}
	s.applyRange(start, end)
}

// Refresh forces a full window recompute and slot repopulation, after the
// record set changed underneath the current bindings.
func (s *Scroller) Refresh() {
	for idx := range s.bound {
		s.deactivate(idx)
	}
	start, end := s.computeRange()
	s.applyRange(start, end)
}

// computeRange walks the record sequence accumulating estimated heights:
// the first record past the scroll offset starts the window, the first
// record past offset+extent ends it, widened by the buffer on both sides
// and clamped so the window never needs more slots than the pool holds.
func (s *Scroller) computeRange() (start, end int) {
	n := s.store.Len()
	if n == 0 {
		return 0, 0
	}
	scrollOff := s.surface.ScrollOffset()
	extent := s.surface.ViewportExtent()
	if scrollOff < 0 {
		scrollOff = 0
	}
	if extent <= 0 {
		extent = 1
	}

	sum := 0
	i := 0
	for i < n && sum+s.heightAt(i) <= scrollOff {
		sum += s.heightAt(i)
		i++
	}
	start = i - s.cfg.BufferRows
	if start < 0 {
		start = 0
	}

	j := i
	for j < n && sum < scrollOff+extent {
		sum += s.heightAt(j)
		j++
	}
	end = j + s.cfg.BufferRows
	if end > n {
		end = n
	}

	// Degrade rather than overflow: an oversized natural window keeps its
	// start and loses its tail.
	if end-start > s.cfg.PoolSize {
		end = start + s.cfg.PoolSize
	}
	return start, end
}

// applyRange reconciles slot bindings to the new window and then recomputes
// the spacers. Order matters: slots are deactivated before any are reused,
// and spacer writes follow the range change, never precede it.
func (s *Scroller) applyRange(start, end int) {
	for idx := range s.bound {
		if idx < start || idx >= end {
			s.deactivate(idx)
		}
	}

	for idx := start; idx < end; idx++ {
		if _, ok := s.bound[idx]; ok {
			continue
		}
		s.bind(idx)
	}

	s.rangeStart, s.rangeEnd = start, end
	s.recomputeSpacers()
}

func (s *Scroller) deactivate(index int) {
	pi, ok := s.bound[index]
	if !ok {
		return
	}
	slot := &s.pool[pi]
	s.cfg.Reset(slot)
	slot.Index = Unbound
	slot.ID = ""
	slot.Expanded = false
	slot.Content = ""
	delete(s.bound, index)
}

// bind takes any free slot for the record index. When the pool is
// exhausted the record stays unrendered; this is degraded but non-fatal
// and self-heals on the next range recompute once slots free up.
func (s *Scroller) bind(index int) {
	rec, ok := s.store.Report(index)
	if !ok {
		return
	}
	pi := s.freeSlot()
	if pi < 0 {
		debug.Warn("scroll: pool exhausted (%d slots), record %d left unrendered",
			s.cfg.PoolSize, index)
		return
	}
	slot := &s.pool[pi]
	s.cfg.Reset(slot)
	slot.Index = index
	slot.ID = rec.ID
	slot.Expanded = s.store.IsExpanded(rec.ID)
	if !s.cfg.Populate(slot, rec) {
		debug.Warn("scroll: populate failed for record %s, skipping", rec.ID)
		slot.Index = Unbound
		slot.ID = ""
		slot.Expanded = false
		slot.Content = ""
		return
	}
	s.bound[index] = pi
}

func (s *Scroller) freeSlot() int {
	for i := range s.pool {
		if !s.pool[i].Active() {
			return i
		}
	}
	return -1
}

// recomputeSpacers derives both spacer heights from cumulative estimated
// heights outside the current window.
func (s *Scroller) recomputeSpacers() {
	top := 0
	for i := 0; i < s.rangeStart; i++ {
		top += s.heightAt(i)
	}
	bottom := 0
	for i := s.rangeEnd; i < s.store.Len(); i++ {
		bottom += s.heightAt(i)
	}
	s.topSpacer, s.botSpacer = top, bottom
}

// OnItemExpanded records the expansion of a report and adjusts estimated
// heights. Expansion changes total height but not which records are in
// view, so only the spacers are recomputed, not the whole window.
func (s *Scroller) OnItemExpanded(id string) {
	s.store.SetExpanded(id, true)
	s.setSlotExpanded(id, true)
	s.recomputeSpacers()
}

// OnItemCollapsed records the collapse of a report.
func (s *Scroller) OnItemCollapsed(id string) {
	s.store.SetExpanded(id, false)
	s.setSlotExpanded(id, false)
	s.recomputeSpacers()
}

func (s *Scroller) setSlotExpanded(id string, expanded bool) {
	for pi := range s.pool {
		slot := &s.pool[pi]
		if slot.Active() && slot.ID == id {
			slot.Expanded = expanded
			if rec, ok := s.store.Report(slot.Index); ok {
				s.cfg.Reset(slot)
				slot.Expanded = expanded
				if !s.cfg.Populate(slot, rec) {
					debug.Warn("scroll: repopulate failed for record %s", id)
				}
			}
			return
		}
	}
}

// NearEnd reports whether the window end is within threshold records of the
// end of the known sequence; the host uses it to trigger a load-more.
func (s *Scroller) NearEnd(threshold int) bool {
	if threshold < 0 {
		threshold = 0
	}
	return s.rangeEnd+threshold >= s.store.Len()
}
