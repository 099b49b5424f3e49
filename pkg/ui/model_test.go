package ui

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwoudstra/winnow/pkg/config"
	"github.com/mwoudstra/winnow/pkg/testutil"
)

type reloadableSource struct {
	*testutil.MemorySource
	reloads int
}

func (s *reloadableSource) Reload() error {
	s.reloads++
	return nil
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.List.PageSize = 15
	cfg.UI.SearchDebounce = time.Millisecond
	return cfg
}

func newTestModel(t *testing.T, records int) (Model, *testutil.MemorySource) {
	t.Helper()
	src := testutil.NewMemorySource(testutil.GenerateReports(records))
	m := New(Options{Config: testConfig(), Source: src, FeedName: "test"})
	return m, src
}

// collect executes a command tree and returns its messages, dropping
// spinner ticks to keep test message flows finite.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	var msgs []tea.Msg
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, sub := range msg {
			msgs = append(msgs, collect(sub)...)
		}
	case spinner.TickMsg:
	default:
		msgs = append(msgs, msg)
	}
	return msgs
}

// drive feeds a command's messages back through Update until quiescent.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		tm, next := m.Update(msg)
		m = tm.(Model)
		m = drive(t, m, next)
	}
	return m
}

func resize(m Model, width, height int) Model {
	tm, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return tm.(Model)
}

func TestInitialPageFlow(t *testing.T) {
	m, src := newTestModel(t, 40)
	m = resize(m, 80, 24)
	m = drive(t, m, m.Init())

	if got := m.Store().Len(); got != 15 {
		t.Fatalf("loaded %d records, want first page of 15", got)
	}
	if src.FetchCount() != 1 {
		t.Errorf("initial load fetched %d times, want 1", src.FetchCount())
	}
	if m.selected != 0 {
		t.Errorf("selection = %d, want first record", m.selected)
	}
	if m.Scroller().ActiveCount() == 0 {
		t.Errorf("no active slots after initial load")
	}
	if m.Store().Pagination().IsLoading {
		t.Errorf("loading flag stuck after applied page")
	}
}

func TestResizeBeforeDataIsSafe(t *testing.T) {
	m, _ := newTestModel(t, 0)
	m = resize(m, 80, 24)
	if m.View() == "" {
		t.Errorf("empty view after resize")
	}
	m = drive(t, m, m.Init())
	if m.Store().Len() != 0 {
		t.Errorf("empty feed produced %d records", m.Store().Len())
	}
	_ = m.View()
}

func TestEndKeyLoadsMore(t *testing.T) {
	m, _ := newTestModel(t, 40)
	m = resize(m, 80, 24)
	m = drive(t, m, m.Init())

	tm, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})
	m = tm.(Model)
	if cmd == nil {
		t.Fatalf("jumping to the last known record should trigger a load-more")
	}
	m = drive(t, m, cmd)

	if got := m.Store().Len(); got != 30 {
		t.Errorf("after load-more have %d records, want 30", got)
	}
}

func TestSearchDebounceCoalesces(t *testing.T) {
	m, src := newTestModel(t, 40)
	m = resize(m, 80, 24)
	m = drive(t, m, m.Init())
	baseline := src.FetchCount()

	tm, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	m = tm.(Model)
	if !m.searchFocused {
		t.Fatalf("search not focused after /")
	}

	// Three rapid keystrokes, each arming its own coalescing tick.
	var ticks []tea.Cmd
	for _, r := range "wat" {
		var cmd tea.Cmd
		tm, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = tm.(Model)
		ticks = append(ticks, cmd)
	}
	if got := m.Store().Filters().Search; got != "wat" {
		t.Fatalf("search filter = %q after keystrokes, want %q", got, "wat")
	}

	// All three ticks fire; only the one carrying the latest sequence
	// number may apply.
	for _, tick := range ticks {
		m = drive(t, m, tick)
	}

	if got := src.FetchCount() - baseline; got != 1 {
		t.Errorf("three keystrokes issued %d fetches, want exactly 1", got)
	}
	queries := src.Queries()
	last := queries[len(queries)-1]
	if last.Filters.Search != "wat" || last.Offset != 0 {
		t.Errorf("applied query = offset %d search %q, want 0/%q",
			last.Offset, last.Filters.Search, "wat")
	}
}

func TestSearchEnterAppliesImmediately(t *testing.T) {
	m, src := newTestModel(t, 40)
	m = resize(m, 80, 24)
	m = drive(t, m, m.Init())
	baseline := src.FetchCount()

	tm, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	m = tm.(Model)
	tm, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	m = tm.(Model)
	tm, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = tm.(Model)
	m = drive(t, m, cmd)

	if m.searchFocused {
		t.Errorf("search still focused after enter")
	}
	// The keystroke tick is now stale; even if it fires nothing happens.
	tm, late := m.Update(searchDebounceMsg{seq: m.searchSeq - 1})
	m = tm.(Model)
	if late != nil {
		t.Errorf("stale debounce tick produced a command")
	}
	if got := src.FetchCount() - baseline; got != 1 {
		t.Errorf("enter issued %d fetches, want 1", got)
	}
}

func TestExpandCollapseKeys(t *testing.T) {
	m, _ := newTestModel(t, 20)
	m = resize(m, 80, 24)
	m = drive(t, m, m.Init())

	tm, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = tm.(Model)
	if m.Store().ExpandedCount() != 1 {
		t.Fatalf("expanded count = %d after enter, want 1", m.Store().ExpandedCount())
	}
	tm, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = tm.(Model)
	if m.Store().ExpandedCount() != 0 {
		t.Errorf("expanded count = %d after second enter, want 0", m.Store().ExpandedCount())
	}
}

func TestCategoryKeyTogglesFilter(t *testing.T) {
	m, src := newTestModel(t, 40)
	m = resize(m, 80, 24)
	m = drive(t, m, m.Init())

	rec, _ := m.Store().Report(0)
	tm, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	m = tm.(Model)
	m = drive(t, m, cmd)

	f := m.Store().Filters()
	if _, ok := f.Categories[rec.Category]; !ok {
		t.Fatalf("category %q not in filter after c", rec.Category)
	}
	queries := src.Queries()
	if queries[len(queries)-1].Offset != 0 {
		t.Errorf("refilter fetch did not restart at offset 0")
	}
}

func TestResolvedCycle(t *testing.T) {
	m, _ := newTestModel(t, 20)
	m = resize(m, 80, 24)
	m = drive(t, m, m.Init())

	press := func() {
		tm, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
		m = tm.(Model)
		m = drive(t, m, cmd)
	}

	press()
	if r := m.Store().Filters().Resolved; r == nil || *r {
		t.Fatalf("first press should filter to open only, got %v", r)
	}
	press()
	if r := m.Store().Filters().Resolved; r == nil || !*r {
		t.Fatalf("second press should filter to resolved only, got %v", r)
	}
	press()
	if r := m.Store().Filters().Resolved; r != nil {
		t.Fatalf("third press should clear the resolved filter, got %v", *r)
	}
}

func TestFeedChangedReloadsSource(t *testing.T) {
	src := &reloadableSource{MemorySource: testutil.NewMemorySource(testutil.GenerateReports(10))}
	m := New(Options{Config: testConfig(), Source: src, FeedName: "local"})
	m = resize(m, 80, 24)
	m = drive(t, m, m.Init())

	tm, cmd := m.Update(FeedChangedMsg{})
	m = tm.(Model)
	if src.reloads != 1 {
		t.Fatalf("source reloaded %d times, want 1", src.reloads)
	}
	m = drive(t, m, cmd)
	if m.Store().Len() != 10 {
		t.Errorf("records after reload = %d, want 10", m.Store().Len())
	}
}

func TestClearFiltersKey(t *testing.T) {
	m, src := newTestModel(t, 40)
	m = resize(m, 80, 24)
	m = drive(t, m, m.Init())

	tm, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	m = tm.(Model)
	m = drive(t, m, cmd)
	if m.Store().Filters().IsZero() {
		t.Fatalf("category filter did not apply")
	}

	tm, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'F'}})
	m = tm.(Model)
	m = drive(t, m, cmd)
	if !m.Store().Filters().IsZero() {
		t.Errorf("filters not cleared: %+v", m.Store().Filters())
	}
	queries := src.Queries()
	if !queries[len(queries)-1].Filters.IsZero() {
		t.Errorf("refetch after clear still carried filters")
	}
}
