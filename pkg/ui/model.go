// Package ui provides the terminal user interface for winnow: a windowed,
// filterable report list backed by the store/loader/scroller engine. The
// bubbletea update loop is the single control flow all engine mutation
// runs on; fetches execute inside commands and re-enter the loop as
// messages.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwoudstra/winnow/pkg/config"
	"github.com/mwoudstra/winnow/pkg/debug"
	"github.com/mwoudstra/winnow/pkg/filter"
	"github.com/mwoudstra/winnow/pkg/loader"
	"github.com/mwoudstra/winnow/pkg/scroll"
	"github.com/mwoudstra/winnow/pkg/source"
	"github.com/mwoudstra/winnow/pkg/store"
)

// chromeHeight is the number of rows taken by header, chips, search and
// footer around the viewport.
const chromeHeight = 4

// pageMsg carries a completed fetch back into the update loop.
type pageMsg struct {
	res      loader.Result
	refilter bool
}

// searchDebounceMsg fires when the search coalescing window elapses; only
// the message matching the latest keystroke sequence triggers an apply.
type searchDebounceMsg struct {
	seq int
}

// FeedChangedMsg is sent from outside the program (the file watcher) when
// the local feed file changed on disk.
type FeedChangedMsg struct{}

// Options wires a Model to its collaborators.
type Options struct {
	Config   config.Config
	Store    *store.Store
	Source   source.Source
	FeedName string
}

// Model is the bubbletea model for the report browser.
type Model struct {
	cfg   config.Config
	theme Theme

	store       *store.Store
	loader      *loader.Loader
	scroller    *scroll.Scroller
	coordinator *filter.Coordinator
	renderer    *RowRenderer
	surface     *surfaceGeom
	src         source.Source

	viewport viewport.Model
	search   textinput.Model
	spin     spinner.Model

	feedName      string
	width, height int
	ready         bool
	searchFocused bool
	selected      int
	searchSeq     int
	statusMsg     string
}

// New builds the model and its engine components.
func New(opts Options) Model {
	cfg := opts.Config
	theme := ThemeByName(cfg.UI.Theme)

	st := opts.Store
	if st == nil {
		st = store.New()
	}
	surface := &surfaceGeom{extent: 1}
	renderer := NewRowRenderer(theme, 80, cfg.List.CollapsedHeight, cfg.List.ExpandedHeight)
	sc := scroll.New(st, surface, scroll.Config{
		PoolSize:        cfg.List.PoolSize,
		BufferRows:      cfg.List.BufferRows,
		CollapsedHeight: cfg.List.CollapsedHeight,
		ExpandedHeight:  cfg.List.ExpandedHeight,
		Populate:        renderer.Populate,
		Reset:           renderer.Reset,
	})
	ld := loader.New(st, opts.Source, cfg.List.PageSize)
	coord := filter.New(st, ld, sc)

	search := textinput.New()
	search.Placeholder = "search reports…"
	search.Prompt = "/ "
	search.CharLimit = 120

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot

	return Model{
		cfg:         cfg,
		theme:       theme,
		store:       st,
		loader:      ld,
		scroller:    sc,
		coordinator: coord,
		renderer:    renderer,
		surface:     surface,
		src:         opts.Source,
		search:      search,
		spin:        spin,
		feedName:    opts.FeedName,
		selected:    -1,
	}
}

// Store exposes the underlying store, for tests and host wiring.
func (m Model) Store() *store.Store {
	return m.store
}

// Loader exposes the underlying loader.
func (m Model) Loader() *loader.Loader {
	return m.loader
}

// Scroller exposes the underlying scroller.
func (m Model) Scroller() *scroll.Scroller {
	return m.scroller
}

// Init issues the initial page fetch.
func (m Model) Init() tea.Cmd {
	return m.refilterCmd()
}

// refilterCmd begins a fresh-epoch page-0 fetch (initial load, filter
// apply, feed reload) and runs it in a command goroutine.
func (m Model) refilterCmd() tea.Cmd {
	req := m.coordinator.Begin()
	ld := m.loader
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		return pageMsg{res: ld.Do(context.Background(), req), refilter: true}
	})
}

// loadMoreCmd begins a load-more fetch; nil when one is already in flight
// or the feed is exhausted.
func (m Model) loadMoreCmd() tea.Cmd {
	req, ok := m.loader.StartLoadMore()
	if !ok {
		return nil
	}
	ld := m.loader
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		return pageMsg{res: ld.Do(context.Background(), req)}
	})
}

// Update is the single control flow for all engine mutation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case pageMsg:
		return m.handlePage(msg)

	case searchDebounceMsg:
		if msg.seq != m.searchSeq {
			return m, nil // superseded by a later keystroke
		}
		return m, m.refilterCmd()

	case FeedChangedMsg:
		if r, ok := m.src.(source.Reloadable); ok {
			if err := r.Reload(); err != nil {
				m.statusMsg = "reload failed: " + err.Error()
				return m, nil
			}
		}
		m.statusMsg = "feed changed, reloading"
		return m, m.refilterCmd()

	case spinner.TickMsg:
		if !m.store.Pagination().IsLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width, m.height = msg.Width, msg.Height
	bodyHeight := msg.Height - chromeHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(msg.Width, bodyHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = bodyHeight
	}
	m.renderer.SetWidth(msg.Width)
	m.search.Width = msg.Width - 4
	m.refreshWindow()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searchFocused {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "/":
		m.searchFocused = true
		m.search.Focus()
		return m, textinput.Blink

	case "j", "down":
		m = m.moveSelection(1)
		return m, m.maybeLoadMore()
	case "k", "up":
		return m.moveSelection(-1), nil
	case "g", "home":
		return m.selectIndex(0), nil
	case "G", "end":
		m = m.selectIndex(m.store.Len() - 1)
		return m, m.maybeLoadMore()

	case "pgdown", "ctrl+d":
		m.viewport.YOffset += m.viewport.Height
		m = m.afterScroll()
		return m, m.maybeLoadMore()
	case "pgup", "ctrl+u":
		m.viewport.YOffset -= m.viewport.Height
		if m.viewport.YOffset < 0 {
			m.viewport.YOffset = 0
		}
		m = m.afterScroll()
		return m, nil

	case "enter", " ":
		return m.toggleExpand(), nil

	case "y":
		return m.yankSelected(), nil

	case "c":
		return m.filterBySelected(store.PathFilterCategories)
	case "v":
		return m.filterBySelected(store.PathFilterRegions)
	case "x":
		return m.cycleResolved()
	case "F":
		m.coordinator.Reset()
		m.statusMsg = "filters cleared"
		return m, m.refilterCmd()
	case "r":
		m.statusMsg = "refreshing"
		return m, m.refilterCmd()
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchFocused = false
		m.search.Blur()
		return m, nil
	case "enter":
		// Immediate apply; also invalidates any pending debounce tick.
		m.searchFocused = false
		m.search.Blur()
		m.searchSeq++
		if err := m.store.SetFilter(store.PathFilterSearch, m.search.Value()); err != nil {
			debug.Warn("ui: set search filter: %v", err)
		}
		return m, m.refilterCmd()
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}

	// Mutate the filter now, reconcile after the coalescing window: any
	// number of keystrokes inside it issue exactly one apply.
	if err := m.store.SetFilter(store.PathFilterSearch, m.search.Value()); err != nil {
		debug.Warn("ui: set search filter: %v", err)
	}
	m.searchSeq++
	seq := m.searchSeq
	return m, tea.Batch(cmd, tea.Tick(m.cfg.UI.SearchDebounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{seq: seq}
	}))
}

func (m Model) handlePage(msg pageMsg) (tea.Model, tea.Cmd) {
	var applied bool
	if msg.refilter {
		applied = m.coordinator.Finish(msg.res)
		if applied {
			m.selected = -1
			m.viewport.YOffset = 0
		}
	} else {
		applied = m.loader.Apply(msg.res)
		if applied {
			m.scroller.Refresh()
		}
	}
	if !applied {
		// Stale (superseded) or failed fetch; the loader already
		// surfaced any error through the store.
		m.refreshWindow()
		return m, nil
	}

	m.statusMsg = ""
	if m.selected < 0 && m.store.Len() > 0 {
		m.selected = 0
		m.renderer.SetSelected(0)
	}
	m.refreshWindow()

	// On-demand fill: when the viewport still is not covered by known
	// records, pull one more page through the single-flight gate.
	if m.scroller.TotalHeight() < m.surface.ViewportExtent() {
		return m, m.loadMoreCmd()
	}
	return m, nil
}

// refreshWindow syncs surface geometry from the viewport, forces a full
// reconcile and rebuilds the viewport content.
func (m *Model) refreshWindow() {
	if !m.ready {
		return
	}
	m.clampScroll()
	m.surface.offset = m.viewport.YOffset
	m.surface.extent = m.viewport.Height
	m.renderer.SetSelected(m.selected)
	m.scroller.Refresh()
	m.viewport.SetContent(m.buildContent())
}

// afterScroll recomputes the window after a scroll offset change only;
// unchanged ranges cost nothing.
func (m Model) afterScroll() Model {
	m.clampScroll()
	m.surface.offset = m.viewport.YOffset
	m.surface.extent = m.viewport.Height
	m.scroller.OnScroll()
	m.viewport.SetContent(m.buildContent())
	return m
}

func (m *Model) clampScroll() {
	max := m.scroller.TotalHeight() - m.viewport.Height
	if max < 0 {
		max = 0
	}
	if m.viewport.YOffset > max {
		m.viewport.YOffset = max
	}
	if m.viewport.YOffset < 0 {
		m.viewport.YOffset = 0
	}
}

// maybeLoadMore triggers a load-more once the window approaches the end of
// the known records.
func (m Model) maybeLoadMore() tea.Cmd {
	if !m.scroller.NearEnd(m.cfg.UI.LoadMoreRows) {
		return nil
	}
	return m.loadMoreCmd()
}

// buildContent assembles the viewport content: a blank top spacer, the
// active slots in record order, and a blank bottom spacer, so the viewport
// scrolls through the estimated height of the whole feed while only the
// pooled rows carry real content.
func (m Model) buildContent() string {
	top, bottom := m.scroller.Spacers()
	lines := make([]string, 0, top+bottom+1)
	for i := 0; i < top; i++ {
		lines = append(lines, "")
	}
	for _, slot := range m.scroller.ActiveSlots() {
		lines = append(lines, strings.Split(slot.Content, "\n")...)
	}
	for i := 0; i < bottom; i++ {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) moveSelection(delta int) Model {
	return m.selectIndex(m.selected + delta)
}

func (m Model) selectIndex(index int) Model {
	n := m.store.Len()
	if n == 0 {
		return m
	}
	if index < 0 {
		index = 0
	}
	if index >= n {
		index = n - 1
	}
	if index == m.selected {
		return m
	}
	m.selected = index
	m.ensureVisible(index)
	m.refreshWindow()
	return m
}

// ensureVisible scrolls the viewport so the selected record's estimated
// row range is fully in view.
func (m *Model) ensureVisible(index int) {
	top := 0
	for i := 0; i < index; i++ {
		top += m.rowHeight(i)
	}
	bottom := top + m.rowHeight(index)
	if top < m.viewport.YOffset {
		m.viewport.YOffset = top
	} else if bottom > m.viewport.YOffset+m.viewport.Height {
		m.viewport.YOffset = bottom - m.viewport.Height
	}
}

func (m Model) rowHeight(index int) int {
	if rec, ok := m.store.Report(index); ok && m.store.IsExpanded(rec.ID) {
		return m.cfg.List.ExpandedHeight
	}
	return m.cfg.List.CollapsedHeight
}

func (m Model) toggleExpand() Model {
	rec, ok := m.store.Report(m.selected)
	if !ok {
		return m
	}
	if m.store.IsExpanded(rec.ID) {
		m.scroller.OnItemCollapsed(rec.ID)
	} else {
		m.scroller.OnItemExpanded(rec.ID)
	}
	m.ensureVisible(m.selected)
	m.refreshWindow()
	return m
}

func (m Model) yankSelected() Model {
	rec, ok := m.store.Report(m.selected)
	if !ok {
		return m
	}
	if err := clipboard.WriteAll(rec.ID); err != nil {
		m.statusMsg = "clipboard unavailable"
		return m
	}
	m.statusMsg = "yanked " + rec.ID
	return m
}

// filterBySelected toggles the selected record's category or region in the
// corresponding multi-value filter, then applies.
func (m Model) filterBySelected(path string) (tea.Model, tea.Cmd) {
	rec, ok := m.store.Report(m.selected)
	if !ok {
		return m, nil
	}
	value := rec.Category
	if path == store.PathFilterRegions {
		value = rec.Region
	}
	if value == "" {
		return m, nil
	}
	f := m.store.Filters()
	present := false
	switch path {
	case store.PathFilterCategories:
		_, present = f.Categories[value]
	case store.PathFilterRegions:
		_, present = f.Regions[value]
	}
	var err error
	if present {
		err = m.store.RemoveFromFilter(path, value)
	} else {
		err = m.store.AddToFilter(path, value)
	}
	if err != nil {
		debug.Warn("ui: toggle filter: %v", err)
		return m, nil
	}
	return m, m.refilterCmd()
}

// cycleResolved steps the resolved filter through both -> open -> resolved.
func (m Model) cycleResolved() (tea.Model, tea.Cmd) {
	var next any
	switch cur := m.store.Filters().Resolved; {
	case cur == nil:
		next = false // open only
	case !*cur:
		next = true // resolved only
	default:
		next = nil // both
	}
	if err := m.store.SetFilter(store.PathFilterResolved, next); err != nil {
		debug.Warn("ui: cycle resolved: %v", err)
		return m, nil
	}
	return m, m.refilterCmd()
}

// View renders header, filter chips, the windowed list and the footer.
func (m Model) View() string {
	if !m.ready {
		return "loading…"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderChips())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	p := m.store.Pagination()
	name := m.feedName
	if name == "" {
		name = "reports"
	}
	left := m.theme.Header.Render(name)
	count := fmt.Sprintf("%d of %d", m.store.Len(), p.Total)
	if p.IsLoading {
		count = m.spin.View() + " " + count
	}
	right := m.theme.Status.Render(count)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderChips() string {
	if m.searchFocused {
		return m.search.View()
	}
	if err := m.store.LastError(); err != "" {
		return m.theme.Error.Render(truncate("error: "+err, m.width-2))
	}
	show := m.cfg.UI.ShowFilterChips
	if show != nil && !*show {
		return ""
	}
	tags := m.coordinator.Tags()
	if len(tags) == 0 {
		return m.theme.Muted.Render("no filters")
	}
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = m.theme.Chip.Render(tag.Label)
	}
	return truncate(strings.Join(parts, " "), m.width-2)
}

func (m Model) renderFooter() string {
	if m.statusMsg != "" {
		return m.theme.Status.Render(truncate(m.statusMsg, m.width-2))
	}
	help := "j/k move · enter expand · / search · c/v/x filter · F clear · r refresh · q quit"
	return m.theme.Muted.Render(truncate(help, m.width-2))
}
