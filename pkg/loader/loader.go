// Package loader drives incremental, network-backed loading of the report
// feed: the initial page, load-more-on-scroll appends, and filter-triggered
// refetches.
//
// Concurrency control is built from two pieces:
//
//   - A request epoch: every request captures the epoch at issue time, and
//     its response is applied only if that epoch is still current. A filter
//     change bumps the epoch before fetching, atomically invalidating any
//     still-pending older request. Superseded responses are discarded
//     silently; no transport-level cancellation is assumed.
//
//   - A single-flight flag (pagination.isLoading in the store): at most one
//     request is in flight, so within an epoch responses apply in issue
//     order. A LoadMore while loading is a no-op; the in-flight request's
//     result serves both callers.
//
// The loader separates issue-time bookkeeping (Start*), the blocking fetch
// (Do, safe on any goroutine), and response application (Apply, on the
// owning control flow). LoadMore and Refresh compose the three for
// synchronous use.
package loader

import (
	"context"

	"github.com/mwoudstra/winnow/pkg/debug"
	"github.com/mwoudstra/winnow/pkg/model"
	"github.com/mwoudstra/winnow/pkg/store"
)

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 50

// Source serves paginated, filtered report queries. Implementations live in
// pkg/source; FetchPage must be pure request/response with no store access,
// as it runs off the owning control flow.
type Source interface {
	FetchPage(ctx context.Context, q model.Query) (model.Page, error)
}

// Request is the issue-time snapshot of one fetch: the captured epoch, the
// query, and whether the response replaces the record set or appends.
type Request struct {
	Epoch   int64
	Query   model.Query
	Replace bool
}

// Result pairs a request with its response. Exactly one of Page/Err is
// meaningful.
type Result struct {
	Request Request
	Page    model.Page
	Err     error
}

// Loader issues page fetches against a source and applies the responses to
// the store. Not goroutine-safe: Start*/Apply belong to the store's owning
// control flow, only Do may run elsewhere.
type Loader struct {
	store    *store.Store
	source   Source
	pageSize int
	epoch    int64
}

// New returns a loader reading cursors from and applying pages to st.
func New(st *store.Store, src Source, pageSize int) *Loader {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Loader{store: st, source: src, pageSize: pageSize}
}

// PageSize returns the configured page size.
func (l *Loader) PageSize() int {
	return l.pageSize
}

// Epoch returns the current request epoch.
func (l *Loader) Epoch() int64 {
	return l.epoch
}

// BumpEpoch advances the request epoch, invalidating every in-flight
// request issued before the call.
func (l *Loader) BumpEpoch() int64 {
	l.epoch++
	debug.Log("loader: epoch -> %d", l.epoch)
	return l.epoch
}

// StartLoadMore begins a load-more fetch if one is eligible: not already
// loading and more records known to exist. Returns ok=false without side
// effects when ineligible. On success the store is marked loading and the
// returned request must be passed to Do and then Apply.
func (l *Loader) StartLoadMore() (Request, bool) {
	p := l.store.Pagination()
	if p.IsLoading || !p.HasMore {
		return Request{}, false
	}
	l.markLoading()
	return Request{
		Epoch: l.epoch,
		Query: model.Query{
			Limit:   l.pageSize,
			Offset:  p.Offset,
			Filters: l.store.Filters(),
		},
	}, true
}

// StartRefresh begins a page-0 replace fetch under a fresh epoch. Used for
// the initial load and after any filter change; it supersedes whatever is
// still in flight.
func (l *Loader) StartRefresh() Request {
	l.BumpEpoch()
	l.markLoading()
	return Request{
		Epoch:   l.epoch,
		Replace: true,
		Query: model.Query{
			Limit:   l.pageSize,
			Filters: l.store.Filters(),
		},
	}
}

func (l *Loader) markLoading() {
	// Silent: flipping the flag must not re-render mid-operation; the
	// notification of interest is the one carrying the page itself.
	if err := l.store.SetState(map[string]any{
		store.PathIsLoading: true,
		store.PathLastError: "",
	}, true); err != nil {
		debug.Warn("loader: mark loading: %v", err)
	}
}

// Do executes the fetch for a request. Safe to call from any goroutine; it
// touches only the source, never the store.
func (l *Loader) Do(ctx context.Context, req Request) Result {
	page, err := l.source.FetchPage(ctx, req.Query)
	return Result{Request: req, Page: page, Err: err}
}

// Apply applies a fetch result to the store. A result whose captured epoch
// no longer matches the current epoch is discarded wholesale: no record
// write, no error surfacing, no loading-flag change (the superseding
// request owns the flag now). Returns true if the result was applied.
func (l *Loader) Apply(res Result) bool {
	if res.Request.Epoch != l.epoch {
		debug.Log("loader: discarding stale response (epoch %d, current %d)",
			res.Request.Epoch, l.epoch)
		return false
	}

	if res.Err != nil {
		if err := l.store.SetState(map[string]any{
			store.PathIsLoading: false,
			store.PathLastError: res.Err.Error(),
		}, false); err != nil {
			debug.Warn("loader: surface error: %v", err)
		}
		return false
	}

	l.store.AddReports(res.Page.Data, res.Request.Replace)

	// Offset advances by the number of records actually returned, not by
	// the requested page size, so a short final page closes the feed.
	offset := res.Request.Query.Offset + len(res.Page.Data)
	total := res.Page.Metadata.Total
	if err := l.store.SetState(map[string]any{
		store.PathOffset:    offset,
		store.PathTotal:     total,
		store.PathHasMore:   offset < total,
		store.PathIsLoading: false,
	}, false); err != nil {
		debug.Warn("loader: apply pagination: %v", err)
	}
	return true
}

// LoadMore fetches and applies the next page synchronously. No-ops when a
// fetch is already in flight or the feed is exhausted. Returns true if a
// page was applied.
func (l *Loader) LoadMore(ctx context.Context) (bool, error) {
	req, ok := l.StartLoadMore()
	if !ok {
		return false, nil
	}
	res := l.Do(ctx, req)
	applied := l.Apply(res)
	if res.Err != nil && res.Request.Epoch == l.epoch {
		return false, res.Err
	}
	return applied, nil
}

// Refresh fetches and applies page 0 synchronously under a fresh epoch,
// replacing the record set.
func (l *Loader) Refresh(ctx context.Context) error {
	req := l.StartRefresh()
	res := l.Do(ctx, req)
	if l.Apply(res) {
		return nil
	}
	if res.Err != nil && res.Request.Epoch == l.epoch {
		return res.Err
	}
	return nil
}
