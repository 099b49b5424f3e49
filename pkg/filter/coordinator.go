// Package filter coordinates filter changes with the rest of the engine.
// Mutation and reconciliation are deliberately decoupled: callers mutate
// any number of filter fields through the store, then call Apply once to
// reset pagination, invalidate in-flight requests, and refetch from
// offset 0.
package filter

import (
	"context"
	"fmt"

	"github.com/mwoudstra/winnow/pkg/loader"
	"github.com/mwoudstra/winnow/pkg/scroll"
	"github.com/mwoudstra/winnow/pkg/store"
)

// Tag is one user-visible "active filter" chip.
type Tag struct {
	Field string // which filter the chip belongs to ("search", "category", ...)
	Value string // the raw filter value, used to remove the filter
	Label string // rendered chip text
}

// Coordinator applies filter state to the loader and scroller.
type Coordinator struct {
	store    *store.Store
	loader   *loader.Loader
	scroller *scroll.Scroller
}

// New wires a coordinator to the engine components it reconciles.
func New(st *store.Store, ld *loader.Loader, sc *scroll.Scroller) *Coordinator {
	return &Coordinator{store: st, loader: ld, scroller: sc}
}

// Begin starts a filter application: pagination is reset and the record
// cache and expanded set are cleared before the new fetch is issued, and
// the epoch bump inside StartRefresh invalidates anything still in flight.
// The returned request goes through Loader.Do, then Finish.
func (c *Coordinator) Begin() loader.Request {
	c.store.ResetPagination()
	c.store.ClearReports()
	return c.loader.StartRefresh()
}

// Finish applies a refetch result and, when it was not superseded,
// reconciles the scroller against the replaced record set.
func (c *Coordinator) Finish(res loader.Result) bool {
	applied := c.loader.Apply(res)
	if applied {
		c.scroller.Refresh()
	}
	return applied
}

// Apply runs the whole filter application synchronously.
func (c *Coordinator) Apply(ctx context.Context) error {
	req := c.Begin()
	res := c.loader.Do(ctx, req)
	if c.Finish(res) {
		return nil
	}
	if res.Err != nil && res.Request.Epoch == c.loader.Epoch() {
		return res.Err
	}
	return nil
}

// Reset restores the default filter shape. Like any other mutation it
// takes effect on the next Apply.
func (c *Coordinator) Reset() {
	c.store.ResetFilters()
}

// Tags renders the current filter state as active-filter chips, one per
// scalar filter and one per multi-value member, in stable order.
func (c *Coordinator) Tags() []Tag {
	f := c.store.Filters()
	var tags []Tag
	if f.Search != "" {
		tags = append(tags, Tag{Field: "search", Value: f.Search,
			Label: fmt.Sprintf("search:%q", f.Search)})
	}
	if f.DateFrom != "" {
		tags = append(tags, Tag{Field: "from", Value: f.DateFrom,
			Label: "from:" + f.DateFrom})
	}
	if f.DateUntil != "" {
		tags = append(tags, Tag{Field: "until", Value: f.DateUntil,
			Label: "until:" + f.DateUntil})
	}
	if f.Resolved != nil {
		label := "open"
		if *f.Resolved {
			label = "resolved"
		}
		tags = append(tags, Tag{Field: "resolved", Value: label, Label: label})
	}
	for _, cat := range f.SortedCategories() {
		tags = append(tags, Tag{Field: "category", Value: cat, Label: "cat:" + cat})
	}
	for _, reg := range f.SortedRegions() {
		tags = append(tags, Tag{Field: "region", Value: reg, Label: "reg:" + reg})
	}
	return tags
}
