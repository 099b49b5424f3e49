// Package source provides the paginated query backends that feed the
// report list: a remote HTTP endpoint, a local read-only SQLite database,
// and a local JSONL file. All three serve the same contract — a filtered
// page of records plus a server-side total — so the loader never knows
// which one it is talking to.
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwoudstra/winnow/pkg/model"
)

// Source serves one page of a filtered report query.
type Source interface {
	FetchPage(ctx context.Context, q model.Query) (model.Page, error)
}

// Reloadable is implemented by local sources whose backing file can change
// underneath them; the watcher calls Reload before refetching.
type Reloadable interface {
	Reload() error
}

// Detect picks a source implementation for a feed target: an http(s) URL,
// a .db/.sqlite database path, or a .jsonl file path.
func Detect(target string) (Source, error) {
	switch {
	case strings.HasPrefix(target, "http://"), strings.HasPrefix(target, "https://"):
		return NewHTTP(target), nil
	case strings.HasSuffix(target, ".db"),
		strings.HasSuffix(target, ".sqlite"),
		strings.HasSuffix(target, ".sqlite3"):
		return NewSQLite(target)
	case strings.HasSuffix(target, ".jsonl"):
		return NewJSONL(target)
	}
	return nil, fmt.Errorf("source: cannot detect feed type for %q (want http(s) URL, .db or .jsonl)", target)
}

// matches applies the filter state to a single record, mirroring the
// server-side semantics of the HTTP endpoint so local sources behave
// identically. Dates compare as ISO strings against the record's creation
// date, both bounds inclusive.
func matches(r model.Report, f model.FilterState) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Title), needle) &&
			!strings.Contains(strings.ToLower(r.Body), needle) {
			return false
		}
	}
	day := r.CreatedAt.Format("2006-01-02")
	if f.DateFrom != "" && day < f.DateFrom {
		return false
	}
	if f.DateUntil != "" && day > f.DateUntil {
		return false
	}
	if f.Resolved != nil && r.Resolved != *f.Resolved {
		return false
	}
	if len(f.Categories) > 0 {
		if _, ok := f.Categories[r.Category]; !ok {
			return false
		}
	}
	if len(f.Regions) > 0 {
		if _, ok := f.Regions[r.Region]; !ok {
			return false
		}
	}
	return true
}

// paginate slices one page out of an already-filtered record sequence.
func paginate(records []model.Report, offset, limit int) model.Page {
	total := len(records)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	page := model.Page{Metadata: model.Metadata{Total: total}}
	page.Data = append(page.Data, records[offset:end]...)
	return page
}
