package source

import (
	"testing"
	"time"

	"github.com/mwoudstra/winnow/pkg/model"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		target string
		want   string
		err    bool
	}{
		{target: "https://api.example.org/reports", want: "*source.HTTPSource"},
		{target: "http://localhost:8080/reports", want: "*source.HTTPSource"},
		{target: "/var/lib/reports.jsonl", err: true}, // file missing
		{target: "reports.csv", err: true},
		{target: "", err: true},
	}
	for _, tc := range cases {
		src, err := Detect(tc.target)
		if tc.err {
			if err == nil {
				t.Errorf("Detect(%q): expected error, got %T", tc.target, src)
			}
			continue
		}
		if err != nil {
			t.Errorf("Detect(%q): %v", tc.target, err)
			continue
		}
		if got := typeName(src); got != tc.want {
			t.Errorf("Detect(%q) = %s, want %s", tc.target, got, tc.want)
		}
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *HTTPSource:
		return "*source.HTTPSource"
	case *SQLiteSource:
		return "*source.SQLiteSource"
	case *JSONLSource:
		return "*source.JSONLSource"
	}
	return "?"
}

func TestMatches(t *testing.T) {
	rec := model.Report{
		ID:        "rpt-0001",
		Title:     "Burst Water Main",
		Body:      "Flooding on Elm Street near the depot.",
		Category:  "water",
		Region:    "north",
		Resolved:  false,
		CreatedAt: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	}
	open := false
	closed := true

	cases := []struct {
		name   string
		mutate func(*model.FilterState)
		want   bool
	}{
		{"empty filters", func(f *model.FilterState) {}, true},
		{"search title case-insensitive", func(f *model.FilterState) { f.Search = "WATER MAIN" }, true},
		{"search body", func(f *model.FilterState) { f.Search = "elm street" }, true},
		{"search miss", func(f *model.FilterState) { f.Search = "power line" }, false},
		{"from inclusive", func(f *model.FilterState) { f.DateFrom = "2026-03-10" }, true},
		{"from excludes earlier", func(f *model.FilterState) { f.DateFrom = "2026-03-11" }, false},
		{"until inclusive", func(f *model.FilterState) { f.DateUntil = "2026-03-10" }, true},
		{"until excludes later", func(f *model.FilterState) { f.DateUntil = "2026-03-09" }, false},
		{"resolved wanted open", func(f *model.FilterState) { f.Resolved = &open }, true},
		{"resolved wanted closed", func(f *model.FilterState) { f.Resolved = &closed }, false},
		{"category member", func(f *model.FilterState) { f.Categories["water"] = struct{}{} }, true},
		{"category non-member", func(f *model.FilterState) { f.Categories["roads"] = struct{}{} }, false},
		{"category union", func(f *model.FilterState) {
			f.Categories["roads"] = struct{}{}
			f.Categories["water"] = struct{}{}
		}, true},
		{"region member", func(f *model.FilterState) { f.Regions["north"] = struct{}{} }, true},
		{"region non-member", func(f *model.FilterState) { f.Regions["south"] = struct{}{} }, false},
		{"conjunction fails on one field", func(f *model.FilterState) {
			f.Search = "water"
			f.Regions["south"] = struct{}{}
		}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := model.DefaultFilters()
			tc.mutate(&f)
			if got := matches(rec, f); got != tc.want {
				t.Errorf("matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	records := make([]model.Report, 10)
	for i := range records {
		records[i].ID = string(rune('a' + i))
	}

	cases := []struct {
		name          string
		offset, limit int
		wantLen       int
		wantFirst     string
	}{
		{"first page", 0, 4, 4, "a"},
		{"middle page", 4, 4, 4, "e"},
		{"short final page", 8, 4, 2, "i"},
		{"offset past end", 20, 4, 0, ""},
		{"negative offset clamped", -3, 4, 4, "a"},
		{"zero limit returns rest", 2, 0, 8, "c"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page := paginate(records, tc.offset, tc.limit)
			if page.Metadata.Total != 10 {
				t.Errorf("total = %d, want 10", page.Metadata.Total)
			}
			if len(page.Data) != tc.wantLen {
				t.Fatalf("len = %d, want %d", len(page.Data), tc.wantLen)
			}
			if tc.wantLen > 0 && page.Data[0].ID != tc.wantFirst {
				t.Errorf("first = %q, want %q", page.Data[0].ID, tc.wantFirst)
			}
		})
	}
}
