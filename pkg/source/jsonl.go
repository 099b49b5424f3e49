package source

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/mwoudstra/winnow/pkg/debug"
	"github.com/mwoudstra/winnow/pkg/model"
)

// maxLineBytes bounds a single JSONL record; reports with very large
// bodies still fit, corrupt lines do not take the process down.
const maxLineBytes = 4 * 1024 * 1024

// JSONLSource serves the paginated query contract from a local JSONL file,
// one report per line. The file is loaded into memory once and filtered
// per query; Reload picks up external edits (the watcher calls it before a
// refetch).
type JSONLSource struct {
	path    string
	records []model.Report
}

// NewJSONL loads a report feed from a JSONL file.
func NewJSONL(path string) (*JSONLSource, error) {
	s := &JSONLSource{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *JSONLSource) Path() string {
	return s.path
}

// Len returns the number of loaded records.
func (s *JSONLSource) Len() int {
	return len(s.records)
}

// Reload re-reads the backing file. Malformed lines are skipped with a
// warning rather than failing the whole load; the record order is newest
// first, matching the remote endpoint.
func (s *JSONLSource) Reload() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("opening report feed: %w", err)
	}
	defer f.Close()

	var records []model.Report
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var r model.Report
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			debug.Warn("source: %s:%d: skipping malformed record: %v", s.path, lineNo, err)
			continue
		}
		if err := r.Validate(); err != nil {
			debug.Warn("source: %s:%d: skipping invalid record: %v", s.path, lineNo, err)
			continue
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading report feed: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	s.records = records
	debug.Log("source: loaded %d records from %s", len(records), s.path)
	return nil
}

// FetchPage filters and pages the in-memory records.
func (s *JSONLSource) FetchPage(ctx context.Context, q model.Query) (model.Page, error) {
	if err := ctx.Err(); err != nil {
		return model.Page{}, err
	}
	var filtered []model.Report
	for _, r := range s.records {
		if matches(r, q.Filters) {
			filtered = append(filtered, r)
		}
	}
	return paginate(filtered, q.Offset, q.Limit), nil
}
