package testutil

import (
	"context"
	"sync"

	"github.com/mwoudstra/winnow/pkg/model"
)

// MemorySource is an in-memory feed source for tests. It pages over a
// fixed record slice without server-side filtering, records every query it
// serves, and can be scripted to fail or to block until released.
type MemorySource struct {
	mu      sync.Mutex
	records []model.Report
	queries []model.Query
	failAll error
	gate    chan struct{} // when set, FetchPage blocks until the gate closes
}

// NewMemorySource returns a source serving the given records.
func NewMemorySource(records []model.Report) *MemorySource {
	return &MemorySource{records: records}
}

// SetRecords swaps the record set.
func (s *MemorySource) SetRecords(records []model.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
}

// FailWith makes every subsequent FetchPage return err (nil to clear).
func (s *MemorySource) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll = err
}

// Block makes subsequent FetchPage calls wait; the returned release
// function unblocks them. Used to hold a request in flight while the test
// advances the epoch.
func (s *MemorySource) Block() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() { close(gate) })
	}
}

// Queries returns a copy of every query served so far.
func (s *MemorySource) Queries() []model.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Query(nil), s.queries...)
}

// FetchCount returns how many FetchPage calls were made.
func (s *MemorySource) FetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

// FetchPage implements the loader's Source contract.
func (s *MemorySource) FetchPage(ctx context.Context, q model.Query) (model.Page, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	gate := s.gate
	failErr := s.failAll
	records := s.records
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return model.Page{}, ctx.Err()
		}
	}
	if failErr != nil {
		return model.Page{}, failErr
	}

	total := len(records)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if q.Limit > 0 && offset+q.Limit < total {
		end = offset + q.Limit
	}
	page := model.Page{Metadata: model.Metadata{Total: total}}
	page.Data = append(page.Data, records[offset:end]...)
	return page, nil
}
