// Package model defines the core data types shared across winnow: the
// report record, filter and pagination state, and the paginated response
// envelope returned by feed sources.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Severity levels reported by feeds. Stored as strings so unknown levels
// from newer servers pass through unharmed.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Report is a single content record from a feed. Reports are owned by the
// store once fetched and are never mutated in place: a refilter replaces
// the whole set, a load-more appends.
type Report struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"` // markdown
	Category  string    `json:"category,omitempty"`
	Region    string    `json:"region,omitempty"`
	Severity  string    `json:"severity,omitempty"`
	Reporter  string    `json:"reporter,omitempty"`
	Resolved  bool      `json:"resolved"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Validate checks the minimum a report needs to be renderable.
func (r Report) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("report has empty id")
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("report %s has empty title", r.ID)
	}
	return nil
}

// Page is the envelope returned by paginated feed endpoints:
// a slice of records plus server-side metadata.
type Page struct {
	Data     []Report `json:"data"`
	Metadata Metadata `json:"metadata"`
}

// Metadata carries the server-reported totals for a page response.
type Metadata struct {
	Total int `json:"total"`
}
