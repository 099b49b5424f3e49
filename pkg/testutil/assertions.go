package testutil

import (
	"testing"

	"github.com/mwoudstra/winnow/pkg/model"
)

// AssertReportCount verifies the expected number of reports.
func AssertReportCount(t *testing.T, reports []model.Report, expected int) {
	t.Helper()
	if len(reports) != expected {
		t.Errorf("expected %d reports, got %d", expected, len(reports))
	}
}

// AssertNoDuplicateIDs verifies all report IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, reports []model.Report) {
	t.Helper()
	seen := make(map[string]bool)
	for _, r := range reports {
		if seen[r.ID] {
			t.Errorf("duplicate report ID: %s", r.ID)
		}
		seen[r.ID] = true
	}
}

// AssertAllValid verifies all reports pass validation.
func AssertAllValid(t *testing.T, reports []model.Report) {
	t.Helper()
	for i, r := range reports {
		if err := r.Validate(); err != nil {
			t.Errorf("report %d (%s) invalid: %v", i, r.ID, err)
		}
	}
}
