// Package testutil provides synthetic report generators, a scriptable
// in-memory feed source, and shared test assertions.
package testutil

import (
	"fmt"
	"time"

	"github.com/mwoudstra/winnow/pkg/model"
)

var (
	categories = []string{"power", "water", "roads", "network", "housing"}
	regions    = []string{"north", "south", "east", "west", "central"}
	severities = []string{model.SeverityInfo, model.SeverityWarning, model.SeverityCritical}
)

// GenerateReports returns n deterministic synthetic reports, newest first,
// one hour apart, cycling through categories, regions and severities.
func GenerateReports(n int) []model.Report {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reports := make([]model.Report, n)
	for i := 0; i < n; i++ {
		reports[i] = model.Report{
			ID:        fmt.Sprintf("rpt-%04d", i),
			Title:     fmt.Sprintf("Report %d: %s outage", i, categories[i%len(categories)]),
			Body:      fmt.Sprintf("Synthetic report body **%d** for testing.", i),
			Category:  categories[i%len(categories)],
			Region:    regions[i%len(regions)],
			Severity:  severities[i%len(severities)],
			Reporter:  fmt.Sprintf("crew-%d", i%7),
			Resolved:  i%3 == 0,
			CreatedAt: base.Add(-time.Duration(i) * time.Hour),
			UpdatedAt: base.Add(-time.Duration(i) * time.Hour / 2),
		}
	}
	return reports
}
