package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mwoudstra/winnow/pkg/model"
)

// SQLiteSource serves the paginated query contract from a local reports
// database, opened read-only. Filtering and totals are pushed down to SQL
// so large archives page exactly like the remote endpoint.
type SQLiteSource struct {
	db   *sql.DB
	path string
}

// NewSQLite opens a report database for reading.
func NewSQLite(path string) (*SQLiteSource, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open report database: %w", err)
	}
	return &SQLiteSource{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteSource) Path() string {
	return s.path
}

// FetchPage runs a COUNT for the server-side total, then the page select,
// both under the same WHERE clause.
func (s *SQLiteSource) FetchPage(ctx context.Context, q model.Query) (model.Page, error) {
	where, args := buildWhere(q.Filters)

	var total int
	countQuery := "SELECT COUNT(*) FROM reports" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return model.Page{}, fmt.Errorf("counting reports: %w", err)
	}

	query := `
		SELECT id, title, body, category, region, severity, reporter,
		       resolved, created_at, updated_at
		FROM reports` + where + `
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return model.Page{}, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	page := model.Page{Metadata: model.Metadata{Total: total}}
	for rows.Next() {
		var r model.Report
		var body, category, region, severity, reporter sql.NullString
		var createdAt, updatedAt sql.NullString
		var resolved sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Title, &body, &category, &region,
			&severity, &reporter, &resolved, &createdAt, &updatedAt); err != nil {
			return model.Page{}, fmt.Errorf("scanning report row: %w", err)
		}
		r.Body = body.String
		r.Category = category.String
		r.Region = region.String
		r.Severity = severity.String
		r.Reporter = reporter.String
		r.Resolved = resolved.Int64 != 0
		r.CreatedAt = parseSQLiteTime(createdAt.String)
		r.UpdatedAt = parseSQLiteTime(updatedAt.String)
		page.Data = append(page.Data, r)
	}
	if err := rows.Err(); err != nil {
		return model.Page{}, fmt.Errorf("reading report rows: %w", err)
	}
	return page, nil
}

func buildWhere(f model.FilterState) (string, []any) {
	var conds []string
	var args []any

	if f.Search != "" {
		conds = append(conds, "(title LIKE ? OR body LIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}
	if f.DateFrom != "" {
		conds = append(conds, "date(created_at) >= date(?)")
		args = append(args, f.DateFrom)
	}
	if f.DateUntil != "" {
		conds = append(conds, "date(created_at) <= date(?)")
		args = append(args, f.DateUntil)
	}
	if f.Resolved != nil {
		conds = append(conds, "resolved = ?")
		if *f.Resolved {
			args = append(args, 1)
		} else {
			args = append(args, 0)
		}
	}
	if placeholders, setArgs := inClause(f.SortedCategories()); placeholders != "" {
		conds = append(conds, "category IN ("+placeholders+")")
		args = append(args, setArgs...)
	}
	if placeholders, setArgs := inClause(f.SortedRegions()); placeholders != "" {
		conds = append(conds, "region IN ("+placeholders+")")
		args = append(args, setArgs...)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func inClause(values []string) (string, []any) {
	if len(values) == 0 {
		return "", nil
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(values)), ","), args
}

func parseSQLiteTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
