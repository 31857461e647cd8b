package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// RecordsView is the view exposing every session log line as a row
const RecordsView = "records"

// Presets are named queries over the records view
var Presets = map[string]string{
	"projects": `
		SELECT
			cwd AS project_path,
			COUNT(DISTINCT CAST(sessionId AS VARCHAR)) AS session_count,
			MAX(timestamp) AS last_activity
		FROM records
		WHERE cwd IS NOT NULL AND sessionId IS NOT NULL
		GROUP BY cwd
		ORDER BY MAX(timestamp) DESC`,
	"types": `
		SELECT type, COUNT(*) AS records
		FROM records
		GROUP BY type
		ORDER BY records DESC`,
	"branches": `
		SELECT gitBranch AS branch, COUNT(DISTINCT CAST(sessionId AS VARCHAR)) AS sessions
		FROM records
		WHERE gitBranch IS NOT NULL AND gitBranch <> ''
		GROUP BY gitBranch
		ORDER BY sessions DESC`,
	"files": `
		SELECT filename, COUNT(*) AS records, MIN(timestamp) AS first, MAX(timestamp) AS last
		FROM records
		GROUP BY filename
		ORDER BY last DESC`,
}

// PresetNames returns the preset names in sorted order
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table is a query result with every value rendered as text
type Table struct {
	Columns []string
	Rows    [][]string
}

// Explorer runs ad-hoc SQL over the session logs of a data directory
type Explorer struct {
	db          *sql.DB
	projectsDir string
}

// NewExplorer creates an explorer over <claudeDir>/projects
func NewExplorer(db *sql.DB, claudeDir string) *Explorer {
	return &Explorer{
		db:          db,
		projectsDir: filepath.Join(claudeDir, "projects"),
	}
}

// CreateViews (re)creates the records view over all session logs
func (e *Explorer) CreateViews(ctx context.Context) error {
	glob := filepath.Join(e.projectsDir, "*", "*.jsonl")
	stmt := fmt.Sprintf(`
		CREATE OR REPLACE VIEW %s AS
		SELECT * FROM read_json('%s',
			format = 'newline_delimited',
			union_by_name = true,
			filename = true,
			ignore_errors = true
		)`, RecordsView, quoteLiteral(glob))
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create %s view: %w", RecordsView, err)
	}
	return nil
}

// Query runs a statement and collects the full result
func (e *Explorer) Query(ctx context.Context, query string, args ...any) (*Table, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	table := &Table{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return table, nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func quoteLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
