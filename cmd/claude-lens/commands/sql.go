package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/strrl/claude-lens/internal/db"
)

// NewSQLCommand creates the sql command
func NewSQLCommand(a *app) *cobra.Command {
	var preset string
	var listPresets bool

	cmd := &cobra.Command{
		Use:   "sql [query]",
		Short: "Query session logs with DuckDB",
		Long: fmt.Sprintf(`Run SQL over every session log line through the "%s" view, one row per
JSON record (columns follow the record fields plus filename).

Presets: %s`, db.RecordsView, strings.Join(db.PresetNames(), ", ")),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if listPresets {
				for _, name := range db.PresetNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			query, err := sqlQuery(preset, args)
			if err != nil {
				return err
			}

			conn, err := db.GetDB()
			if err != nil {
				return err
			}

			explorer := db.NewExplorer(conn, a.cfg.ClaudeDir)
			if err := explorer.CreateViews(cmd.Context()); err != nil {
				return err
			}

			table, err := explorer.Query(cmd.Context(), query)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), a.output, tableRecords(table), func(w io.Writer) error {
				writeTable(w, table.Columns, table.Rows)
				fmt.Fprintf(w, "(%d rows)\n", len(table.Rows))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&preset, "preset", "p", "", "run a named preset query")
	cmd.Flags().BoolVar(&listPresets, "list-presets", false, "list preset names")
	return cmd
}

func sqlQuery(preset string, args []string) (string, error) {
	switch {
	case preset != "" && len(args) > 0:
		return "", fmt.Errorf("pass either a query or --preset, not both")
	case preset != "":
		q, ok := db.Presets[preset]
		if !ok {
			return "", fmt.Errorf("unknown preset %q (available: %s)", preset, strings.Join(db.PresetNames(), ", "))
		}
		return q, nil
	case len(args) == 1:
		return args[0], nil
	}
	return "", fmt.Errorf("a query or --preset is required")
}

// tableRecords turns rows into column-keyed records for json and yaml output
func tableRecords(table *db.Table) []map[string]string {
	records := make([]map[string]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		record := make(map[string]string, len(table.Columns))
		for i, col := range table.Columns {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		records = append(records, record)
	}
	return records
}
