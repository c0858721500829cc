package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/warequery/warequery/internal/core/domain"
)

// collectRows drains pgx rows into normalized maps keyed by column name.
// At most maxRows rows are read (0 means unbounded); every cell passes
// through domain.NormalizeValue so results are JSON-safe.
func collectRows(rows pgx.Rows, maxRows int) ([]map[string]any, error) {
	fields := rows.FieldDescriptions()
	var out []map[string]any
	for rows.Next() {
		if maxRows > 0 && len(out) >= maxRows {
			break
		}
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("reading row values: %w", err)
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = domain.NormalizeValue(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}
