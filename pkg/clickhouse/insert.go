package clickhouse

import (
	"context"
	"fmt"
	"strings"
)

// DefaultChunkSize is the number of rows per multi-row INSERT.
const DefaultChunkSize = 2000

// InsertRows writes rows with multi-row VALUES statements of at most chunk
// rows each. Every row must have len(columns) values.
func (c *Client) InsertRows(ctx context.Context, table string, columns []string, rows [][]any, chunk int) error {
	if len(rows) == 0 {
		return nil
	}
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		q, args, err := buildInsert(table, columns, rows[start:end])
		if err != nil {
			return err
		}
		if _, err := c.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert %s rows %d-%d: %w", table, start, end, err)
		}
	}
	return nil
}

func buildInsert(table string, columns []string, rows [][]any) (string, []any, error) {
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, r := range rows {
		if len(r) != len(columns) {
			return "", nil, fmt.Errorf("row %d has %d values, want %d", i, len(r), len(columns))
		}
		values = append(values, placeholder)
		args = append(args, r...)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(columns, ", "), strings.Join(values, ","))
	return q, args, nil
}
