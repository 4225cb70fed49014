package database

import "time"

// Row is one result row, aligned positionally to QueryResult.Columns.
type Row []Value

// QueryResult holds the result of a SQL query execution.
type QueryResult struct {
	Columns  []string
	Rows     []Row
	Duration time.Duration
}

// RowCount returns the number of fetched rows.
func (r *QueryResult) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}
