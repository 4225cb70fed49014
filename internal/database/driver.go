package database

import "context"

// Driver defines the interface for database operations.
// A connected Driver is a reusable session: a failed query must leave it
// usable for the next one.
type Driver interface {
	// Connect establishes a connection to the database.
	Connect(ctx context.Context, dsn string) error

	// Close closes the database connection.
	Close() error

	// Ping checks if the connection is alive.
	Ping(ctx context.Context) error

	// Query submits SQL text and returns a cursor over its rows.
	Query(ctx context.Context, query string) (Cursor, error)

	// DatabaseName returns the name of the connected database.
	DatabaseName() string
}

// Cursor is a one-shot handle over the rows of a single query.
type Cursor interface {
	// Columns returns the column names in metadata order.
	Columns() []string

	// FetchAll reads every remaining row.
	FetchAll() ([]Row, error)

	// Close releases the cursor. Calling it more than once is safe.
	Close() error
}
