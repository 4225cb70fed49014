package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joacominatel/queryreport/internal/database"
)

// Driver implements the database.Driver interface for PostgreSQL.
type Driver struct {
	pool   *pgxpool.Pool
	dbName string
}

// New creates a new PostgreSQL driver.
func New() *Driver {
	return &Driver{}
}

// Connect establishes a connection pool to PostgreSQL.
func (d *Driver) Connect(ctx context.Context, dsn string) error {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}

	// queries run one after another; a single connection is enough
	cfg.MaxConns = 1
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping: %w", err)
	}

	d.pool = pool
	d.dbName = cfg.ConnConfig.Database
	return nil
}

// Close closes the connection pool.
func (d *Driver) Close() error {
	if d.pool != nil {
		d.pool.Close()
		d.pool = nil
	}
	return nil
}

// Ping checks if the connection is alive.
func (d *Driver) Ping(ctx context.Context) error {
	if d.pool == nil {
		return fmt.Errorf("not connected")
	}
	return d.pool.Ping(ctx)
}

// Query runs a SQL query and returns a cursor over its rows.
func (d *Driver) Query(ctx context.Context, query string) (database.Cursor, error) {
	if d.pool == nil {
		return nil, fmt.Errorf("not connected")
	}

	rows, err := d.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	return &cursor{rows: rows}, nil
}

// DatabaseName returns the name of the connected database.
func (d *Driver) DatabaseName() string {
	return d.dbName
}

type cursor struct {
	rows pgx.Rows
}

func (c *cursor) Columns() []string {
	fields := c.rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	return columns
}

func (c *cursor) FetchAll() ([]database.Row, error) {
	var result []database.Row
	for c.rows.Next() {
		values, err := c.rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make(database.Row, len(values))
		for i, v := range values {
			row[i] = convert(v)
		}
		result = append(result, row)
	}

	if err := c.rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return result, nil
}

// Close is idempotent; pgx.Rows tolerates repeated calls.
func (c *cursor) Close() error {
	c.rows.Close()
	return nil
}

// convert maps pgx-decoded values onto database.Value. Anything not handled
// here falls back to database.FromAny.
func convert(v any) database.Value {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return database.Null()
		}
		dv, err := x.Value()
		if err != nil || dv == nil {
			return database.Null()
		}
		if s, ok := dv.(string); ok {
			return database.Decimal(s)
		}
		return database.FromAny(dv)
	case [16]byte:
		return database.Text(uuid.UUID(x).String())
	default:
		return database.FromAny(v)
	}
}
