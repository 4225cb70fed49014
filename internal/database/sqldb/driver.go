// Package sqldb implements database.Driver on top of database/sql, so any
// registered driver can back a report session. MySQL (go-sql-driver/mysql)
// and PostgreSQL (lib/pq) are registered by this package.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/joacominatel/queryreport/internal/database"
)

// Driver implements the database.Driver interface for a database/sql driver.
type Driver struct {
	driverName string
	db         *sql.DB
	dbName     string
}

// New creates a driver that opens connections with the named database/sql
// driver ("mysql" or "postgres").
func New(driverName string) *Driver {
	return &Driver{driverName: driverName}
}

// NewWithDB wraps an already open *sql.DB.
func NewWithDB(driverName string, db *sql.DB) *Driver {
	return &Driver{driverName: driverName, db: db}
}

// Connect opens the database and verifies it answers.
func (d *Driver) Connect(ctx context.Context, dsn string) error {
	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}

	db.SetMaxOpenConns(1)
	return d.attach(ctx, db)
}

// attach pings db and reads the current database name. On failure db is
// closed and the driver stays disconnected.
func (d *Driver) attach(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping: %w", err)
	}

	d.db = db
	if err := d.loadDatabaseName(ctx); err != nil {
		_ = db.Close()
		d.db = nil
		return err
	}
	return nil
}

func (d *Driver) loadDatabaseName(ctx context.Context) error {
	query, ok := currentDatabaseQuery[d.driverName]
	if !ok {
		return nil
	}

	var name sql.NullString
	if err := d.db.QueryRowContext(ctx, query).Scan(&name); err != nil {
		return fmt.Errorf("current database: %w", err)
	}
	d.dbName = name.String
	return nil
}

// Close closes the underlying *sql.DB.
func (d *Driver) Close() error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// Ping checks if the connection is alive.
func (d *Driver) Ping(ctx context.Context) error {
	if d.db == nil {
		return fmt.Errorf("not connected")
	}
	return d.db.PingContext(ctx)
}

// Query runs a SQL query and returns a cursor over its rows.
func (d *Driver) Query(ctx context.Context, query string) (database.Cursor, error) {
	if d.db == nil {
		return nil, fmt.Errorf("not connected")
	}

	rows, err := d.db.QueryContext(ctx, query)
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
	rows   *sql.Rows
	closed bool
}

func (c *cursor) Columns() []string {
	columns, err := c.rows.Columns()
	if err != nil {
		return nil
	}
	return columns
}

func (c *cursor) FetchAll() ([]database.Row, error) {
	types, err := c.rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}

	typeNames := make([]string, len(types))
	for i, ct := range types {
		typeNames[i] = strings.ToUpper(ct.DatabaseTypeName())
	}

	var result []database.Row
	for c.rows.Next() {
		values := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := c.rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		row := make(database.Row, len(values))
		for i, v := range values {
			row[i] = convert(v, typeNames[i])
		}
		result = append(result, row)
	}

	if err := c.rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return result, nil
}

func (c *cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rows.Close()
}

// convert decodes raw driver bytes using the column's declared type. Text
// protocol drivers hand back most columns as []byte.
func convert(v any, typeName string) database.Value {
	b, ok := v.([]byte)
	if !ok {
		return database.FromAny(v)
	}

	s := string(b)
	switch typeName {
	case "DECIMAL", "NUMERIC":
		return database.Decimal(s)
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "INT2", "INT4", "INT8", "YEAR":
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return database.Int(i)
		}
	case "UNSIGNED BIGINT", "UNSIGNED INT", "UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT":
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return database.FromAny(u)
		}
	case "FLOAT", "DOUBLE", "REAL", "FLOAT4", "FLOAT8":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return database.Float(f)
		}
	}
	return database.Text(s)
}
