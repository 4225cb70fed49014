package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joacominatel/queryreport/internal/database"
	"github.com/joacominatel/queryreport/internal/database/postgres"
	"github.com/joacominatel/queryreport/internal/database/sqldb"
)

// NewDriver returns an unconnected driver for a configured driver name.
func NewDriver(name string) (database.Driver, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return postgres.New(), nil
	case "mysql":
		return sqldb.New("mysql"), nil
	case "pq":
		return sqldb.New("postgres"), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
	}
}

// Service coordinates application-level operations between the report and
// the database.
type Service struct {
	driver database.Driver
}

// NewService creates a new application service.
func NewService(driver database.Driver) *Service {
	return &Service{driver: driver}
}

// Connect establishes a database connection.
func (s *Service) Connect(ctx context.Context, dsn string) error {
	if err := s.driver.Connect(ctx, dsn); err != nil {
		return &ErrConnection{Cause: err}
	}
	return nil
}

// Ping checks that the session still answers.
func (s *Service) Ping(ctx context.Context) error {
	return s.driver.Ping(ctx)
}

// Disconnect closes the database connection.
func (s *Service) Disconnect() error {
	return s.driver.Close()
}

// ExecuteQuery runs a SQL query and returns all of its rows. The cursor is
// released before returning, whatever the outcome.
func (s *Service) ExecuteQuery(ctx context.Context, query string) (*database.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &ErrQuery{Query: query, Cause: ErrEmptyQuery}
	}

	start := time.Now()

	cur, err := s.driver.Query(ctx, query)
	if err != nil {
		return nil, &ErrQuery{Query: query, Cause: err}
	}
	defer cur.Close()

	rows, err := cur.FetchAll()
	if err != nil {
		return nil, &ErrQuery{Query: query, Cause: err}
	}

	return &database.QueryResult{
		Columns:  cur.Columns(),
		Rows:     rows,
		Duration: time.Since(start),
	}, nil
}

// DatabaseName returns the current database name.
func (s *Service) DatabaseName() string {
	return s.driver.DatabaseName()
}
