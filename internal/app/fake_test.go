package app

import (
	"context"
	"errors"

	"github.com/joacominatel/queryreport/internal/database"
)

type fakeResult struct {
	columns  []string
	rows     []database.Row
	queryErr error
	fetchErr error
	onQuery  func()
}

// fakeDriver answers queries from a map keyed by SQL text and records how
// many cursors were opened and closed.
type fakeDriver struct {
	results    map[string]fakeResult
	connectErr error
	pingErr    error
	queries    []string
	opened     int
	closed     int
}

func (d *fakeDriver) Connect(context.Context, string) error { return d.connectErr }
func (d *fakeDriver) Close() error                          { return nil }
func (d *fakeDriver) Ping(context.Context) error            { return d.pingErr }
func (d *fakeDriver) DatabaseName() string                  { return "olist" }

func (d *fakeDriver) Query(_ context.Context, query string) (database.Cursor, error) {
	d.queries = append(d.queries, query)

	res, ok := d.results[query]
	if !ok {
		return nil, errors.New("unknown query")
	}
	if res.onQuery != nil {
		res.onQuery()
	}
	if res.queryErr != nil {
		return nil, res.queryErr
	}
	d.opened++
	return &fakeCursor{driver: d, res: res}, nil
}

type fakeCursor struct {
	driver *fakeDriver
	res    fakeResult
	done   bool
}

func (c *fakeCursor) Columns() []string { return c.res.columns }

func (c *fakeCursor) FetchAll() ([]database.Row, error) {
	if c.res.fetchErr != nil {
		return nil, c.res.fetchErr
	}
	return c.res.rows, nil
}

func (c *fakeCursor) Close() error {
	if !c.done {
		c.done = true
		c.driver.closed++
	}
	return nil
}
