package shared

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sparkify/sparkify-etl/logger"
)

// Markers recorded in the MockConnection history alongside SQL statements.
const (
	MockBegin    = "BEGIN"
	MockCommit   = "COMMIT"
	MockRollback = "ROLLBACK"
)

// MockConnection records every statement it is given instead of talking to a database.
// Set ExecFunc to fail chosen statements and QueryFunc to return result rows.
type MockConnection struct {
	ExecFunc  func(query string) error
	QueryFunc func(query string) ([][]interface{}, error)
	log       logger.Logger
	dbType    string
	mu        sync.Mutex
	history   []string
	closed    bool
}

// NewMockConnectionWithMockTx returns a MockConnection whose transactions also record into the history.
func NewMockConnectionWithMockTx(log logger.Logger, dbType string) *MockConnection {
	return &MockConnection{log: log, dbType: dbType, history: make([]string, 0)}
}

// History returns a copy of the statements and transaction markers seen so far.
func (c *MockConnection) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := make([]string, len(c.history))
	copy(h, c.history)
	return h
}

// Closed reports whether Close was called.
func (c *MockConnection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *MockConnection) record(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, s)
	if c.log != nil {
		c.log.Trace("mock connection: ", s)
	}
}

func (c *MockConnection) exec(query string) (Result, error) {
	c.record(query)
	if c.ExecFunc != nil {
		if err := c.ExecFunc(query); err != nil {
			return nil, err
		}
	}
	return MockResult{Rows: 1}, nil
}

func (c *MockConnection) query(query string) (Rows, error) {
	c.record(query)
	if c.QueryFunc == nil {
		return nil, errors.New("mock connection has no QueryFunc")
	}
	data, err := c.QueryFunc(query)
	if err != nil {
		return nil, err
	}
	return &MockRows{Data: data}, nil
}

// Connector:

func (c *MockConnection) Begin() (Transacter, error) {
	return c.BeginTx(context.Background())
}

func (c *MockConnection) BeginTx(ctx context.Context) (Transacter, error) {
	c.record(MockBegin)
	return &MockTx{conn: c}, nil
}

func (c *MockConnection) Exec(query string, args ...interface{}) (Result, error) {
	return c.exec(query)
}

func (c *MockConnection) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return c.exec(query)
}

func (c *MockConnection) Query(query string, args ...interface{}) (Rows, error) {
	return c.query(query)
}

func (c *MockConnection) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	return c.query(query)
}

func (c *MockConnection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockConnection) GetType() string {
	return c.dbType
}

// MockTx records into its parent connection.
type MockTx struct {
	conn *MockConnection
	done bool
}

func (t *MockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	if t.done {
		return nil, errors.New("mock transaction has already been committed or rolled back")
	}
	return t.conn.exec(query)
}

func (t *MockTx) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	return t.conn.query(query)
}

func (t *MockTx) Commit() error {
	t.done = true
	t.conn.record(MockCommit)
	return nil
}

func (t *MockTx) Rollback() error {
	t.done = true
	t.conn.record(MockRollback)
	return nil
}

// MockResult reports a fixed number of rows affected.
type MockResult struct {
	Rows int64
}

func (r MockResult) LastInsertId() (int64, error) {
	return 0, errors.New("LastInsertId is not supported")
}

func (r MockResult) RowsAffected() (int64, error) {
	return r.Rows, nil
}

// MockRows iterates over canned values.
type MockRows struct {
	Data    [][]interface{}
	Cols    []string
	current int
}

func (r *MockRows) Next() bool {
	if r.current >= len(r.Data) {
		return false
	}
	r.current++
	return true
}

func (r *MockRows) Scan(dest ...interface{}) error {
	if r.current == 0 || r.current > len(r.Data) {
		return errors.New("Scan called without a current row")
	}
	row := r.Data[r.current-1]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %v destination arguments in Scan, not %v", len(row), len(dest))
	}
	for i, d := range dest {
		p, ok := d.(*interface{})
		if !ok {
			return fmt.Errorf("mock rows only scan into *interface{}, got %T", d)
		}
		*p = row[i]
	}
	return nil
}

func (r *MockRows) Columns() ([]string, error) {
	if r.Cols != nil {
		return r.Cols, nil
	}
	if len(r.Data) == 0 {
		return []string{}, nil
	}
	cols := make([]string, len(r.Data[0]))
	for i := range cols {
		cols[i] = fmt.Sprintf("column%v", i+1)
	}
	return cols, nil
}

func (r *MockRows) Err() error {
	return nil
}

func (r *MockRows) Close() error {
	return nil
}
