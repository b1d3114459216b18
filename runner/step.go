package runner

import (
	"context"

	"github.com/sparkify/sparkify-etl/catalog"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
)

// Step is one unit of work executed inside a transaction.
type Step interface {
	// Describe returns the name and the SQL text (or equivalent) for logging.
	Describe() (name string, text string)
	// Exec runs the step and returns the rows affected, -1 when unknown.
	Exec(ctx context.Context, tx shared.Transacter) (int64, error)
}

// SqlStep executes a single SQL statement.
type SqlStep struct {
	catalog.Statement
}

func NewSqlStep(s catalog.Statement) SqlStep {
	return SqlStep{s}
}

// SqlSteps wraps each statement in a SqlStep.
func SqlSteps(stmts []catalog.Statement) []Step {
	retval := make([]Step, len(stmts))
	for i, s := range stmts {
		retval[i] = NewSqlStep(s)
	}
	return retval
}

func (s SqlStep) Describe() (string, string) {
	return s.Name, s.SQL
}

func (s SqlStep) Exec(ctx context.Context, tx shared.Transacter) (int64, error) {
	res, err := tx.ExecContext(ctx, s.SQL)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil { // some drivers can't count rows for DDL or COPY...
		return -1, nil
	}
	return n, nil
}
