package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
	"github.com/sparkify/sparkify-etl/stats"
)

// Executor runs steps against one warehouse connection.
// It is not safe for concurrent use; callers serialise access to the connection.
type Executor struct {
	log  logger.Logger
	conn shared.Connector
}

func NewExecutor(log logger.Logger, conn shared.Connector) *Executor {
	return &Executor{log: log, conn: conn}
}

// StepError is returned for the first failed step of ExecAtomic.
type StepError struct {
	Step string
	SQL  string
	Err  error
}

func (e StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, shared.DescribeError(e.Err))
}

func (e StepError) Unwrap() error {
	return e.Err
}

// ExecEach runs every step in its own transaction.
// A failed step is logged with its SQL, rolled back, and the remaining steps still run.
// Only a cancelled context stops the loop early.
func (e *Executor) ExecEach(ctx context.Context, phase string, steps []Step) stats.Summary {
	ps := stats.NewPhaseStats(e.log, phase)
	for _, s := range steps {
		if ctx.Err() != nil {
			e.log.Warn("phase ", phase, " cancelled: ", ctx.Err())
			break
		}
		name, text := s.Describe()
		sw := ps.AddStepWatcher(name)
		sw.Start()
		rows, err := e.execInTx(ctx, []Step{s})
		if err != nil {
			ps.RecordFailure(sw.Fail(err))
			e.log.Error("error executing ", name, ": ", shared.DescribeError(err), "; SQL: ", text)
			continue
		}
		elapsed := sw.Complete(rows)
		ps.RecordSuccess(elapsed)
		e.log.Info(name, " complete in ", elapsed.Round(time.Millisecond), rowsSuffix(rows))
	}
	return ps.LogSummary()
}

// ExecAtomic runs all steps in one transaction.
// On the first failure the transaction is rolled back and a StepError is returned.
func (e *Executor) ExecAtomic(ctx context.Context, name string, steps []Step) (int64, error) {
	sw := stats.NewStepWatcher(name)
	sw.Start()
	rows, err := e.execInTx(ctx, steps)
	if err != nil {
		sw.Fail(err)
		e.log.Debug(sw.RenderStats())
		return 0, err
	}
	elapsed := sw.Complete(rows)
	e.log.Info(name, " complete in ", elapsed.Round(time.Millisecond), rowsSuffix(rows))
	return rows, nil
}

// execInTx returns the row count of the last step.
func (e *Executor) execInTx(ctx context.Context, steps []Step) (rows int64, err error) {
	tx, err := e.conn.BeginTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "error starting transaction")
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				e.log.Warn("error during rollback: ", rbErr)
			}
		}
	}()
	for _, s := range steps {
		name, text := s.Describe()
		e.log.Debug("executing ", name, ": ", text)
		if rows, err = s.Exec(ctx, tx); err != nil {
			return 0, StepError{Step: name, SQL: text, Err: err}
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "error during commit")
	}
	committed = true
	return rows, nil
}

func rowsSuffix(rows int64) string {
	if rows < 0 {
		return ""
	}
	return fmt.Sprintf(" (%v rows)", rows)
}
