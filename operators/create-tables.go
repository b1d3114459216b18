package operators

import (
	"context"
	"fmt"

	"github.com/sparkify/sparkify-etl/catalog"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
	"github.com/sparkify/sparkify-etl/runner"
	"github.com/sparkify/sparkify-etl/stats"
)

// CreateTablesOperator creates any missing table, after dropping them all when Drop is set.
// Every statement runs even if an earlier one fails; the operator then reports the failures.
type CreateTablesOperator struct {
	Log     logger.Logger
	Conn    shared.Connector
	Catalog *catalog.Catalog
	Drop    bool
}

func (o *CreateTablesOperator) Name() string {
	return "create tables"
}

func (o *CreateTablesOperator) Execute(ctx context.Context) error {
	e := runner.NewExecutor(o.Log, o.Conn)
	var summaries []stats.Summary
	if o.Drop {
		summaries = runner.RunLifecycle(ctx, e, o.Catalog)
	} else {
		summaries = []stats.Summary{e.ExecEach(ctx, runner.PhaseCreate, runner.SqlSteps(o.Catalog.CreateStatements()))}
	}
	return failuresToError(summaries)
}

func failuresToError(summaries []stats.Summary) error {
	failed := 0
	for _, s := range summaries {
		failed += s.Failed
	}
	if failed > 0 {
		return fmt.Errorf("%v statements failed", failed)
	}
	return nil
}
