package runner

import (
	"context"

	"github.com/sparkify/sparkify-etl/catalog"
	"github.com/sparkify/sparkify-etl/stats"
)

// Phase names used in logs and summaries.
const (
	PhaseDrop      = "drop tables"
	PhaseCreate    = "create tables"
	PhaseCopy      = "copy staging tables"
	PhaseTransform = "insert analytics tables"
)

// RunLifecycle drops every table and then creates every table.
// Statement failures are logged and do not stop the run.
func RunLifecycle(ctx context.Context, e *Executor, cat *catalog.Catalog) []stats.Summary {
	return []stats.Summary{
		e.ExecEach(ctx, PhaseDrop, SqlSteps(cat.DropStatements())),
		e.ExecEach(ctx, PhaseCreate, SqlSteps(cat.CreateStatements())),
	}
}
