package operators

import (
	"context"

	"github.com/sparkify/sparkify-etl/catalog"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
	"github.com/sparkify/sparkify-etl/runner"
)

// DataQualityOperator runs checks and fails on the first mismatch.
type DataQualityOperator struct {
	Log    logger.Logger
	Conn   shared.Connector
	Checks []catalog.Check
}

func (o *DataQualityOperator) Name() string {
	return "run quality checks"
}

func (o *DataQualityOperator) Execute(ctx context.Context) error {
	return runner.NewQualityRunner(o.Log, o.Conn).Run(ctx, o.Checks)
}
