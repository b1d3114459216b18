package operators

import (
	"context"
	"fmt"

	"github.com/sparkify/sparkify-etl/aws/s3"
	"github.com/sparkify/sparkify-etl/catalog"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
	"github.com/sparkify/sparkify-etl/runner"
)

// StageOperator empties a staging table and reloads it from S3 in one transaction,
// so a failed COPY leaves the previous rows in place.
type StageOperator struct {
	Log       logger.Logger
	Conn      shared.Connector
	Catalog   *catalog.Catalog
	Source    catalog.CopySource
	Copier    runner.Copier    // used when the warehouse has no native COPY
	NewClient s3.ClientFactory // used by the preflight
	Preflight bool
}

func (o *StageOperator) Name() string {
	return "stage " + o.Source.Table
}

func (o *StageOperator) Execute(ctx context.Context) error {
	if o.Preflight {
		o.preflight(ctx)
	}
	del, err := o.Catalog.DeleteStatement(o.Source.Table)
	if err != nil {
		return err
	}
	cp, err := runner.NewCopyStep(o.Catalog, o.Source, o.Copier)
	if err != nil {
		return err
	}
	o.Log.Info("clearing ", o.Source.Table, " and copying from ", o.Source.Path)
	rows, err := runner.NewExecutor(o.Log, o.Conn).ExecAtomic(ctx, o.Name(), []runner.Step{runner.NewSqlStep(del), cp})
	if err != nil {
		o.Log.Error(err)
		return err
	}
	if rows >= 0 {
		o.Log.Info(o.Source.Table, " staged with ", rows, " rows")
	}
	return nil
}

// preflight warns when the source prefix has no objects. Listing errors are only logged
// since the warehouse may have access that this process lacks.
func (o *StageOperator) preflight(ctx context.Context) {
	if o.NewClient == nil {
		return
	}
	b, err := s3.ParseDSN(o.Source.Path, regionOrDefault(o.Source.Region))
	if err != nil {
		o.Log.Warn("preflight skipped: ", err)
		return
	}
	client, err := o.NewClient(b)
	if err != nil {
		o.Log.Warn("preflight skipped: ", err)
		return
	}
	keys, err := client.List(ctx, "")
	if err != nil {
		o.Log.Warn("preflight unable to list ", b, ": ", err)
		return
	}
	if len(keys) == 0 {
		o.Log.Warn(fmt.Sprintf("preflight found no objects under %v; %v will be empty", b, o.Source.Table))
		return
	}
	o.Log.Info("preflight found ", len(keys), " objects under ", b)
}
