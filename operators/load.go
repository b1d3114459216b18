package operators

import (
	"context"
	"fmt"

	"github.com/sparkify/sparkify-etl/catalog"
	"github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
	"github.com/sparkify/sparkify-etl/runner"
)

// LoadTableOperator runs the transform for one dimension or fact table.
// In truncate-insert mode the table is emptied first, in the same transaction.
type LoadTableOperator struct {
	Log     logger.Logger
	Conn    shared.Connector
	Catalog *catalog.Catalog
	Table   string
	Mode    string
}

func (o *LoadTableOperator) Name() string {
	return "load " + o.Table
}

func (o *LoadTableOperator) Execute(ctx context.Context) error {
	ins, err := o.Catalog.InsertStatement(o.Table)
	if err != nil {
		return err
	}
	steps := make([]runner.Step, 0, 2)
	switch o.Mode {
	case constants.LoadModeTruncateInsert:
		del, _ := o.Catalog.DeleteStatement(o.Table)
		steps = append(steps, runner.NewSqlStep(del))
	case constants.LoadModeAppend, "":
	default:
		return fmt.Errorf("unsupported load mode %q", o.Mode)
	}
	steps = append(steps, runner.NewSqlStep(ins))
	if _, err = runner.NewExecutor(o.Log, o.Conn).ExecAtomic(ctx, o.Name(), steps); err != nil {
		o.Log.Error(err)
		return err
	}
	return nil
}
