package rdbms

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
)

// OpenDbConnection opens a database connection using the supplied ConnectionDetails struct in c.
// The connection is tested before it is returned.
func OpenDbConnection(log logger.Logger, c shared.ConnectionDetails) (db shared.Connector, err error) {
	log.Debug("opening connection type ", c.Type, " with logicalName ", c.LogicalName) // don't log password details!
	if err = c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid connection details")
	}
	switch c.Type {
	case constants.ConnectionTypeRedshift, constants.ConnectionTypePostgres:
		db, err = newPostgresConnection(log, c)
	case constants.ConnectionTypeSnowflake:
		db, err = newSnowflakeConnection(log, c)
	case constants.ConnectionTypeSqlite:
		db, err = newSqliteConnection(log, c)
	case constants.ConnectionTypeMock:
		db = shared.NewMockConnectionWithMockTx(log, constants.ConnectionTypeMock)
	default: // else we have an unsupported database...
		err = fmt.Errorf("unsupported database type, %q", c.Type)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to connect to %v", c.LogicalName)
	}
	return db, nil
}
