package rdbms

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
	"github.com/xo/dburl"
)

// SqliteGetDSN returns the file name handed to the sqlite3 driver.
// A dsn such as sqlite:/tmp/dwh.db is parsed with dburl; otherwise Path is used as is.
func SqliteGetDSN(c shared.ConnectionDetails) (string, error) {
	if c.Dsn != "" {
		u, err := dburl.Parse(c.Dsn)
		if err != nil {
			return "", err
		}
		return u.DSN, nil
	}
	return c.Path, nil
}

// newSqliteConnection opens an embedded database for local runs and tests.
// A single connection is kept so that in-memory databases survive between statements.
func newSqliteConnection(log logger.Logger, c shared.ConnectionDetails) (shared.Connector, error) {
	dsn, err := SqliteGetDSN(c)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("Successful connection to sqlite database ", dsn)
	return &shared.HpConnection{DbSql: db, DbType: constants.ConnectionTypeSqlite}, nil
}
