package rdbms

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	sf "github.com/snowflakedb/gosnowflake"
	"github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
)

var reSnowflakePrefix = regexp.MustCompile("^snowflake://")

// SnowflakeGetDSN constructs a DSN based on the connection details.
// The prefix 'snowflake://' is added to the DSN.
func SnowflakeGetDSN(c shared.ConnectionDetails) (string, error) {
	if c.Dsn != "" {
		if !reSnowflakePrefix.MatchString(c.Dsn) {
			return fmt.Sprintf("snowflake://%v", c.Dsn), nil
		}
		return c.Dsn, nil
	}
	cfg := &sf.Config{
		Account:   c.Account,
		Database:  c.DBName,
		Schema:    c.Schema,
		User:      c.User,
		Password:  c.Password,
		Warehouse: c.Warehouse,
		Role:      c.Role,
	}
	dsn, err := sf.DSN(cfg)
	if err != nil {
		return "", err
	}
	if !reSnowflakePrefix.MatchString(dsn) { // if the prefix is missing...
		dsn = fmt.Sprintf("snowflake://%v", dsn)
	}
	return dsn, nil
}

// SnowflakeParseDSN converts a Snowflake DSN into connection details.
// The prefix 'snowflake://' is removed from the DSN if it exists.
func SnowflakeParseDSN(d string) (shared.ConnectionDetails, error) {
	if !reSnowflakePrefix.MatchString(d) {
		return shared.ConnectionDetails{}, errors.New("unsupported Snowflake DSN format")
	}
	cfg, err := sf.ParseDSN(strings.TrimPrefix(d, "snowflake://"))
	if err != nil {
		return shared.ConnectionDetails{}, err
	}
	retval := shared.ConnectionDetails{
		Type:      constants.ConnectionTypeSnowflake,
		User:      cfg.User,
		Password:  cfg.Password,
		Schema:    cfg.Schema,
		DBName:    cfg.Database,
		Account:   cfg.Account,
		Role:      cfg.Role,
		Warehouse: cfg.Warehouse,
	}
	if cfg.Region != "" { // if region exists in the parsed config...
		retval.Account = fmt.Sprintf("%v.%v", retval.Account, cfg.Region)
	}
	return retval, nil
}

// newSnowflakeConnection opens the Snowflake database connection specified in c.
func newSnowflakeConnection(log logger.Logger, c shared.ConnectionDetails) (shared.Connector, error) {
	dsn, err := SnowflakeGetDSN(c)
	if err != nil {
		return nil, err
	}
	conn := &shared.HpConnection{DbType: constants.ConnectionTypeSnowflake}
	conn.DbSql, err = sql.Open("snowflake", strings.TrimPrefix(dsn, "snowflake://"))
	if err != nil {
		return nil, err
	}
	if err = conn.DbSql.Ping(); err != nil {
		conn.Close()
		return nil, err
	}
	log.Info("Successful database connection to Snowflake account ", c.Account)
	return conn, nil
}
