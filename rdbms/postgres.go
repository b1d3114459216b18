package rdbms

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
)

const (
	defaultRedshiftPort = 5439
	defaultPostgresPort = 5432
)

// PostgresGetDSN returns a postgres:// URL for Redshift and PostgreSQL connections.
// A configured DSN wins over the individual fields; redshift:// is accepted as an alias.
func PostgresGetDSN(c shared.ConnectionDetails) (string, error) {
	if c.Dsn != "" {
		d := &shared.DsnConnectionDetails{Dsn: c.Dsn}
		if strings.HasPrefix(d.Dsn, "redshift://") {
			d.Dsn = "postgres://" + strings.TrimPrefix(d.Dsn, "redshift://")
		}
		u, err := d.Parse()
		if err != nil {
			return "", err
		}
		pu := u.URL
		pu.Scheme = "postgres"
		return pu.String(), nil
	}
	port := c.Port
	if port == 0 {
		port = defaultPostgresPort
		if c.Type == constants.ConnectionTypeRedshift {
			port = defaultRedshiftPort
		}
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, fmt.Sprint(port)),
		Path:   "/" + c.DBName,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	q := url.Values{}
	if c.SslMode != "" {
		q.Set("sslmode", c.SslMode)
	}
	if c.Schema != "" {
		q.Set("search_path", c.Schema)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// newPostgresConnection opens Redshift or PostgreSQL through the pgx database/sql adapter.
// Redshift does not support extended protocol prepared statements well so the simple protocol is used.
func newPostgresConnection(log logger.Logger, c shared.ConnectionDetails) (shared.Connector, error) {
	dsn, err := PostgresGetDSN(c)
	if err != nil {
		return nil, err
	}
	log.Info("Opening database connection: ", shared.RedactDsn(dsn))
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing connection config")
	}
	cfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	conn := &shared.HpConnection{
		DbSql:  stdlib.OpenDB(*cfg),
		DbType: c.Type,
	}
	// Test the connection.
	if err = conn.DbSql.Ping(); err != nil {
		conn.Close()
		return nil, err
	}
	log.Info("Successful connection to ", c.Type, " database ", c.DBName)
	return conn, nil
}
