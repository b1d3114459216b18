package catalog

import (
	"fmt"
	"strings"

	"github.com/sparkify/sparkify-etl/constants"
)

// Redshift speaks the PostgreSQL dialect and loads JSON from S3 with COPY.
type Redshift struct{}

func (Redshift) Name() string {
	return constants.ConnectionTypeRedshift
}

func (Redshift) ColumnDefinition(c Column) string {
	return columnDefinition(c.Name, redshiftType(c.Type), c)
}

func redshiftType(t ColumnType) string {
	switch t {
	case Integer:
		return "INTEGER"
	case BigInt:
		return "BIGINT"
	case Float:
		return "FLOAT"
	case Timestamp:
		return "TIMESTAMP"
	case Identity:
		return "INT IDENTITY(0,1)"
	}
	return "VARCHAR"
}

func (Redshift) EpochMillisToTimestamp(expr string) string {
	return fmt.Sprintf("TIMESTAMP 'epoch' + %v/1000 * INTERVAL '1 second'", expr)
}

func (Redshift) DatePart(part string, expr string) string {
	return postgresDatePart(part, expr)
}

func postgresDatePart(part string, expr string) string {
	if part == "weekday" {
		return fmt.Sprintf("CAST(EXTRACT(dow FROM %v) AS VARCHAR)", expr)
	}
	return fmt.Sprintf("EXTRACT(%v FROM %v)", part, expr)
}

// Copy returns a COPY ... FORMAT AS JSON statement.
// An IAM role is used when configured, else the access key pair.
func (Redshift) Copy(table string, src CopySource) (string, bool) {
	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("COPY %v FROM %v\n", table, quoteLiteral(src.Path)))
	cr := src.Credentials
	if cr.IAMRole != "" {
		b.WriteString(fmt.Sprintf("CREDENTIALS %v\n", quoteLiteral("aws_iam_role="+cr.IAMRole)))
	} else {
		b.WriteString(fmt.Sprintf("ACCESS_KEY_ID %v\nSECRET_ACCESS_KEY %v\n",
			quoteLiteral(cr.AccessKeyID), quoteLiteral(cr.SecretAccessKey)))
		if cr.SessionToken != "" {
			b.WriteString(fmt.Sprintf("SESSION_TOKEN %v\n", quoteLiteral(cr.SessionToken)))
		}
	}
	region := src.Region
	if region == "" {
		region = constants.DefaultS3Region
	}
	b.WriteString(fmt.Sprintf("REGION %v\n", quoteLiteral(region)))
	b.WriteString(fmt.Sprintf("FORMAT AS JSON %v", quoteLiteral(src.JSONFormat())))
	return b.String(), true
}

// Postgres shares Redshift's SQL but has no COPY from S3, so staging goes through the local loader.
type Postgres struct{}

func (Postgres) Name() string {
	return constants.ConnectionTypePostgres
}

func (Postgres) ColumnDefinition(c Column) string {
	typ := redshiftType(c.Type)
	if c.Type == Identity {
		typ = "BIGINT GENERATED BY DEFAULT AS IDENTITY"
	}
	return columnDefinition(c.Name, typ, c)
}

func (Postgres) EpochMillisToTimestamp(expr string) string {
	return Redshift{}.EpochMillisToTimestamp(expr)
}

func (Postgres) DatePart(part string, expr string) string {
	return postgresDatePart(part, expr)
}

func (Postgres) Copy(table string, src CopySource) (string, bool) {
	return "", false
}
