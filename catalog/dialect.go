package catalog

import (
	"fmt"
	"strings"

	"github.com/sparkify/sparkify-etl/constants"
)

// Dialect renders the parts of the catalog that differ between warehouses.
type Dialect interface {
	Name() string
	// ColumnDefinition returns "<name> <type> [constraints]" for c.
	ColumnDefinition(c Column) string
	// EpochMillisToTimestamp converts a BIGINT epoch millisecond expression to a timestamp truncated to seconds.
	EpochMillisToTimestamp(expr string) string
	// DatePart extracts hour, day, week, month, year or weekday from a timestamp expression.
	DatePart(part string, expr string) string
	// Copy returns the native bulk load statement for src.
	// ok is false when the warehouse has no COPY from object storage.
	Copy(table string, src CopySource) (sql string, ok bool)
}

// Credentials authorise the warehouse to read from S3.
// IAMRole is preferred; otherwise the key pair is used.
type Credentials struct {
	IAMRole         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// CopySource is the object storage location of one staging table.
type CopySource struct {
	Table       string
	Path        string // s3://bucket/prefix
	JSONPaths   string // s3:// URL of a JSONPaths file, empty for auto
	Region      string
	Credentials Credentials
}

// JSONFormat returns the JSONPaths URL or "auto".
func (s CopySource) JSONFormat() string {
	if s.JSONPaths == "" {
		return constants.DefaultJsonFormat
	}
	return s.JSONPaths
}

// DialectFor returns the dialect for a connection type.
func DialectFor(connectionType string) (Dialect, error) {
	switch connectionType {
	case constants.ConnectionTypeRedshift:
		return Redshift{}, nil
	case constants.ConnectionTypePostgres:
		return Postgres{}, nil
	case constants.ConnectionTypeSnowflake:
		return Snowflake{}, nil
	case constants.ConnectionTypeSqlite, constants.ConnectionTypeMock:
		return Sqlite{}, nil
	}
	return nil, fmt.Errorf("no SQL dialect for database type %q", connectionType)
}

// columnDefinition is shared by dialects whose constraints follow the column type.
func columnDefinition(name string, typ string, c Column) string {
	b := strings.Builder{}
	b.WriteString(name)
	b.WriteString(" ")
	b.WriteString(typ)
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
	}
	if c.References != "" {
		b.WriteString(" REFERENCES ")
		b.WriteString(c.References)
	}
	return b.String()
}

// quoteLiteral wraps s in single quotes, doubling any embedded quotes.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
