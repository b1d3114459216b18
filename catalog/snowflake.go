package catalog

import (
	"fmt"
	"strings"

	"github.com/sparkify/sparkify-etl/constants"
)

// Snowflake loads JSON with COPY INTO, matching JSON keys to column names.
// JSONPaths files are a Redshift feature so they are ignored here.
type Snowflake struct{}

func (Snowflake) Name() string {
	return constants.ConnectionTypeSnowflake
}

func (Snowflake) ColumnDefinition(c Column) string {
	typ := redshiftType(c.Type)
	if c.Type == Identity {
		typ = "INTEGER IDENTITY(0,1)"
	}
	return columnDefinition(c.Name, typ, c)
}

func (Snowflake) EpochMillisToTimestamp(expr string) string {
	return fmt.Sprintf("TO_TIMESTAMP_NTZ(FLOOR(%v / 1000))", expr)
}

func (Snowflake) DatePart(part string, expr string) string {
	switch part {
	case "weekday":
		return fmt.Sprintf("CAST(EXTRACT(dayofweek FROM %v) AS VARCHAR)", expr)
	case "week":
		return fmt.Sprintf("EXTRACT(weekiso FROM %v)", expr)
	}
	return fmt.Sprintf("EXTRACT(%v FROM %v)", part, expr)
}

// Copy returns COPY INTO with FORCE = TRUE so that files are reloaded after the staging table is emptied.
func (Snowflake) Copy(table string, src CopySource) (string, bool) {
	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("COPY INTO %v FROM %v\n", table, quoteLiteral(strings.TrimRight(src.Path, "/")+"/")))
	cr := src.Credentials
	if cr.AccessKeyID != "" {
		b.WriteString(fmt.Sprintf("CREDENTIALS = (AWS_KEY_ID = %v AWS_SECRET_KEY = %v",
			quoteLiteral(cr.AccessKeyID), quoteLiteral(cr.SecretAccessKey)))
		if cr.SessionToken != "" {
			b.WriteString(fmt.Sprintf(" AWS_TOKEN = %v", quoteLiteral(cr.SessionToken)))
		}
		b.WriteString(")\n")
	} else if cr.IAMRole != "" {
		b.WriteString(fmt.Sprintf("CREDENTIALS = (AWS_ROLE = %v)\n", quoteLiteral(cr.IAMRole)))
	}
	b.WriteString("FILE_FORMAT = (TYPE = JSON)\n")
	b.WriteString("MATCH_BY_COLUMN_NAME = CASE_INSENSITIVE\n")
	b.WriteString("FORCE = TRUE")
	return b.String(), true
}
