package catalog

import (
	"fmt"

	"github.com/sparkify/sparkify-etl/constants"
)

// Sqlite is the embedded dialect used for local runs and tests.
// Timestamps are stored as 'YYYY-MM-DD HH:MM:SS' text.
type Sqlite struct{}

func (Sqlite) Name() string {
	return constants.ConnectionTypeSqlite
}

func (Sqlite) ColumnDefinition(c Column) string {
	switch c.Type {
	case Identity:
		return fmt.Sprintf("%v INTEGER PRIMARY KEY AUTOINCREMENT", c.Name)
	case Integer, BigInt:
		return columnDefinition(c.Name, "INTEGER", c)
	case Float:
		return columnDefinition(c.Name, "REAL", c)
	}
	return columnDefinition(c.Name, "TEXT", c)
}

func (Sqlite) EpochMillisToTimestamp(expr string) string {
	return fmt.Sprintf("datetime(%v / 1000, 'unixepoch')", expr)
}

var sqliteDateFormats = map[string]string{
	"hour":    "%H",
	"day":     "%d",
	"week":    "%W",
	"month":   "%m",
	"year":    "%Y",
	"weekday": "%w",
}

func (Sqlite) DatePart(part string, expr string) string {
	f := sqliteDateFormats[part]
	if part == "weekday" {
		return fmt.Sprintf("strftime('%v', %v)", f, expr)
	}
	return fmt.Sprintf("CAST(strftime('%v', %v) AS INTEGER)", f, expr)
}

func (Sqlite) Copy(table string, src CopySource) (string, bool) {
	return "", false
}
