package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sparkify/sparkify-etl/helper"
)

var (
	reQuotedDotted = regexp.MustCompile(`".+\..+"`)   // "random.table"
	reQuotedPair   = regexp.MustCompile(`".+"\.".+"`) // "schema"."table"
)

// SchemaTable is a table name that may be qualified by a schema, e.g. public.users.
type SchemaTable struct {
	SchemaTable string `errorTxt:"[<schema>.]<table>" mandatory:"yes"`
}

func NewSchemaTable(schema string, table string) SchemaTable {
	if schema == "" {
		return SchemaTable{table}
	}
	return SchemaTable{schema + "." + table}
}

func (st SchemaTable) isQuotedTable() bool {
	// A quoted "random.table" is one name, unlike "schema"."table".
	return reQuotedDotted.MatchString(st.SchemaTable) && !reQuotedPair.MatchString(st.SchemaTable)
}

func (st SchemaTable) GetTable() string {
	if st.isQuotedTable() {
		return st.SchemaTable
	}
	i := strings.Index(st.SchemaTable, ".")
	if i < 0 { // if we have just a table...
		return st.SchemaTable
	}
	return st.SchemaTable[i+1:]
}

func (st SchemaTable) GetSchema() string {
	if st.isQuotedTable() {
		return ""
	}
	i := strings.Index(st.SchemaTable, ".")
	if i < 0 { // if we have just a table...
		return ""
	}
	return st.SchemaTable[:i]
}

// BareTable returns the table name without schema or quotes, lower cased, for catalog lookups.
func (st SchemaTable) BareTable() string {
	return strings.ToLower(strings.Trim(st.GetTable(), `"`))
}

func (st SchemaTable) String() string {
	return st.SchemaTable
}

// ParseTable resolves a user supplied name such as dwh.users or "USERS" to a catalog table.
// It also returns the schema the name was qualified with, if any.
func ParseTable(name string) (Table, string, error) {
	st := SchemaTable{strings.TrimSpace(name)}
	if err := helper.ValidateStructIsPopulated(st); err != nil {
		return Table{}, "", err
	}
	t, ok := tables[st.BareTable()]
	if !ok {
		return Table{}, "", fmt.Errorf("unknown table %q", name)
	}
	return t, strings.Trim(st.GetSchema(), `"`), nil
}

// MatchSchema returns an error when a table was qualified with a schema other than the catalog's.
func (c *Catalog) MatchSchema(schema string) error {
	if schema != "" && !strings.EqualFold(schema, c.Schema) {
		return fmt.Errorf("schema %q does not match the warehouse schema %q", schema, c.Schema)
	}
	return nil
}
