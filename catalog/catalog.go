package catalog

import (
	"fmt"
	"strings"
)

// Statement is one named SQL statement.
type Statement struct {
	Name string
	SQL  string
}

// Catalog renders the schema and query lists for one warehouse.
type Catalog struct {
	Dialect Dialect
	Schema  string // optional schema used to qualify every table
}

// New returns the Catalog for connectionType, qualifying tables with schema when it is set.
func New(connectionType string, schema string) (*Catalog, error) {
	d, err := DialectFor(connectionType)
	if err != nil {
		return nil, err
	}
	return &Catalog{Dialect: d, Schema: schema}, nil
}

// QualifiedName returns the table name as used in SQL.
func (c *Catalog) QualifiedName(table string) string {
	st := NewSchemaTable(c.Schema, table)
	return st.String()
}

// render replaces ${table} markers with qualified table names.
func (c *Catalog) render(sql string) string {
	replacements := make([]string, 0, len(tables)*2)
	for name := range tables {
		replacements = append(replacements, "${"+name+"}", c.QualifiedName(name))
	}
	return strings.NewReplacer(replacements...).Replace(sql)
}

// CreateTable returns CREATE TABLE IF NOT EXISTS for the table.
func (c *Catalog) CreateTable(t Table) Statement {
	cols := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		def := c.Dialect.ColumnDefinition(col)
		if c.Schema != "" && col.References != "" { // qualify the referenced table too
			def = strings.Replace(def, "REFERENCES "+col.References, "REFERENCES "+c.Schema+"."+col.References, 1)
		}
		cols[i] = "    " + def
	}
	return Statement{
		Name: "create " + t.Name,
		SQL:  fmt.Sprintf("CREATE TABLE IF NOT EXISTS %v (\n%v\n)", c.QualifiedName(t.Name), strings.Join(cols, ",\n")),
	}
}

// DropStatements returns DROP TABLE IF EXISTS for every table, fact before dimensions.
func (c *Catalog) DropStatements() []Statement {
	retval := make([]Statement, 0, len(DropOrder))
	for _, n := range DropOrder {
		retval = append(retval, Statement{Name: "drop " + n, SQL: "DROP TABLE IF EXISTS " + c.QualifiedName(n)})
	}
	return retval
}

// CreateStatements returns CREATE TABLE IF NOT EXISTS for every table, referenced tables first.
func (c *Catalog) CreateStatements() []Statement {
	retval := make([]Statement, 0, len(CreateOrder))
	for _, n := range CreateOrder {
		retval = append(retval, c.CreateTable(tables[n]))
	}
	return retval
}

// CopyStatement returns the native bulk load for src.
// ok is false when the dialect has no COPY from object storage.
func (c *Catalog) CopyStatement(src CopySource) (s Statement, ok bool, err error) {
	if _, found := tables[src.Table]; !found {
		return s, false, fmt.Errorf("unknown table %q", src.Table)
	}
	if src.Path == "" {
		return s, false, fmt.Errorf("missing source path for table %v", src.Table)
	}
	sql, ok := c.Dialect.Copy(c.QualifiedName(src.Table), src)
	return Statement{Name: "copy " + src.Table, SQL: sql}, ok, nil
}

// InsertStatement returns the INSERT ... SELECT that builds table from the staging tables.
func (c *Catalog) InsertStatement(table string) (Statement, error) {
	b, ok := insertBuilders[table]
	if !ok {
		return Statement{}, fmt.Errorf("no transform for table %q", table)
	}
	return Statement{Name: "insert " + table, SQL: c.render(b(c.Dialect))}, nil
}

// InsertStatements returns the transforms in load order: dimensions before the fact.
func (c *Catalog) InsertStatements() []Statement {
	retval := make([]Statement, 0, len(InsertOrder))
	for _, n := range InsertOrder {
		s, _ := c.InsertStatement(n)
		retval = append(retval, s)
	}
	return retval
}

// DeleteStatement empties table. DELETE is used instead of TRUNCATE so it can be rolled back.
func (c *Catalog) DeleteStatement(table string) (Statement, error) {
	if _, ok := tables[table]; !ok {
		return Statement{}, fmt.Errorf("unknown table %q", table)
	}
	return Statement{Name: "delete " + table, SQL: "DELETE FROM " + c.QualifiedName(table)}, nil
}

// InsertRowStatement returns a named-parameter INSERT for all columns of a staging table,
// e.g. INSERT INTO staging_songs (num_songs, ...) VALUES (:num_songs, ...).
func (c *Catalog) InsertRowStatement(table string) (Statement, error) {
	t, ok := tables[table]
	if !ok {
		return Statement{}, fmt.Errorf("unknown table %q", table)
	}
	cols := t.ColumnNames()
	params := make([]string, len(cols))
	for i, n := range cols {
		params[i] = ":" + n
	}
	return Statement{
		Name: "insert row " + table,
		SQL: fmt.Sprintf("INSERT INTO %v (%v) VALUES (%v)",
			c.QualifiedName(table), strings.Join(cols, ", "), strings.Join(params, ", ")),
	}, nil
}
