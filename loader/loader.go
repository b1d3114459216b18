package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/cevaris/ordered_map"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sparkify/sparkify-etl/aws/s3"
	"github.com/sparkify/sparkify-etl/catalog"
	"github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
)

// Loader copies JSON objects from S3 into a staging table through the caller's transaction.
// It stands in for COPY on warehouses that cannot read S3 themselves.
type Loader struct {
	log       logger.Logger
	cat       *catalog.Catalog
	newClient s3.ClientFactory
}

func New(log logger.Logger, cat *catalog.Catalog, newClient s3.ClientFactory) *Loader {
	return &Loader{log: log, cat: cat, newClient: newClient}
}

// Copy inserts one row per JSON value found under src.Path and returns the row count.
// Files are read in key order. A top level JSON array contributes one row per element.
func (l *Loader) Copy(ctx context.Context, tx shared.Transacter, src catalog.CopySource) (int64, error) {
	table, ok := catalog.Lookup(src.Table)
	if !ok {
		return 0, fmt.Errorf("unknown table %q", src.Table)
	}
	stmt, err := l.cat.InsertRowStatement(src.Table)
	if err != nil {
		return 0, err
	}
	mapping, err := l.fieldMapping(ctx, table, src)
	if err != nil {
		return 0, err
	}
	bucket, err := s3.ParseDSN(src.Path, regionOrDefault(src.Region))
	if err != nil {
		return 0, err
	}
	client, err := l.newClient(bucket)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to create S3 client for %v", bucket)
	}
	keys, err := client.List(ctx, "")
	if err != nil {
		return 0, errors.Wrapf(err, "unable to list %v", bucket)
	}
	sort.Strings(keys)
	l.log.Debug("local load of ", len(keys), " objects from ", bucket, " into ", src.Table)
	var rows int64
	for _, k := range keys {
		n, err := l.copyObject(ctx, tx, client, k, table, stmt.SQL, mapping)
		rows += n
		if err != nil {
			return rows, errors.Wrapf(err, "error loading s3://%v/%v", bucket.Name, k)
		}
	}
	return rows, nil
}

func (l *Loader) copyObject(ctx context.Context, tx shared.Transacter, client s3.BasicClient, key string, table catalog.Table, insertSql string, mapping *ordered_map.OrderedMap) (int64, error) {
	body, err := client.Open(ctx, key)
	if err != nil {
		return 0, err
	}
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.UseNumber()
	var rows int64
	for {
		var v interface{}
		if err = dec.Decode(&v); err == io.EOF {
			return rows, nil
		} else if err != nil {
			return rows, fmt.Errorf("invalid JSON after %v records: %w", rows, err)
		}
		records := []interface{}{v}
		if a, ok := v.([]interface{}); ok {
			records = a
		}
		for _, r := range records {
			obj, ok := r.(map[string]interface{})
			if !ok {
				return rows, fmt.Errorf("expected a JSON object at record %v, got %T", rows+1, r)
			}
			row, err := buildRow(table, mapping, obj)
			if err != nil {
				return rows, err
			}
			q, args, err := sqlx.Named(insertSql, row)
			if err != nil {
				return rows, err
			}
			if _, err = tx.ExecContext(ctx, sqlx.Rebind(l.bindType(), q), args...); err != nil {
				return rows, err
			}
			rows++
		}
	}
}

// fieldMapping maps each column, in column order, to the JSON field it is read from.
// With a JSONPaths file the mapping is positional; otherwise the column name is used
// and matched case insensitively.
func (l *Loader) fieldMapping(ctx context.Context, table catalog.Table, src catalog.CopySource) (*ordered_map.OrderedMap, error) {
	mapping := ordered_map.NewOrderedMap()
	cols := table.ColumnNames()
	if src.JSONPaths == "" {
		for _, c := range cols {
			mapping.Set(c, c)
		}
		return mapping, nil
	}
	b, err := s3.ParseDSN(src.JSONPaths, regionOrDefault(src.Region))
	if err != nil {
		return nil, err
	}
	client, err := l.newClient(s3.AwsS3Bucket{Name: b.Name, Region: b.Region})
	if err != nil {
		return nil, err
	}
	data, err := client.Get(ctx, b.Prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read JSONPaths file %v", src.JSONPaths)
	}
	fields, err := ParseJSONPaths(data)
	if err != nil {
		return nil, err
	}
	if len(fields) != len(cols) {
		return nil, fmt.Errorf("JSONPaths file %v has %v expressions but %v has %v columns",
			src.JSONPaths, len(fields), table.Name, len(cols))
	}
	for idx, c := range cols {
		mapping.Set(c, fields[idx])
	}
	return mapping, nil
}

// buildRow returns the named parameters for one record.
func buildRow(table catalog.Table, mapping *ordered_map.OrderedMap, obj map[string]interface{}) (map[string]interface{}, error) {
	lower := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		lower[strings.ToLower(k)] = v
	}
	row := make(map[string]interface{}, len(table.Columns))
	idx := 0
	iter := mapping.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() { // for each column in order...
		col := table.Columns[idx]
		idx++
		field := kv.Value.(string)
		v, found := obj[field]
		if !found {
			v = lower[strings.ToLower(field)]
		}
		cv, err := coerce(col, v)
		if err != nil {
			return nil, fmt.Errorf("column %v: %w", col.Name, err)
		}
		row[kv.Key.(string)] = cv
	}
	return row, nil
}

// coerce converts a decoded JSON value to the Go type for the column.
// Empty strings in numeric columns load as NULL.
func coerce(col catalog.Column, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch col.Type {
	case catalog.Integer, catalog.BigInt:
		s := strings.TrimSpace(fmt.Sprint(v))
		if s == "" {
			return nil, nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", s)
		}
		return int64(f), nil
	case catalog.Float:
		s := strings.TrimSpace(fmt.Sprint(v))
		if s == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", s)
		}
		return f, nil
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(x)
		return string(b), err
	}
	return fmt.Sprint(v), nil
}

func (l *Loader) bindType() int {
	switch l.cat.Dialect.Name() {
	case constants.ConnectionTypeRedshift, constants.ConnectionTypePostgres:
		return sqlx.DOLLAR
	}
	return sqlx.QUESTION
}

func regionOrDefault(r string) string {
	if r == "" {
		return constants.DefaultS3Region
	}
	return r
}
