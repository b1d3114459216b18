package rdbms

import (
	"context"
	"fmt"

	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
)

// SqlQueryScalar runs sqltext and returns the first column of the first row.
// The value is returned as the driver supplied it. A query without rows returns an error.
func SqlQueryScalar(ctx context.Context, log logger.Logger, db shared.Querier, sqltext string) (interface{}, error) {
	rows, err := db.QueryContext(ctx, sqltext)
	if err != nil {
		return nil, fmt.Errorf("error during database query using SQL: '%v': %w", sqltext, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("query returned no columns: '%v'", sqltext)
	}
	// Scan the values dynamically.
	scanPtrs := make([]interface{}, len(cols))
	scanVals := make([]interface{}, len(cols))
	for idx := range cols { // for each column...
		scanPtrs[idx] = &scanVals[idx]
	}
	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("query returned no rows: '%v'", sqltext)
	}
	if err = rows.Scan(scanPtrs...); err != nil {
		return nil, fmt.Errorf("error scanning row: %w", err)
	}
	log.Debug("query returned ", scanVals[0], " (", fmt.Sprintf("%T", scanVals[0]), ") for: ", sqltext)
	return scanVals[0], nil
}
