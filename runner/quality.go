package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/diegoholiveira/jsonlogic"
	"github.com/pkg/errors"
	"github.com/sparkify/sparkify-etl/catalog"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
)

// CheckFailedError is returned by QualityRunner.Run for the first check that did not pass.
type CheckFailedError struct {
	Check  catalog.Check
	Actual interface{}
}

func (e CheckFailedError) Error() string {
	if e.Check.Rule != "" {
		return fmt.Sprintf("data quality check %q failed: rule %v is not true for result %v; SQL: %v",
			e.Check.Name, e.Check.Rule, e.Actual, e.Check.SQL)
	}
	return fmt.Sprintf("data quality check %q failed: expected %v, got %v; SQL: %v",
		e.Check.Name, e.Check.Expected, e.Actual, e.Check.SQL)
}

// QualityRunner executes checks in order and stops at the first failure.
type QualityRunner struct {
	log logger.Logger
	db  shared.Querier
}

func NewQualityRunner(log logger.Logger, db shared.Querier) *QualityRunner {
	return &QualityRunner{log: log, db: db}
}

// Run returns a CheckFailedError for the first mismatch, or a wrapped error when a query fails.
func (q *QualityRunner) Run(ctx context.Context, checks []catalog.Check) error {
	for idx, c := range checks {
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("check %v", idx+1)
			c.Name = name
		}
		if c.Rule != "" && !jsonlogic.IsValid(strings.NewReader(c.Rule)) {
			return fmt.Errorf("invalid JSON Logic rule for %q: %v", name, c.Rule)
		}
		actual, err := rdbms.SqlQueryScalar(ctx, q.log, q.db, c.SQL)
		if err != nil {
			return errors.Wrapf(err, "data quality check %q", name)
		}
		ok, err := Passes(c, actual)
		if err != nil {
			return errors.Wrapf(err, "data quality check %q", name)
		}
		if !ok {
			return CheckFailedError{Check: c, Actual: Normalise(actual)}
		}
		q.log.Info("data quality check ", name, " passed with result ", Normalise(actual))
	}
	q.log.Info("all ", len(checks), " data quality checks passed")
	return nil
}

// Passes applies the check's rule, or compares actual with the expected value.
func Passes(c catalog.Check, actual interface{}) (bool, error) {
	if c.Rule != "" {
		return applyRule(c.Rule, actual)
	}
	return Equal(c.Expected, actual), nil
}

func applyRule(rule string, actual interface{}) (bool, error) {
	data, err := json.Marshal(map[string]interface{}{"result": Normalise(actual)})
	if err != nil {
		return false, fmt.Errorf("error marshalling result before applying JSON logic: %v", err)
	}
	result := bytes.Buffer{}
	if err = jsonlogic.Apply(strings.NewReader(rule), bytes.NewReader(data), &result); err != nil {
		return false, fmt.Errorf("error applying JSON logic: %v", err)
	}
	return strings.TrimSpace(result.String()) == "true", nil
}

// Equal compares two scalars after Normalise, so 5, int64(5), 5.0 and "5" from a driver
// all match an expected value of 5.
func Equal(expected interface{}, actual interface{}) bool {
	e := Normalise(expected)
	a := Normalise(actual)
	if e == nil || a == nil {
		return e == nil && a == nil
	}
	ef, eIsNum := toFloat(e)
	af, aIsNum := toFloat(a)
	if eIsNum && aIsNum {
		return ef == af
	}
	return fmt.Sprint(e) == fmt.Sprint(a)
}

// Normalise converts driver values to int64, float64, string, bool or nil.
// Whole floats become int64 and numeric strings keep their string form.
func Normalise(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case string, bool, int64:
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	case float32:
		return Normalise(float64(x))
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	}
	return fmt.Sprint(v)
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
