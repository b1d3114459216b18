package catalog

import (
	"fmt"
)

// Check is a data quality query. The first column of the first row is compared with Expected,
// or passed to the JSON Logic Rule as {"result": value} when Rule is set.
type Check struct {
	Name     string      `json:"name" yaml:"name"`
	SQL      string      `json:"check_sql" yaml:"check_sql"`
	Expected interface{} `json:"expected_result,omitempty" yaml:"expected_result,omitempty"`
	Rule     string      `json:"rule,omitempty" yaml:"rule,omitempty"`
}

// RuleHasRows passes when the result is a positive number.
const RuleHasRows = `{">": [{"var": "result"}, 0]}`

// DefaultChecks returns, for every analytics table, a check that it has rows and
// a check that its primary key has no NULLs.
func (c *Catalog) DefaultChecks() []Check {
	retval := make([]Check, 0)
	for _, t := range AnalyticsTables() {
		name := c.QualifiedName(t.Name)
		retval = append(retval, Check{
			Name: t.Name + " has rows",
			SQL:  fmt.Sprintf("SELECT COUNT(*) FROM %v", name),
			Rule: RuleHasRows,
		})
		if pk := t.PrimaryKey(); pk != "" {
			retval = append(retval, Check{
				Name:     t.Name + " has no null " + pk,
				SQL:      fmt.Sprintf("SELECT COUNT(*) FROM %v WHERE %v IS NULL", name, pk),
				Expected: 0,
			})
		}
	}
	return retval
}
