package shared

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// DescribeError adds the PostgreSQL error code and detail to err when the server supplied them.
// Redshift speaks the same protocol so its errors are covered too.
func DescribeError(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		s := fmt.Sprintf("%v (code %v)", pgErr.Message, pgErr.Code)
		if pgErr.Detail != "" {
			s = fmt.Sprintf("%v: %v", s, pgErr.Detail)
		}
		if pgErr.Hint != "" {
			s = fmt.Sprintf("%v; hint: %v", s, pgErr.Hint)
		}
		return s
	}
	return fmt.Sprint(err)
}
