package operators

import (
	"context"
)

// Operator is one task an external scheduler can run.
// Execute returns an error when the task should be retried or the run stopped.
type Operator interface {
	Name() string
	Execute(ctx context.Context) error
}
