package runner

import (
	"context"
	"fmt"

	"github.com/sparkify/sparkify-etl/catalog"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
	"github.com/sparkify/sparkify-etl/stats"
)

// Copier loads a staging table from object storage inside tx when the warehouse has no native COPY.
type Copier interface {
	Copy(ctx context.Context, tx shared.Transacter, src catalog.CopySource) (rows int64, err error)
}

// CopyStep loads one staging table, natively or through a Copier.
type CopyStep struct {
	stmt   catalog.Statement
	native bool
	src    catalog.CopySource
	copier Copier
}

// NewCopyStep returns the step that loads src.Table.
// A warehouse without native COPY needs copier, else an error is returned.
func NewCopyStep(cat *catalog.Catalog, src catalog.CopySource, copier Copier) (*CopyStep, error) {
	stmt, ok, err := cat.CopyStatement(src)
	if err != nil {
		return nil, err
	}
	if !ok {
		if copier == nil {
			return nil, fmt.Errorf("%v has no native COPY and no local loader is configured", cat.Dialect.Name())
		}
		stmt.SQL = fmt.Sprintf("-- local load from %v using %v", src.Path, src.JSONFormat())
	}
	return &CopyStep{stmt: stmt, native: ok, src: src, copier: copier}, nil
}

func (s *CopyStep) Describe() (string, string) {
	return s.stmt.Name, s.stmt.SQL
}

func (s *CopyStep) Exec(ctx context.Context, tx shared.Transacter) (int64, error) {
	if s.native {
		return NewSqlStep(s.stmt).Exec(ctx, tx)
	}
	return s.copier.Copy(ctx, tx, s.src)
}

// LoadRunner runs the COPY phase followed by the INSERT phase.
type LoadRunner struct {
	Executor *Executor
	Catalog  *catalog.Catalog
	Sources  []catalog.CopySource // one per staging table
	Copier   Copier               // optional local loader
}

// Run executes each COPY then each INSERT in its own transaction.
// Failures are logged and rolled back; the run carries on.
func (r *LoadRunner) Run(ctx context.Context) ([]stats.Summary, error) {
	copySteps, err := r.CopySteps()
	if err != nil {
		return nil, err
	}
	return []stats.Summary{
		r.Executor.ExecEach(ctx, PhaseCopy, copySteps),
		r.Executor.ExecEach(ctx, PhaseTransform, SqlSteps(r.Catalog.InsertStatements())),
	}, nil
}

// CopySteps returns one CopyStep per source.
func (r *LoadRunner) CopySteps() ([]Step, error) {
	retval := make([]Step, 0, len(r.Sources))
	for _, src := range r.Sources {
		s, err := NewCopyStep(r.Catalog, src, r.Copier)
		if err != nil {
			return nil, err
		}
		retval = append(retval, s)
	}
	return retval, nil
}
