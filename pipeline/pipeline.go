package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/operators"
)

// Builder turns a task into the operator that executes it.
type Builder func(t Task) (operators.Operator, error)

// Pipeline runs tasks one after another, retrying each failed task.
type Pipeline struct {
	Log        logger.Logger
	Tasks      []Task
	Retries    int
	RetryDelay time.Duration
}

// TaskResult records the outcome of one task.
type TaskResult struct {
	ID       string        `json:"task_id"`
	Attempts int           `json:"attempts"`
	Elapsed  time.Duration `json:"elapsed"`
	Error    string        `json:"error,omitempty"`
}

// Run executes the ordered tasks. A task that still fails after Retries retries stops the run.
func (p *Pipeline) Run(ctx context.Context, build Builder) ([]TaskResult, error) {
	ordered, err := Order(p.Tasks)
	if err != nil {
		return nil, err
	}
	results := make([]TaskResult, 0, len(ordered))
	for _, t := range ordered {
		r := p.runTask(ctx, t, build)
		results = append(results, r)
		if r.Error != "" {
			return results, fmt.Errorf("task %v failed after %v attempts: %v", t.ID, r.Attempts, r.Error)
		}
	}
	p.Log.Info("all ", len(ordered), " tasks complete")
	return results, nil
}

func (p *Pipeline) runTask(ctx context.Context, t Task, build Builder) TaskResult {
	r := TaskResult{ID: t.ID}
	start := time.Now()
	for {
		r.Attempts++
		p.Log.Info("starting task ", t.ID, " attempt ", r.Attempts)
		err := p.execute(ctx, t, build)
		r.Elapsed = time.Since(start)
		if err == nil {
			r.Error = ""
			p.Log.Info("task ", t.ID, " complete")
			return r
		}
		r.Error = err.Error()
		if r.Attempts > p.Retries {
			p.Log.Error("task ", t.ID, " failed: ", err)
			return r
		}
		p.Log.Warn("task ", t.ID, " failed, retrying in ", p.RetryDelay, ": ", err)
		select {
		case <-ctx.Done():
			r.Error = ctx.Err().Error()
			return r
		case <-time.After(p.RetryDelay):
		}
	}
}

func (p *Pipeline) execute(ctx context.Context, t Task, build Builder) error {
	op, err := build(t)
	if err != nil {
		return errors.Wrapf(err, "unable to set up task %v", t.ID)
	}
	return op.Execute(ctx)
}

// Plan renders the ordered task list as YAML, or as JSON when format is "json".
func Plan(tasks []Task, format string) ([]byte, error) {
	ordered, err := Order(tasks)
	if err != nil {
		return nil, err
	}
	switch format {
	case "json":
		return json.MarshalIndent(ordered, "", "  ")
	case "yaml", "":
		return yaml.Marshal(ordered)
	}
	return nil, fmt.Errorf("unsupported plan format %q", format)
}

// NewFactoryBuilder maps each task kind onto the operator factory.
func NewFactoryBuilder(f *operators.Factory, connection string) Builder {
	return func(t Task) (operators.Operator, error) {
		switch t.Kind {
		case KindCreateTables:
			return f.CreateTables(connection, false)
		case KindStage:
			return f.Stage(operators.StageParams{Connection: connection, Table: t.Table})
		case KindLoad:
			return f.Load(operators.LoadParams{Connection: connection, Table: t.Table})
		case KindCheck:
			return f.Quality(connection)
		}
		return nil, fmt.Errorf("unknown task kind %q", t.Kind)
	}
}
