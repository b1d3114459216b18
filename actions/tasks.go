package actions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sparkify/sparkify-etl/catalog"
	c "github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/operators"
)

// Tasks a scheduler may request.
const (
	TaskStage  = "stage"
	TaskLoad   = "load"
	TaskCheck  = "check"
	TaskTables = "tables"
)

// TaskRequest is the body of an HTTP task request and the Lambda event.
type TaskRequest struct {
	Task       string `json:"task"`
	Connection string `json:"connection"`
	Table      string `json:"table"`
	Path       string `json:"s3_path"`
	JSONPaths  string `json:"json_path"`
	Mode       string `json:"mode"`
	Drop       bool   `json:"drop"`
}

type TaskResponse struct {
	Status        WebServerResponse `json:"status"`
	Task          string            `json:"task"`
	TaskId        string            `json:"taskId"`
	Operator      string            `json:"operator,omitempty"`
	Message       string            `json:"message"`
	ElapsedMillis int64             `json:"elapsedMillis"`
}

// InvalidTaskError means the request could not be turned into an operator.
type InvalidTaskError struct {
	Task string
	Err  error
}

func (e InvalidTaskError) Error() string {
	return fmt.Sprintf("invalid %q task: %v", e.Task, e.Err)
}

func (e InvalidTaskError) Unwrap() error {
	return e.Err
}

// TaskRunner executes one task at a time against the connections in the factory.
type TaskRunner struct {
	log     logger.Logger
	factory *operators.Factory
	mu      sync.Mutex
}

func NewTaskRunner(log logger.Logger, factory *operators.Factory) *TaskRunner {
	return &TaskRunner{log: log, factory: factory}
}

// Run builds and executes the operator for req.
// Requests are serialised so concurrent callers never share a connection.
func (r *TaskRunner) Run(ctx context.Context, req TaskRequest) (TaskResponse, error) {
	resp := TaskResponse{Status: Error, Task: req.Task, TaskId: xid.New().String()}
	if err := validate(req); err != nil {
		resp.Message = err.Error()
		return resp, err
	}
	op, err := r.build(req)
	if err != nil {
		err = errors.Wrapf(err, "unable to set up %v task", req.Task)
		resp.Message = err.Error()
		return resp, err
	}
	resp.Operator = op.Name()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.Info("task ", resp.TaskId, " running ", op.Name())
	start := time.Now()
	err = op.Execute(ctx)
	resp.ElapsedMillis = time.Since(start).Milliseconds()
	if err != nil {
		r.log.Error("task ", resp.TaskId, " failed: ", err)
		resp.Message = err.Error()
		return resp, errors.Wrapf(err, "task %v failed", op.Name())
	}
	resp.Status = Okay
	resp.Message = "complete"
	return resp, nil
}

// validate rejects requests that can never succeed.
func validate(req TaskRequest) error {
	var err error
	switch req.Task {
	case TaskStage:
		if t, _, e := catalog.ParseTable(req.Table); e != nil || t.Kind != catalog.KindStaging {
			err = fmt.Errorf("table %q is not a staging table", req.Table)
		}
	case TaskLoad:
		if t, _, e := catalog.ParseTable(req.Table); e != nil || t.Kind == catalog.KindStaging {
			err = fmt.Errorf("table %q is not a dimension or fact table", req.Table)
		}
		switch req.Mode {
		case "", c.LoadModeAppend, c.LoadModeTruncateInsert:
		default:
			err = fmt.Errorf("unsupported load mode %q", req.Mode)
		}
	case TaskCheck, TaskTables:
	default:
		err = errors.New("unknown task")
	}
	if err != nil {
		return InvalidTaskError{Task: req.Task, Err: err}
	}
	return nil
}

func (r *TaskRunner) build(req TaskRequest) (operators.Operator, error) {
	switch req.Task {
	case TaskStage:
		return r.factory.Stage(operators.StageParams{
			Connection: req.Connection,
			Table:      req.Table,
			Path:       req.Path,
			JSONPaths:  req.JSONPaths,
		})
	case TaskLoad:
		return r.factory.Load(operators.LoadParams{Connection: req.Connection, Table: req.Table, Mode: req.Mode})
	case TaskCheck:
		return r.factory.Quality(req.Connection)
	case TaskTables:
		return r.factory.CreateTables(req.Connection, req.Drop)
	}
	return nil, fmt.Errorf("unknown task %q", req.Task)
}
