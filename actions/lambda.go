package actions

import (
	"context"
)

// LambdaHandler is the function handed to lambda.Start.
type LambdaHandler func(ctx context.Context, req TaskRequest) (TaskResponse, error)

// NewLambdaHandler returns a handler that runs one task per invocation.
// A request without a task runs defaultTask, which is normally read from the environment.
func NewLambdaHandler(rc *RunConfig, defaultTask string) LambdaHandler {
	return func(ctx context.Context, req TaskRequest) (TaskResponse, error) {
		if req.Task == "" {
			req.Task = defaultTask
		}
		s, err := newSession(rc)
		if err != nil {
			return TaskResponse{Status: Error, Task: req.Task, Message: err.Error()}, err
		}
		defer s.close()
		s.log.Info("lambda invocation for task ", req.Task)
		return NewTaskRunner(s.log, s.factory).Run(ctx, req)
	}
}
