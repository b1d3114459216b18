package actions

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/runner"
)

const maxRequestBytes = 1 << 20

type WebServerResponse uint32

const (
	Okay WebServerResponse = iota + 1
	Error
)

func (w WebServerResponse) MarshalJSON() ([]byte, error) {
	var retval string
	switch w {
	case Okay:
		retval = "ok"
	case Error:
		retval = "error"
	default:
		err := fmt.Errorf("unhandled WebServerResponse value in MarshalJSON() conversion")
		return nil, err
	}
	return json.Marshal(retval)
}

func (w *WebServerResponse) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "ok":
		*w = Okay
	case "error":
		*w = Error
	default:
		return fmt.Errorf("unexpected status %q", s)
	}
	return nil
}

type ResponseSimple struct {
	ServerStatus WebServerResponse `json:"status"`
}

func GetHandlerHealth(log logger.Logger) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseSimple{ServerStatus: Okay})
	}
}

func GetHandlerStopServer(log logger.Logger, chanStop chan string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case chanStop <- "stop":
			log.Info("Stop signal sent")
		default: // already stopping
		}
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseSimple{ServerStatus: Okay})
	}
}

// GetHandlerTask runs the task named in the URL using parameters from the JSON body.
// An empty body is allowed for tasks that need no parameters.
func GetHandlerTask(log logger.Logger, tasks *TaskRunner) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		req := TaskRequest{}
		b, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
		if err == nil && len(b) > 0 {
			err = json.Unmarshal(b, &req)
		}
		req.Task = mux.Vars(r)["task"]
		if err != nil {
			logAndRespond(log, err, w, TaskResponse{Status: Error, Task: req.Task, Message: fmt.Sprintf("error unmarshalling JSON: %v", err)})
			return
		}
		resp, err := tasks.Run(r.Context(), req)
		if err != nil {
			log.Error(err)
			w.WriteHeader(statusCode(err))
			respond(log, w, resp)
			return
		}
		w.WriteHeader(http.StatusOK)
		respond(log, w, resp)
	}
}

// statusCode maps task errors onto HTTP status codes.
func statusCode(err error) int {
	if errors.As(err, &InvalidTaskError{}) {
		return http.StatusBadRequest
	}
	if errors.As(err, &runner.CheckFailedError{}) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// logAndRespond will log the error, write a http.StatusBadRequest and r to w.
func logAndRespond(log logger.Logger, err error, w http.ResponseWriter, r TaskResponse) {
	log.Error(err)
	w.WriteHeader(http.StatusBadRequest)
	respond(log, w, r)
}

// respond will marshal i to a string and write it to w.
func respond(log logger.Logger, w http.ResponseWriter, i interface{}) {
	j, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		log.Panic(err)
	}
	_, err = fmt.Fprint(w, string(j))
	if err != nil {
		log.Panic(err)
	}
}
