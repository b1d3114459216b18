package stats

import (
	"fmt"
	"sync"
	"time"
)

// Step statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// StepWatcher times one statement or task.
// The caller calls Start() and then exactly one of Complete() or Fail().
type StepWatcher struct {
	mu        sync.Mutex
	stepName  string
	status    string
	startTime time.Time
	elapsed   time.Duration
	rows      int64
	err       error
}

type Stats struct {
	StepName       string `json:"stepName"`
	StatusText     string `json:"statusText"`
	StatusEmoji    string `json:"statusEmoji"`
	ElapsedTimeSec int    `json:"elapsedTimeSec"`
	ElapsedMillis  int64  `json:"elapsedMillis"`
	RowsAffected   int64  `json:"rowsAffected"`
	Error          string `json:"error,omitempty"`
}

func NewStepWatcher(stepName string) *StepWatcher {
	return &StepWatcher{stepName: stepName}
}

func (n *StepWatcher) Start() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.startTime = time.Now()
	n.status = StatusRunning
	n.rows = 0
	n.err = nil
}

// Complete stops the clock and saves the number of rows the step affected (-1 if unknown).
func (n *StepWatcher) Complete(rows int64) time.Duration {
	return n.stop(StatusComplete, rows, nil)
}

// Fail stops the clock and saves err.
func (n *StepWatcher) Fail(err error) time.Duration {
	return n.stop(StatusFailed, 0, err)
}

func (n *StepWatcher) stop(status string, rows int64, err error) time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.elapsed = time.Since(n.startTime)
	n.status = status
	n.rows = rows
	n.err = err
	return n.elapsed
}

// Elapsed is the time taken so far, or the final time once stopped.
func (n *StepWatcher) Elapsed() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.status == StatusRunning {
		return time.Since(n.startTime)
	}
	return n.elapsed
}

// RenderStats gets a struct filled with stats at the point of time it is called.
func (n *StepWatcher) RenderStats() Stats {
	elapsed := n.Elapsed()
	n.mu.Lock()
	defer n.mu.Unlock()
	var statusEmoji string
	switch n.status {
	case StatusRunning:
		statusEmoji = "\U0000231B" // hour glass
	case StatusComplete:
		statusEmoji = "\U00002705" // green tick
	case StatusFailed:
		statusEmoji = "\U0000274C" // red cross
	}
	s := Stats{
		StepName:       n.stepName,
		StatusText:     n.status,
		StatusEmoji:    statusEmoji,
		ElapsedTimeSec: int(elapsed.Seconds()),
		ElapsedMillis:  elapsed.Milliseconds(),
		RowsAffected:   n.rows,
	}
	if n.err != nil {
		s.Error = n.err.Error()
	}
	return s
}

// String will format the stats for general logging.
func (s Stats) String() string {
	return fmt.Sprintf(
		"Stats for %v %v %v "+
			"elapsedMillis=%v "+
			"rowsAffected=%v",
		s.StepName, s.StatusText, s.StatusEmoji,
		s.ElapsedMillis,
		s.RowsAffected,
	)
}
