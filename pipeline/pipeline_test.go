package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/operators"
)

func ids(tasks []Task) []string {
	retval := make([]string, len(tasks))
	for i, t := range tasks {
		retval[i] = t.ID
	}
	return retval
}

func TestOrderDefaultTasks(t *testing.T) {
	got, err := Order(DefaultTasks())
	if err != nil {
		t.Fatal(err)
	}
	expected := "create_tables,stage_events,stage_songs,load_users_dim,load_artists_dim,load_songs_dim,load_time_dim,load_songplays_fact,run_quality_checks"
	if strings.Join(ids(got), ",") != expected {
		t.Fatalf("expected: %v; got: %v", expected, ids(got))
	}
}

func TestOrderSortsUpstreamFirst(t *testing.T) {
	tasks := []Task{
		{ID: "c", Upstream: []string{"b"}},
		{ID: "b", Upstream: []string{"a"}},
		{ID: "a"},
		{ID: "d"},
	}
	got, err := Order(tasks)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(ids(got), ",") != "a,b,c,d" {
		t.Fatalf("expected: a,b,c,d; got: %v", ids(got))
	}
}

func TestOrderErrors(t *testing.T) {
	cases := map[string][]Task{
		"cycle":     {{ID: "a", Upstream: []string{"b"}}, {ID: "b", Upstream: []string{"a"}}},
		"unknown":   {{ID: "a", Upstream: []string{"z"}}},
		"duplicate": {{ID: "a"}, {ID: "a"}},
	}
	for name, tasks := range cases {
		if _, err := Order(tasks); err == nil {
			t.Fatalf("%v: expected error", name)
		}
	}
}

type fakeOperator struct {
	name  string
	fails int
	calls *[]string
}

func (o *fakeOperator) Name() string {
	return o.name
}

func (o *fakeOperator) Execute(ctx context.Context) error {
	*o.calls = append(*o.calls, o.name)
	if o.fails > 0 {
		o.fails--
		return errors.New("transient")
	}
	return nil
}

func TestRunRetriesThenSucceeds(t *testing.T) {
	calls := make([]string, 0)
	ops := map[string]*fakeOperator{
		"a": {name: "a", calls: &calls},
		"b": {name: "b", fails: 2, calls: &calls},
		"c": {name: "c", calls: &calls},
	}
	p := &Pipeline{
		Log:        logger.NewLogger("sparkify-test", "error", false),
		Tasks:      []Task{{ID: "a"}, {ID: "b", Upstream: []string{"a"}}, {ID: "c", Upstream: []string{"b"}}},
		Retries:    2,
		RetryDelay: time.Millisecond,
	}
	results, err := p.Run(context.Background(), func(t Task) (operators.Operator, error) {
		return ops[t.ID], nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(calls, ",") != "a,b,b,b,c" {
		t.Fatalf("expected: a,b,b,b,c; got: %v", calls)
	}
	if results[1].Attempts != 3 || results[1].Error != "" {
		t.Fatalf("unexpected result for b: %+v", results[1])
	}
}

func TestRunStopsAfterRetriesExhausted(t *testing.T) {
	calls := make([]string, 0)
	ops := map[string]*fakeOperator{
		"a": {name: "a", fails: 5, calls: &calls},
		"b": {name: "b", calls: &calls},
	}
	p := &Pipeline{
		Log:        logger.NewLogger("sparkify-test", "error", false),
		Tasks:      []Task{{ID: "a"}, {ID: "b", Upstream: []string{"a"}}},
		Retries:    1,
		RetryDelay: time.Millisecond,
	}
	results, err := p.Run(context.Background(), func(t Task) (operators.Operator, error) {
		return ops[t.ID], nil
	})
	if err == nil || !strings.Contains(err.Error(), "task a failed after 2 attempts") {
		t.Fatalf("expected task a to fail after 2 attempts; got: %v", err)
	}
	if len(results) != 1 || strings.Join(calls, ",") != "a,a" {
		t.Fatalf("expected b never to run; got calls: %v", calls)
	}
}

func TestRunBuildError(t *testing.T) {
	p := &Pipeline{Log: logger.NewLogger("sparkify-test", "error", false), Tasks: []Task{{ID: "a"}}}
	_, err := p.Run(context.Background(), func(t Task) (operators.Operator, error) {
		return nil, errors.New("no connection")
	})
	if err == nil || !strings.Contains(err.Error(), "unable to set up task a") {
		t.Fatalf("expected set up error; got: %v", err)
	}
}

func TestPlan(t *testing.T) {
	y, err := Plan(DefaultTasks(), "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(y), "- kind: create_tables\n  task_id: create_tables\n") {
		t.Fatalf("unexpected yaml plan: %v", string(y))
	}
	j, err := Plan(DefaultTasks(), "json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(j), `"task_id": "load_songplays_fact"`) {
		t.Fatalf("unexpected json plan: %v", string(j))
	}
	if _, err = Plan(DefaultTasks(), "xml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
