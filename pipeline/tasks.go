package pipeline

import (
	"fmt"

	"github.com/sparkify/sparkify-etl/catalog"
)

// Task kinds.
const (
	KindCreateTables = "create_tables"
	KindStage        = "stage"
	KindLoad         = "load"
	KindCheck        = "check"
)

// Task is one node of the task list.
type Task struct {
	ID       string   `json:"task_id"`
	Kind     string   `json:"kind"`
	Table    string   `json:"table,omitempty"`
	Upstream []string `json:"upstream,omitempty"`
}

// DefaultTasks returns the fixed task list: create the tables, stage both sources,
// load the dimensions, then the fact table, then run the quality checks.
func DefaultTasks() []Task {
	dims := []string{catalog.Users, catalog.Artists, catalog.Songs, catalog.Time}
	tasks := []Task{
		{ID: "create_tables", Kind: KindCreateTables},
		{ID: "stage_events", Kind: KindStage, Table: catalog.StagingEvents, Upstream: []string{"create_tables"}},
		{ID: "stage_songs", Kind: KindStage, Table: catalog.StagingSongs, Upstream: []string{"create_tables"}},
	}
	dimIDs := make([]string, 0, len(dims))
	for _, d := range dims {
		id := fmt.Sprintf("load_%v_dim", d)
		dimIDs = append(dimIDs, id)
		tasks = append(tasks, Task{ID: id, Kind: KindLoad, Table: d, Upstream: []string{"stage_events", "stage_songs"}})
	}
	tasks = append(tasks,
		Task{ID: "load_songplays_fact", Kind: KindLoad, Table: catalog.Songplays, Upstream: dimIDs},
		Task{ID: "run_quality_checks", Kind: KindCheck, Upstream: []string{"load_songplays_fact"}},
	)
	return tasks
}

// Order sorts tasks so that every task follows its upstream tasks.
// Ties keep the order the tasks were given in. Unknown upstream ids and cycles are errors.
func Order(tasks []Task) ([]Task, error) {
	byID := make(map[string]int, len(tasks))
	for idx, t := range tasks {
		if _, dup := byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate task id %q", t.ID)
		}
		byID[t.ID] = idx
	}
	inDegree := make([]int, len(tasks))
	downstream := make([][]int, len(tasks))
	for idx, t := range tasks {
		for _, u := range t.Upstream {
			uIdx, ok := byID[u]
			if !ok {
				return nil, fmt.Errorf("task %q depends on unknown task %q", t.ID, u)
			}
			inDegree[idx]++
			downstream[uIdx] = append(downstream[uIdx], idx)
		}
	}
	done := make([]bool, len(tasks))
	retval := make([]Task, 0, len(tasks))
	for len(retval) < len(tasks) {
		next := -1
		for idx := range tasks { // pick the first ready task in input order...
			if !done[idx] && inDegree[idx] == 0 {
				next = idx
				break
			}
		}
		if next < 0 {
			return nil, fmt.Errorf("task list has a cycle")
		}
		done[next] = true
		retval = append(retval, tasks[next])
		for _, d := range downstream[next] {
			inDegree[d]--
		}
	}
	return retval, nil
}
