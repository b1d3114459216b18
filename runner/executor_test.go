package runner

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/sparkify/sparkify-etl/catalog"
	"github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
)

func newMock(t *testing.T) (*shared.MockConnection, logger.Logger) {
	t.Helper()
	log := logger.NewLogger("sparkify-test", "error", false)
	return shared.NewMockConnectionWithMockTx(log, constants.ConnectionTypeMock), log
}

func TestExecEachContinuesAfterFailure(t *testing.T) {
	conn, log := newMock(t)
	conn.ExecFunc = func(q string) error {
		if q == "two" {
			return errors.New("relation does not exist")
		}
		return nil
	}
	steps := SqlSteps([]catalog.Statement{{Name: "1", SQL: "one"}, {Name: "2", SQL: "two"}, {Name: "3", SQL: "three"}})
	s := NewExecutor(log, conn).ExecEach(context.Background(), "test", steps)
	if s.Succeeded != 2 || s.Failed != 1 {
		t.Fatalf("expected 2 succeeded and 1 failed; got: %+v", s)
	}
	expected := []string{
		shared.MockBegin, "one", shared.MockCommit,
		shared.MockBegin, "two", shared.MockRollback,
		shared.MockBegin, "three", shared.MockCommit,
	}
	if got := conn.History(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected: %v; got: %v", expected, got)
	}
	if len(s.Steps) != 3 || s.Steps[1].StepName != "2" || s.Steps[1].Error == "" {
		t.Fatalf("expected per step stats with the failure recorded; got: %+v", s.Steps)
	}
}

func TestExecEachStopsWhenCancelled(t *testing.T) {
	conn, log := newMock(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewExecutor(log, conn).ExecEach(ctx, "test", SqlSteps([]catalog.Statement{{Name: "1", SQL: "one"}}))
	if s.Succeeded+s.Failed != 0 {
		t.Fatalf("expected nothing to run; got: %+v", s)
	}
	if len(conn.History()) != 0 {
		t.Fatalf("expected empty history; got: %v", conn.History())
	}
}

func TestExecAtomicRollsBackEverything(t *testing.T) {
	conn, log := newMock(t)
	conn.ExecFunc = func(q string) error {
		if strings.HasPrefix(q, "COPY") {
			return errors.New("S3ServiceException: access denied")
		}
		return nil
	}
	steps := SqlSteps([]catalog.Statement{
		{Name: "delete staging_events", SQL: "DELETE FROM staging_events"},
		{Name: "copy staging_events", SQL: "COPY staging_events FROM 's3://b/k'"},
	})
	_, err := NewExecutor(log, conn).ExecAtomic(context.Background(), "stage staging_events", steps)
	var se StepError
	if !errors.As(err, &se) {
		t.Fatalf("expected StepError; got: %v", err)
	}
	if se.Step != "copy staging_events" {
		t.Fatalf("expected failing step copy staging_events; got: %v", se.Step)
	}
	expected := []string{shared.MockBegin, "DELETE FROM staging_events", "COPY staging_events FROM 's3://b/k'", shared.MockRollback}
	if got := conn.History(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected: %v; got: %v", expected, got)
	}
}

func TestExecAtomicCommits(t *testing.T) {
	conn, log := newMock(t)
	steps := SqlSteps([]catalog.Statement{{Name: "a", SQL: "A"}, {Name: "b", SQL: "B"}})
	rows, err := NewExecutor(log, conn).ExecAtomic(context.Background(), "ab", steps)
	if err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Fatalf("expected: 1; got: %v", rows)
	}
	expected := []string{shared.MockBegin, "A", "B", shared.MockCommit}
	if got := conn.History(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected: %v; got: %v", expected, got)
	}
}

func TestRunLifecycleOrder(t *testing.T) {
	conn, log := newMock(t)
	cat, _ := catalog.New(constants.ConnectionTypeRedshift, "")
	summaries := RunLifecycle(context.Background(), NewExecutor(log, conn), cat)
	if len(summaries) != 2 || summaries[0].Succeeded != 7 || summaries[1].Succeeded != 7 {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}
	stmts := make([]string, 0)
	for _, h := range conn.History() {
		if h != shared.MockBegin && h != shared.MockCommit {
			stmts = append(stmts, h)
		}
	}
	if len(stmts) != 14 {
		t.Fatalf("expected 14 statements; got: %v", len(stmts))
	}
	for i := 0; i < 7; i++ {
		if !strings.HasPrefix(stmts[i], "DROP TABLE IF EXISTS") {
			t.Fatalf("expected drops first; got: %v", stmts[i])
		}
		if !strings.HasPrefix(stmts[i+7], "CREATE TABLE IF NOT EXISTS") {
			t.Fatalf("expected creates last; got: %v", stmts[i+7])
		}
	}
}

type fakeCopier struct {
	tables []string
	err    error
}

func (f *fakeCopier) Copy(ctx context.Context, tx shared.Transacter, src catalog.CopySource) (int64, error) {
	f.tables = append(f.tables, src.Table)
	return 2, f.err
}

func TestLoadRunnerNativeCopy(t *testing.T) {
	conn, log := newMock(t)
	cat, _ := catalog.New(constants.ConnectionTypeRedshift, "")
	r := &LoadRunner{
		Executor: NewExecutor(log, conn),
		Catalog:  cat,
		Sources: []catalog.CopySource{
			{Table: catalog.StagingEvents, Path: "s3://b/log_data", Credentials: catalog.Credentials{IAMRole: "arn"}},
			{Table: catalog.StagingSongs, Path: "s3://b/song_data", Credentials: catalog.Credentials{IAMRole: "arn"}},
		},
	}
	summaries, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summaries[0].Succeeded != 2 || summaries[1].Succeeded != 5 {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}
	stmts := make([]string, 0)
	for _, h := range conn.History() {
		if h != shared.MockBegin && h != shared.MockCommit {
			stmts = append(stmts, h)
		}
	}
	if !strings.HasPrefix(stmts[0], "COPY staging_events") || !strings.HasPrefix(stmts[1], "COPY staging_songs") {
		t.Fatalf("expected copies first; got: %v", stmts[:2])
	}
	if !strings.HasPrefix(stmts[6], "INSERT INTO songplays") {
		t.Fatalf("expected the fact table last; got: %v", stmts[6])
	}
}

func TestLoadRunnerLocalCopy(t *testing.T) {
	conn, log := newMock(t)
	cat, _ := catalog.New(constants.ConnectionTypeSqlite, "")
	src := []catalog.CopySource{{Table: catalog.StagingSongs, Path: "s3://b/song_data"}}
	r := &LoadRunner{Executor: NewExecutor(log, conn), Catalog: cat, Sources: src}
	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("expected error without a local loader")
	}
	fc := &fakeCopier{}
	r.Copier = fc
	summaries, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summaries[0].Succeeded != 1 || !reflect.DeepEqual(fc.tables, []string{catalog.StagingSongs}) {
		t.Fatalf("expected local copy of staging_songs; got: %+v %v", summaries[0], fc.tables)
	}
}
