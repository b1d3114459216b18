package operators

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sparkify/sparkify-etl/aws/s3"
	"github.com/sparkify/sparkify-etl/aws/s3/mocks"
	"github.com/sparkify/sparkify-etl/catalog"
	"github.com/sparkify/sparkify-etl/config"
	"github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
)

func testLogger() logger.Logger {
	return logger.NewLogger("sparkify-test", "error", false)
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Warehouse: shared.ConnectionDetails{Type: constants.ConnectionTypeMock},
		S3: config.S3{
			Bucket:      "udacity-dend",
			LogData:     "log_data",
			SongData:    "song_data",
			LogJsonPath: "log_json_path.json",
		},
		IamRole: config.IamRole{Arn: "arn:aws:iam::123:role/dwh"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func statements(h []string) []string {
	retval := make([]string, 0)
	for _, s := range h {
		if s != shared.MockBegin && s != shared.MockCommit && s != shared.MockRollback {
			retval = append(retval, s)
		}
	}
	return retval
}

func TestStageOperator(t *testing.T) {
	log := testLogger()
	cat, _ := catalog.New(constants.ConnectionTypeRedshift, "")
	src := catalog.CopySource{Table: catalog.StagingEvents, Path: "s3://b/log_data", Credentials: catalog.Credentials{IAMRole: "arn"}}

	t.Run("delete then copy in one transaction", func(t *testing.T) {
		conn := shared.NewMockConnectionWithMockTx(log, constants.ConnectionTypeRedshift)
		op := &StageOperator{Log: log, Conn: conn, Catalog: cat, Source: src}
		if err := op.Execute(context.Background()); err != nil {
			t.Fatal(err)
		}
		h := conn.History()
		if len(h) != 4 || h[0] != shared.MockBegin || h[1] != "DELETE FROM staging_events" ||
			!strings.HasPrefix(h[2], "COPY staging_events FROM 's3://b/log_data'") || h[3] != shared.MockCommit {
			t.Fatalf("unexpected history: %v", h)
		}
	})
	t.Run("failed copy rolls back the delete", func(t *testing.T) {
		conn := shared.NewMockConnectionWithMockTx(log, constants.ConnectionTypeRedshift)
		conn.ExecFunc = func(q string) error {
			if strings.HasPrefix(q, "COPY") {
				return errors.New("Load into table 'staging_events' failed")
			}
			return nil
		}
		op := &StageOperator{Log: log, Conn: conn, Catalog: cat, Source: src}
		if err := op.Execute(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		h := conn.History()
		if h[len(h)-1] != shared.MockRollback {
			t.Fatalf("expected rollback; got: %v", h)
		}
	})
	t.Run("preflight lists the prefix", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		client := mocks.NewMockBasicClient(ctrl)
		client.EXPECT().List(gomock.Any(), "").Return([]string{}, nil)
		conn := shared.NewMockConnectionWithMockTx(log, constants.ConnectionTypeRedshift)
		op := &StageOperator{Log: log, Conn: conn, Catalog: cat, Source: src, Preflight: true,
			NewClient: func(b s3.AwsS3Bucket) (s3.BasicClient, error) {
				if b.Name != "b" || b.Prefix != "log_data" {
					t.Fatalf("unexpected bucket: %+v", b)
				}
				return client, nil
			}}
		if err := op.Execute(context.Background()); err != nil {
			t.Fatal(err)
		}
	})
}

func TestLoadTableOperator(t *testing.T) {
	log := testLogger()
	cat, _ := catalog.New(constants.ConnectionTypeRedshift, "")
	cases := []struct {
		mode     string
		expected []string
	}{
		{constants.LoadModeTruncateInsert, []string{"DELETE FROM users", "INSERT INTO users"}},
		{constants.LoadModeAppend, []string{"INSERT INTO users"}},
	}
	for _, tc := range cases {
		conn := shared.NewMockConnectionWithMockTx(log, constants.ConnectionTypeRedshift)
		op := &LoadTableOperator{Log: log, Conn: conn, Catalog: cat, Table: catalog.Users, Mode: tc.mode}
		if err := op.Execute(context.Background()); err != nil {
			t.Fatal(err)
		}
		got := statements(conn.History())
		if len(got) != len(tc.expected) {
			t.Fatalf("%v: expected %v statements; got: %v", tc.mode, len(tc.expected), got)
		}
		for i := range got {
			if !strings.HasPrefix(got[i], tc.expected[i]) {
				t.Fatalf("%v: expected prefix %q; got: %v", tc.mode, tc.expected[i], got[i])
			}
		}
	}
	op := &LoadTableOperator{Log: log, Conn: shared.NewMockConnectionWithMockTx(log, "mock"), Catalog: cat, Table: catalog.Users, Mode: "upsert"}
	if err := op.Execute(context.Background()); err == nil {
		t.Fatal("expected error for unsupported mode")
	}
}

func TestConnectionProvider(t *testing.T) {
	log := testLogger()
	p := NewConnectionProvider(log, testConfig())
	c1, _, err := p.Get("")
	if err != nil {
		t.Fatal(err)
	}
	c2, _, _ := p.Get(constants.DefaultConnectionName)
	if c1 != c2 {
		t.Fatal("expected the default connection to be reused")
	}
	if _, _, err = p.Get("missing"); err == nil {
		t.Fatal("expected error for unknown connection")
	}
	p.Close()
	if !c1.(*shared.MockConnection).Closed() {
		t.Fatal("expected the connection to be closed")
	}
}

func TestFactory(t *testing.T) {
	log := testLogger()
	cfg := testConfig()
	p := NewConnectionProvider(log, cfg)
	defer p.Close()
	f := NewFactory(log, cfg, p)

	t.Run("copy sources", func(t *testing.T) {
		srcs := f.CopySources()
		expected := []catalog.CopySource{
			{Table: catalog.StagingEvents, Path: "s3://udacity-dend/log_data", JSONPaths: "s3://udacity-dend/log_json_path.json",
				Region: constants.DefaultS3Region, Credentials: catalog.Credentials{IAMRole: cfg.IamRole.Arn}},
			{Table: catalog.StagingSongs, Path: "s3://udacity-dend/song_data",
				Region: constants.DefaultS3Region, Credentials: catalog.Credentials{IAMRole: cfg.IamRole.Arn}},
		}
		if !reflect.DeepEqual(srcs, expected) {
			t.Fatalf("expected: %+v; got: %+v", expected, srcs)
		}
	})
	t.Run("stage overrides", func(t *testing.T) {
		op, err := f.Stage(StageParams{Table: catalog.StagingSongs, Path: "s3://other/songs/2023", JSONPaths: "auto"})
		if err != nil {
			t.Fatal(err)
		}
		if op.Source.Path != "s3://other/songs/2023" || op.Source.JSONPaths != "" {
			t.Fatalf("unexpected source: %+v", op.Source)
		}
		if _, err = f.Stage(StageParams{Table: catalog.Users}); err == nil {
			t.Fatal("expected error staging a dimension table")
		}
	})
	t.Run("load modes", func(t *testing.T) {
		fact, _ := f.Load(LoadParams{Table: catalog.Songplays})
		dim, _ := f.Load(LoadParams{Table: catalog.Time})
		if fact.Mode != constants.LoadModeTruncateInsert || dim.Mode != constants.LoadModeTruncateInsert {
			t.Fatalf("unexpected modes: fact=%v dim=%v", fact.Mode, dim.Mode)
		}
		cfg.Pipeline.DimensionMode = constants.LoadModeAppend
		defer func() { cfg.Pipeline.DimensionMode = constants.LoadModeTruncateInsert }()
		fact, _ = f.Load(LoadParams{Table: catalog.Songplays})
		dim, _ = f.Load(LoadParams{Table: catalog.Time})
		if fact.Mode != constants.LoadModeTruncateInsert || dim.Mode != constants.LoadModeAppend {
			t.Fatalf("unexpected modes after config change: fact=%v dim=%v", fact.Mode, dim.Mode)
		}
		explicit, _ := f.Load(LoadParams{Table: catalog.Songplays, Mode: constants.LoadModeAppend})
		if explicit.Mode != constants.LoadModeAppend {
			t.Fatalf("expected an explicit append to be kept; got: %v", explicit.Mode)
		}
		if _, err := f.Load(LoadParams{Table: catalog.StagingEvents}); err == nil {
			t.Fatal("expected error loading a staging table")
		}
		quoted, err := f.Load(LoadParams{Table: `"Songs"`})
		if err != nil || quoted.Table != catalog.Songs {
			t.Fatalf("expected a quoted name to resolve; got: %+v, %v", quoted, err)
		}
		if _, err = f.Load(LoadParams{Table: "other.songs"}); err == nil {
			t.Fatal("expected error for a table in another schema")
		}
	})
	t.Run("checks", func(t *testing.T) {
		_, cat, _ := f.Connect("")
		if len(f.Checks(cat)) != 10 {
			t.Fatal("expected the default checks")
		}
		cfg.QualityChecks = []config.QualityCheck{{CheckSql: "SELECT 1", ExpectedResult: 1}}
		defer func() { cfg.QualityChecks = nil }()
		got := f.Checks(cat)
		if len(got) != 1 || got[0].SQL != "SELECT 1" || got[0].Expected != 1 {
			t.Fatalf("unexpected checks: %+v", got)
		}
	})
	t.Run("access keys without a role", func(t *testing.T) {
		cfg.IamRole.Arn = ""
		cfg.Aws = config.AwsCredentials{AccessKeyID: "AK", SecretAccessKey: "SK"}
		if c := f.Credentials(); c.AccessKeyID != "AK" || c.IAMRole != "" {
			t.Fatalf("unexpected credentials: %+v", c)
		}
	})
}
