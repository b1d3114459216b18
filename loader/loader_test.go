package loader

import (
	"context"
	"errors"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sparkify/sparkify-etl/aws/s3"
	"github.com/sparkify/sparkify-etl/aws/s3/mocks"
	"github.com/sparkify/sparkify-etl/catalog"
	"github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
)

const songA = `{"num_songs": 1, "artist_id": "AR1", "artist_latitude": null, "artist_longitude": null, "artist_location": "", "artist_name": "Artist A", "song_id": "S1", "title": "Song A", "duration": 218.93179, "year": 0}`

const events = `{"artist":"Artist A","auth":"Logged In","firstName":"Ann","gender":"F","itemInSession":0,"lastName":"Lee","length":218.9,"level":"free","location":"Leeds","method":"PUT","page":"NextSong","registration":1540919166796.0,"sessionId":100,"song":"Song A","status":200,"ts":1541121934796,"userAgent":"Mozilla","userId":"10"}
{"artist":null,"auth":"Logged Out","firstName":null,"gender":null,"itemInSession":1,"lastName":null,"length":null,"level":"free","location":null,"method":"GET","page":"Home","registration":null,"sessionId":101,"song":null,"status":200,"ts":1541122000000,"userAgent":null,"userId":""}
`

func setup(t *testing.T) (shared.Connector, *catalog.Catalog, logger.Logger) {
	t.Helper()
	log := logger.NewLogger("sparkify-test", "error", false)
	db, err := rdbms.OpenDbConnection(log, shared.ConnectionDetails{Type: constants.ConnectionTypeSqlite, Path: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(db.Close)
	cat, _ := catalog.New(constants.ConnectionTypeSqlite, "")
	for _, s := range cat.CreateStatements() {
		if _, err := db.ExecContext(context.Background(), s.SQL); err != nil {
			t.Fatal(err)
		}
	}
	return db, cat, log
}

func body(s string) interface{} {
	return ioutil.NopCloser(strings.NewReader(s))
}

func count(t *testing.T, db shared.Connector, log logger.Logger, sql string) interface{} {
	t.Helper()
	v, err := rdbms.SqlQueryScalar(context.Background(), log, db, sql)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestCopySongsAutoFormat(t *testing.T) {
	db, cat, log := setup(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	client := mocks.NewMockBasicClient(ctrl)
	client.EXPECT().List(gomock.Any(), "").Return([]string{"song_data/B/b.json", "song_data/A/a.json"}, nil)
	gomock.InOrder(
		client.EXPECT().Open(gomock.Any(), "song_data/A/a.json").Return(body(songA), nil),
		client.EXPECT().Open(gomock.Any(), "song_data/B/b.json").Return(body(`[`+strings.Replace(songA, "S1", "S2", 1)+`]`), nil),
	)
	var opened s3.AwsS3Bucket
	l := New(log, cat, func(b s3.AwsS3Bucket) (s3.BasicClient, error) {
		opened = b
		return client, nil
	})
	tx, _ := db.BeginTx(context.Background())
	rows, err := l.Copy(context.Background(), tx, catalog.CopySource{Table: catalog.StagingSongs, Path: "s3://udacity-dend/song_data"})
	if err != nil {
		t.Fatal(err)
	}
	_ = tx.Commit()
	if rows != 2 {
		t.Fatalf("expected: 2 rows; got: %v", rows)
	}
	if opened.Name != "udacity-dend" || opened.Prefix != "song_data" || opened.Region != constants.DefaultS3Region {
		t.Fatalf("unexpected bucket: %+v", opened)
	}
	if got := count(t, db, log, "SELECT COUNT(*) FROM staging_songs WHERE artist_latitude IS NULL AND year = 0"); got != int64(2) {
		t.Fatalf("expected: 2; got: %v", got)
	}
	if got := count(t, db, log, "SELECT duration FROM staging_songs WHERE song_id = 'S1'"); got != 218.93179 {
		t.Fatalf("expected: 218.93179; got: %v", got)
	}
}

func TestCopyEventsWithJSONPaths(t *testing.T) {
	db, cat, log := setup(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	paths := `{"jsonpaths": ["$['artist']", "$['auth']", "$['firstName']", "$['gender']", "$['itemInSession']", "$['lastName']",
		"$['length']", "$['level']", "$['location']", "$['method']", "$['page']", "$['registration']", "$['sessionId']",
		"$['song']", "$['status']", "$['ts']", "$['userAgent']", "$['userId']"]}`
	data := mocks.NewMockBasicClient(ctrl)
	data.EXPECT().List(gomock.Any(), "").Return([]string{"log_data/2018/11/2018-11-02-events.json"}, nil)
	data.EXPECT().Open(gomock.Any(), "log_data/2018/11/2018-11-02-events.json").Return(body(events), nil)
	meta := mocks.NewMockBasicClient(ctrl)
	meta.EXPECT().Get(gomock.Any(), "log_json_path.json").Return([]byte(paths), nil)
	l := New(log, cat, func(b s3.AwsS3Bucket) (s3.BasicClient, error) {
		if b.Prefix == "" {
			return meta, nil
		}
		return data, nil
	})
	tx, _ := db.BeginTx(context.Background())
	rows, err := l.Copy(context.Background(), tx, catalog.CopySource{
		Table:     catalog.StagingEvents,
		Path:      "s3://udacity-dend/log_data",
		JSONPaths: "s3://udacity-dend/log_json_path.json",
		Region:    "us-west-2",
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = tx.Commit()
	if rows != 2 {
		t.Fatalf("expected: 2 rows; got: %v", rows)
	}
	if got := count(t, db, log, "SELECT userId FROM staging_events WHERE page = 'NextSong'"); got != int64(10) {
		t.Fatalf("expected: 10; got: %v (%T)", got, got)
	}
	if got := count(t, db, log, "SELECT COUNT(*) FROM staging_events WHERE page = 'Home' AND userId IS NULL"); got != int64(1) {
		t.Fatalf("expected an empty userId to load as NULL; got: %v", got)
	}
	if got := count(t, db, log, "SELECT ts FROM staging_events WHERE page = 'NextSong'"); got != int64(1541121934796) {
		t.Fatalf("expected: 1541121934796; got: %v", got)
	}
}

func TestCopyErrors(t *testing.T) {
	db, cat, log := setup(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	client := mocks.NewMockBasicClient(ctrl)
	l := New(log, cat, func(b s3.AwsS3Bucket) (s3.BasicClient, error) {
		return client, nil
	})
	ctx := context.Background()
	tx, _ := db.BeginTx(ctx)
	defer func() { _ = tx.Rollback() }()

	t.Run("list failure", func(t *testing.T) {
		client.EXPECT().List(gomock.Any(), "").Return(nil, errors.New("AccessDenied"))
		if _, err := l.Copy(ctx, tx, catalog.CopySource{Table: catalog.StagingSongs, Path: "s3://b/song_data"}); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("bad json", func(t *testing.T) {
		client.EXPECT().List(gomock.Any(), "").Return([]string{"k"}, nil)
		client.EXPECT().Open(gomock.Any(), "k").Return(body(songA+"\n{oops"), nil)
		rows, err := l.Copy(ctx, tx, catalog.CopySource{Table: catalog.StagingSongs, Path: "s3://b/song_data"})
		if err == nil {
			t.Fatal("expected error")
		}
		if rows != 1 {
			t.Fatalf("expected 1 row before the error; got: %v", rows)
		}
	})
	t.Run("unknown table", func(t *testing.T) {
		if _, err := l.Copy(ctx, tx, catalog.CopySource{Table: "nope", Path: "s3://b/k"}); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestCoerce(t *testing.T) {
	cases := []struct {
		typ      catalog.ColumnType
		in       interface{}
		expected interface{}
	}{
		{catalog.Integer, "", nil},
		{catalog.Integer, "42", int64(42)},
		{catalog.BigInt, "1541121934796", int64(1541121934796)},
		{catalog.Float, "", nil},
		{catalog.Float, "1.5", 1.5},
		{catalog.Varchar, "x", "x"},
		{catalog.Varchar, nil, nil},
	}
	for _, tc := range cases {
		got, err := coerce(catalog.Column{Name: "c", Type: tc.typ}, tc.in)
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.expected {
			t.Fatalf("coerce(%v): expected: %v (%T); got: %v (%T)", tc.in, tc.expected, tc.expected, got, got)
		}
	}
	if _, err := coerce(catalog.Column{Name: "c", Type: catalog.Integer}, "abc"); err == nil {
		t.Fatal("expected error for invalid integer")
	}
}
