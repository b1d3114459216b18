package pipeline

import (
	"context"
	"io"
	"io/ioutil"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sparkify/sparkify-etl/aws/s3"
	"github.com/sparkify/sparkify-etl/aws/s3/mocks"
	"github.com/sparkify/sparkify-etl/catalog"
	"github.com/sparkify/sparkify-etl/config"
	"github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/operators"
	"github.com/sparkify/sparkify-etl/rdbms"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
)

const rerunSongs = `{"num_songs": 1, "artist_id": "AR1", "artist_latitude": null, "artist_longitude": null, "artist_location": "Leeds", "artist_name": "Artist A", "song_id": "S1", "title": "Song A", "duration": 200.5, "year": 2000}`

const rerunEvents = `{"artist":"Artist A","auth":"Logged In","firstName":"Ann","gender":"F","itemInSession":0,"lastName":"Lee","length":200.5,"level":"free","location":"Leeds","method":"PUT","page":"NextSong","registration":1540919166796.0,"sessionId":100,"song":"Song A","status":200,"ts":1541121934796,"userAgent":"Mozilla","userId":"10"}
{"artist":null,"auth":"Logged In","firstName":"Bob","gender":"M","itemInSession":1,"lastName":"Ray","length":null,"level":"free","location":"York","method":"GET","page":"Home","registration":null,"sessionId":200,"song":null,"status":200,"ts":1541122000000,"userAgent":"Safari","userId":"11"}
`

// newObjectStore serves each prefix's objects from memory, handing out a fresh reader per Open.
func newObjectStore(ctrl *gomock.Controller, objects map[string]map[string]string) s3.ClientFactory {
	return func(b s3.AwsS3Bucket) (s3.BasicClient, error) {
		files := objects[b.Prefix]
		client := mocks.NewMockBasicClient(ctrl)
		client.EXPECT().List(gomock.Any(), "").DoAndReturn(func(ctx context.Context, key string) ([]string, error) {
			keys := make([]string, 0, len(files))
			for k := range files {
				keys = append(keys, k)
			}
			return keys, nil
		}).AnyTimes()
		client.EXPECT().Open(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, key string) (io.ReadCloser, error) {
			body, ok := files[key]
			if !ok {
				return nil, s3.ErrKeyNotFound
			}
			return ioutil.NopCloser(strings.NewReader(body)), nil
		}).AnyTimes()
		return client, nil
	}
}

func TestRunTwiceReplacesEveryTable(t *testing.T) {
	log := logger.NewLogger("sparkify-test", "error", false)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	cfg := &config.Config{
		Warehouse: shared.ConnectionDetails{Type: constants.ConnectionTypeSqlite, Path: ":memory:"},
		S3:        config.S3{Bucket: "udacity-dend", LogData: "log_data", SongData: "song_data"},
	}
	cfg.ApplyDefaults()
	provider := operators.NewConnectionProvider(log, cfg)
	defer provider.Close()
	f := operators.NewFactory(log, cfg, provider)
	f.NewClient = newObjectStore(ctrl, map[string]map[string]string{
		"log_data":  {"log_data/2018/11/2018-11-02-events.json": rerunEvents},
		"song_data": {"song_data/A/A/S1.json": rerunSongs},
	})
	p := &Pipeline{Log: log, Tasks: DefaultTasks(), RetryDelay: time.Millisecond}
	expected := map[string]int64{
		catalog.StagingEvents: 2,
		catalog.StagingSongs:  1,
		catalog.Users:         1,
		catalog.Artists:       1,
		catalog.Songs:         1,
		catalog.Time:          1,
		catalog.Songplays:     1,
	}
	for run := 1; run <= 2; run++ {
		if _, err := p.Run(context.Background(), NewFactoryBuilder(f, "")); err != nil {
			t.Fatalf("run %v: %v", run, err)
		}
		conn, _, err := provider.Get("")
		if err != nil {
			t.Fatal(err)
		}
		for table, rows := range expected {
			v, err := rdbms.SqlQueryScalar(context.Background(), log, conn, "SELECT COUNT(*) FROM "+table)
			if err != nil {
				t.Fatal(err)
			}
			if got, ok := v.(int64); !ok || got != rows {
				t.Fatalf("run %v: expected %v rows in %v; got: %v", run, rows, table, v)
			}
		}
	}
}
