package s3

import (
	"context"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// fakeS3API serves two pages of keys and a single object.
type fakeS3API struct {
	s3iface.S3API
	listCalls []string
}

func (f *fakeS3API) ListObjectsWithContext(ctx aws.Context, in *s3.ListObjectsInput, opts ...request.Option) (*s3.ListObjectsOutput, error) {
	f.listCalls = append(f.listCalls, aws.StringValue(in.Prefix)+"|"+aws.StringValue(in.Marker))
	if aws.StringValue(in.Marker) == "" {
		return &s3.ListObjectsOutput{
			Contents: []*s3.Object{
				{Key: aws.String("log_data/")},
				{Key: aws.String("log_data/2018/11/a.json")},
			},
			IsTruncated: aws.Bool(true),
		}, nil
	}
	return &s3.ListObjectsOutput{
		Contents:    []*s3.Object{{Key: aws.String("log_data/2018/11/b.json")}},
		IsTruncated: aws.Bool(false),
	}, nil
}

func (f *fakeS3API) GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error) {
	if aws.StringValue(in.Key) == "log_data/2018/11/a.json" {
		return &s3.GetObjectOutput{Body: ioutil.NopCloser(strings.NewReader(`{"ts": 1}`))}, nil
	}
	return nil, awserr.New(s3.ErrCodeNoSuchKey, "missing", nil)
}

func TestBasicClient_List(t *testing.T) {
	api := &fakeS3API{}
	c := NewBasicClientWithAPI("udacity-dend", "", api)
	keys, err := c.List(context.Background(), "log_data")
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{"log_data/2018/11/a.json", "log_data/2018/11/b.json"}
	if len(keys) != len(expected) || keys[0] != expected[0] || keys[1] != expected[1] {
		t.Fatalf("expected: %v; got: %v", expected, keys)
	}
	if len(api.listCalls) != 2 || api.listCalls[1] != "log_data|log_data/2018/11/a.json" {
		t.Fatalf("unexpected paging: %v", api.listCalls)
	}
}

func TestBasicClient_Get(t *testing.T) {
	c := NewBasicClientWithAPI("udacity-dend", "", &fakeS3API{})
	b, err := c.Get(context.Background(), "log_data/2018/11/a.json")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"ts": 1}` {
		t.Fatalf("unexpected body: %s", b)
	}
	if _, err = c.Get(context.Background(), "nope"); err != ErrKeyNotFound {
		t.Fatalf("expected ErrKeyNotFound; got: %v", err)
	}
}

func TestGetKeyWithPrefix(t *testing.T) {
	c := &basicClient{prefix: "data/"}
	if got := c.getKeyWithPrefix("/song_data"); got != "data/song_data" {
		t.Fatalf("expected: data/song_data; got: %v", got)
	}
	if got := c.getKeyWithPrefix(""); got != "data/" {
		t.Fatalf("expected: data/; got: %v", got)
	}
}

func TestParseDSN(t *testing.T) {
	b, err := ParseDSN("s3://udacity-dend/log_data", "us-west-2")
	if err != nil {
		t.Fatal(err)
	}
	if b.Name != "udacity-dend" || b.Prefix != "log_data" || b.Region != "us-west-2" {
		t.Fatalf("unexpected bucket: %+v", b)
	}
	if b.String() != "s3://udacity-dend/log_data" {
		t.Fatalf("unexpected string: %v", b)
	}
	b, err = ParseDSN("udacity-dend", "us-west-2")
	if err != nil || b.Name != "udacity-dend" || b.Prefix != "" {
		t.Fatalf("unexpected bucket: %+v (%v)", b, err)
	}
	if _, err = ParseDSN("https://udacity-dend/x", "us-west-2"); err == nil {
		t.Fatal("expected error for wrong scheme")
	}
	if _, err = ParseDSN("s3://udacity-dend/x", ""); err == nil {
		t.Fatal("expected error for missing region")
	}
}
