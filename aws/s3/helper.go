package s3

import (
	"fmt"
	"net/url"
	"strings"
)

// AwsS3Bucket is a bucket and key prefix parsed from an s3:// URL.
type AwsS3Bucket struct {
	Name   string `errorTxt:"bucket name" mandatory:"yes"`
	Prefix string `errorTxt:"bucket prefix"`
	Region string `errorTxt:"bucket region" mandatory:"yes"`
}

// String returns the bucket as an s3:// URL.
func (d AwsS3Bucket) String() string {
	if d.Prefix == "" {
		return fmt.Sprintf("s3://%v", d.Name)
	}
	return fmt.Sprintf("s3://%v/%v", d.Name, d.Prefix)
}

// ParseDSN expects bucketPrefix to be of the form [s3://]<bucket>/<prefix>
// It returns an AwsS3Bucket populated with the components of bucketPrefix and the supplied region.
// If there is a parsing error it returns an error.
func ParseDSN(bucketPrefix string, region string) (retval AwsS3Bucket, err error) {
	expectedScheme := "s3"
	if !strings.Contains(bucketPrefix, "://") {
		bucketPrefix = expectedScheme + "://" + bucketPrefix
	}
	s3url, err := url.Parse(bucketPrefix)
	if err != nil {
		return retval, fmt.Errorf("error parsing S3 URL: %v", err)
	}
	if s3url.Scheme != expectedScheme {
		return retval, fmt.Errorf("expected S3 URL scheme %q but got %q", expectedScheme, s3url.Scheme)
	}
	if region == "" {
		return retval, fmt.Errorf("value expected for bucket region")
	}
	retval.Name = s3url.Host
	if retval.Name == "" {
		return retval, fmt.Errorf("DSN failed to parse bucket name")
	}
	retval.Prefix = strings.TrimLeft(s3url.Path, "/")
	retval.Region = region
	return
}

// ClientFactory opens a BasicClient for a bucket and prefix.
type ClientFactory func(b AwsS3Bucket) (BasicClient, error)

// NewClientFactory returns a ClientFactory that shares the credentials and endpoint in base.
func NewClientFactory(base ClientConfig) ClientFactory {
	return func(b AwsS3Bucket) (BasicClient, error) {
		cfg := base
		cfg.Bucket = b.Name
		cfg.Prefix = b.Prefix
		if b.Region != "" {
			cfg.Region = b.Region
		}
		return NewBasicClient(cfg)
	}
}
