//go:generate mockgen -package mocks -destination mocks/interface.go -source=interface.go
package s3

import (
	"context"
	"errors"
	"io"
)

var ErrKeyNotFound = errors.New("key not found")

type BasicClient interface {
	Lister
	Getter
	Opener
}

type Lister interface {
	// List returns all object keys that start with key, skipping folder placeholders.
	List(ctx context.Context, key string) (keys []string, err error)
}

type Getter interface {
	// Get returns ErrKeyNotFound if the given key doesn't exist.
	Get(ctx context.Context, key string) (data []byte, err error)
}

type Opener interface {
	// Open streams the object body; the caller must close it.
	// It returns ErrKeyNotFound if the given key doesn't exist.
	Open(ctx context.Context, key string) (body io.ReadCloser, err error)
}
