// Package blobstore keeps binary payloads, such as payment screenshots,
// outside the relational store.
package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a reference does not resolve to a stored object.
var ErrNotFound = errors.New("blob not found")

// Object describes a stored payload.
type Object struct {
	Ref         string
	ContentType string
	Size        int64
}

// Store is implemented by every blob backend.
type Store interface {
	// Put stores data under a key hint and returns the reference to fetch it by.
	Put(ctx context.Context, key, contentType string, data []byte) (Object, error)
	Get(ctx context.Context, ref string) (io.ReadCloser, Object, error)
	Delete(ctx context.Context, ref string) error
	Close(ctx context.Context) error
}
