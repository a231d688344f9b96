package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidPath      = errors.New("invalid document path")
)

// Document is one stored record. Fields holds JSON-compatible values only.
type Document struct {
	ID     string
	Fields map[string]any
}

// DocumentStore is the storage collaborator. Collections are addressed by
// slash separated paths, documents by collection path + "/" + id.
type DocumentStore interface {
	List(ctx context.Context, collection string) ([]Document, error)
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)
	Update(ctx context.Context, docPath string, fields map[string]any) error
	Delete(ctx context.Context, docPath string) error
	Close() error
}

var lastPosition atomic.Int64

// nextPosition orders documents by insertion. Values are strictly increasing
// within one process.
func nextPosition() int64 {
	for {
		last := lastPosition.Load()
		next := time.Now().UnixNano()
		if next <= last {
			next = last + 1
		}
		if lastPosition.CompareAndSwap(last, next) {
			return next
		}
	}
}
