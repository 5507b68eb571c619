package adapter

import (
	"context"
	"time"
)

// ObjectInfo is the metadata returned by an existence probe.
type ObjectInfo struct {
	Size         int64
	ContentType  string
	LastModified time.Time
}

// ContentSource resolves document content references. Exists must not
// fetch the full object; Fetch returns the raw bytes.
type ContentSource interface {
	Exists(ctx context.Context, ref string) (ObjectInfo, error)
	Fetch(ctx context.Context, ref string) ([]byte, error)
}
