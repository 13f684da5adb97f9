package cloudwriter

import (
	"context"
	"io"
)

// ObjectWriter buffers writes locally and uploads the object on Close.
type ObjectWriter interface {
	io.WriteCloser
}

// Factory creates writers for one object-storage backend.
type Factory interface {
	NewWriter(ctx context.Context, bucket, key string) (ObjectWriter, error)
}
