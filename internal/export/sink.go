package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/tablefetch/tablefetch/internal/storage"
)

const parquetContentType = "application/octet-stream"

type Sink struct {
	Store storage.ObjectStore
}

func NewSink(store storage.ObjectStore) (*Sink, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	return &Sink{Store: store}, nil
}

// WriteRows encodes rows to parquet and uploads them under key.
func (s *Sink) WriteRows(ctx context.Context, key string, columns []string, rows [][]any) (storage.ObjectInfo, error) {
	payload, err := EncodeRowsToParquet(columns, rows)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	info, err := s.Store.Put(ctx, key, bytes.NewReader(payload), int64(len(payload)), storage.PutOptions{ContentType: parquetContentType})
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("upload export %q: %w", key, err)
	}
	return info, nil
}
