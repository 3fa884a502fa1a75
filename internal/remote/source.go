// Package remote abstracts the document source used for batch grading runs.
// The service and its tests only see the capability interfaces, never the
// bucket credentials behind them.
package remote

import (
    "context"
    "io"
    "path"
    "strings"

    "nivelador/pkg/logger"
    "nivelador/pkg/storage"
)

// Document is one remote entry eligible for grading.
type Document struct {
    Key  string `json:"key"`
    Name string `json:"name"`
}

// DocumentLister enumerates gradable documents under a prefix.
type DocumentLister interface {
    ListDocuments(ctx context.Context, prefix string) ([]Document, error)
}

// DocumentFetcher retrieves one document's bytes.
type DocumentFetcher interface {
    FetchDocument(ctx context.Context, key string) (io.ReadCloser, error)
}

// BucketSource serves both capabilities from an object-storage bucket.
type BucketSource struct {
    store  storage.Storage
    logger logger.Logger
}

func NewBucketSource(store storage.Storage, log logger.Logger) *BucketSource {
    return &BucketSource{
        store:  store,
        logger: log,
    }
}

// ListDocuments returns the bucket entries under prefix that look like
// supported book containers, in the stable order the store lists them.
func (b *BucketSource) ListDocuments(ctx context.Context, prefix string) ([]Document, error) {
    keys, err := b.store.List(ctx, prefix)
    if err != nil {
        return nil, err
    }

    docs := make([]Document, 0, len(keys))
    for _, key := range keys {
        ext := strings.ToLower(path.Ext(key))
        if ext != ".pdf" && ext != ".epub" {
            continue
        }
        docs = append(docs, Document{
            Key:  key,
            Name: path.Base(key),
        })
    }

    b.logger.Info("Listed remote documents",
        logger.String("prefix", prefix),
        logger.Int("count", len(docs)),
    )
    return docs, nil
}

// FetchDocument implements DocumentFetcher.
func (b *BucketSource) FetchDocument(ctx context.Context, key string) (io.ReadCloser, error) {
    return b.store.Get(ctx, key)
}
