// Package blob persists per-resort audit documents to object storage.
// Blob writes are best effort; the database remains the source of truth.
package blob

import (
	"context"
	"path"
)

// Store is the object storage surface the pipeline depends on.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// PathFor returns the canonical audit document key for a resort asset
// path, e.g. "resorts/vail/dining-venues.json". Repeated runs overwrite
// the same key so the blob always reflects the latest enrichment.
func PathFor(assetPath string) string {
	return path.Join("resorts", assetPath, "dining-venues.json")
}
