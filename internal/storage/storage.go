// internal/storage/storage.go
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
)

// Store persists uploaded media outside the database.
type Store interface {
	// Save writes size bytes from r under the given object key.
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Open returns a reader for the object. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Remove deletes the object. Removing a missing object is not an error.
	Remove(ctx context.Context, key string) error
	// URL returns a link callers can fetch the object from.
	URL(ctx context.Context, key string) (string, error)
}

// ObjectKey builds a unique object key preserving the original extension,
// grouped per submitting user.
func ObjectKey(userID uint, filename string) string {
	ext := filepath.Ext(filename)
	return fmt.Sprintf("users/%d/%s%s", userID, uuid.New().String(), ext)
}
