// Package blob is the object-store adapter. Postgres owns the rows and the
// ownership; this package owns nothing but bytes addressed by URL.
package blob

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means the URL resolved to no object in the store.
	ErrNotFound = errors.New("blob not found")

	// ErrUnavailable wraps network or backend failures.
	ErrUnavailable = errors.New("blob store unavailable")
)

// Content is the dual-mode read result: textual blobs that decode as UTF-8
// come back verbatim, everything else as base64. The shape is shared by
// text and binary files so neither gets corrupted in a JSON response.
type Content struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	IsBase64 bool   `json:"is_base64"`
}

// ObjectInfo describes one stored object, as returned by List.
type ObjectInfo struct {
	Key     string
	Updated time.Time
}

// Store is implemented by each storage backend. All methods surface backend
// failures as errors wrapping ErrUnavailable.
type Store interface {
	// Upload stores data under a freshly generated unique key inside the
	// given scope and returns the object's public URL.
	Upload(ctx context.Context, data []byte, contentType, scope, filename string) (string, error)

	// FetchContent resolves the URL back to an object and returns its
	// decoded content. Returns ErrNotFound when the object is absent.
	FetchContent(ctx context.Context, url string) (*Content, error)

	// Replace uploads data under a new unique key in the same logical
	// directory as oldURL, then deletes the old object. The old object
	// survives any mid-operation failure.
	Replace(ctx context.Context, oldURL string, data []byte, contentType, filename string) (string, error)

	// Delete removes the object at the URL. Deleting an absent object is
	// a no-op, not an error.
	Delete(ctx context.Context, url string) error

	// List returns the objects under a key prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// DeleteKey removes an object by bucket-relative key. Like Delete it
	// treats an absent object as success.
	DeleteKey(ctx context.Context, key string) error
}
