package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStore stores objects in a Google Cloud Storage bucket. Public URLs are
// of the form https://storage.googleapis.com/{bucket}/{key}.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCS(ctx context.Context, bucket, prefix, credentialsPath string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("init gcs client: %w", err)
	}

	return &GCSStore{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *GCSStore) Upload(ctx context.Context, data []byte, contentType, scope, filename string) (string, error) {
	key := fmt.Sprintf("%s/%s/%s", s.prefix, scope, UniqueName(filename))
	if err := s.write(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return s.publicURL(key), nil
}

func (s *GCSStore) FetchContent(ctx context.Context, url string) (*Content, error) {
	key, err := resolveObjectPath(url, s.bucket)
	if err != nil {
		return nil, err
	}

	obj := s.client.Bucket(s.bucket).Object(key)

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: stat %s: %v", ErrUnavailable, key, err)
	}

	r, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, key, err)
	}

	return decodeContent(data, attrs.ContentType), nil
}

func (s *GCSStore) Replace(ctx context.Context, oldURL string, data []byte, contentType, filename string) (string, error) {
	oldKey, err := resolveObjectPath(oldURL, s.bucket)
	if err != nil {
		return "", err
	}

	// Upload first: a failure here leaves the old object, and the row
	// pointing at it, fully intact.
	newKey := replacementKey(oldKey, filename)
	if err := s.write(ctx, newKey, data, contentType); err != nil {
		return "", err
	}

	if err := s.deleteKey(ctx, oldKey); err != nil {
		return "", err
	}
	return s.publicURL(newKey), nil
}

func (s *GCSStore) Delete(ctx context.Context, url string) error {
	key, err := resolveObjectPath(url, s.bucket)
	if err != nil {
		return err
	}
	return s.deleteKey(ctx, key)
}

func (s *GCSStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var out []ObjectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: list %s: %v", ErrUnavailable, prefix, err)
		}
		out = append(out, ObjectInfo{Key: attrs.Name, Updated: attrs.Updated})
	}
	return out, nil
}

// DeleteKey removes an object by bucket-relative key. Used by the orphan
// sweep, which works on keys rather than URLs.
func (s *GCSStore) DeleteKey(ctx context.Context, key string) error {
	return s.deleteKey(ctx, key)
}

func (s *GCSStore) write(ctx context.Context, key string, data []byte, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (s *GCSStore) deleteKey(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (s *GCSStore) publicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
}
