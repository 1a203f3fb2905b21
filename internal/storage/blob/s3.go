package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store stores objects in an S3 bucket. Public URLs use the
// virtual-hosted style, so the object path carries no bucket segment.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
	region string
}

func NewS3(ctx context.Context, bucket, prefix, region string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
		region: region,
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, data []byte, contentType, scope, filename string) (string, error) {
	key := fmt.Sprintf("%s/%s/%s", s.prefix, scope, UniqueName(filename))
	if err := s.write(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return s.publicURL(key), nil
}

func (s *S3Store) FetchContent(ctx context.Context, url string) (*Content, error) {
	key, err := resolveObjectPath(url, s.bucket)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, key, err)
	}

	return decodeContent(data, aws.ToString(out.ContentType)), nil
}

func (s *S3Store) Replace(ctx context.Context, oldURL string, data []byte, contentType, filename string) (string, error) {
	oldKey, err := resolveObjectPath(oldURL, s.bucket)
	if err != nil {
		return "", err
	}

	newKey := replacementKey(oldKey, filename)
	if err := s.write(ctx, newKey, data, contentType); err != nil {
		return "", err
	}

	if err := s.DeleteKey(ctx, oldKey); err != nil {
		return "", err
	}
	return s.publicURL(newKey), nil
}

func (s *S3Store) Delete(ctx context.Context, url string) error {
	key, err := resolveObjectPath(url, s.bucket)
	if err != nil {
		return err
	}
	return s.DeleteKey(ctx, key)
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var out []ObjectInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list %s: %v", ErrUnavailable, prefix, err)
		}
		for _, obj := range page.Contents {
			out = append(out, ObjectInfo{
				Key:     aws.ToString(obj.Key),
				Updated: aws.ToTime(obj.LastModified),
			})
		}
	}
	return out, nil
}

func (s *S3Store) DeleteKey(ctx context.Context, key string) error {
	// S3 deletes are idempotent: removing an absent key is not an error.
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (s *S3Store) write(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (s *S3Store) publicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
