// Package reconcile cleans up blobs that no file row references. Orphans
// accumulate from partial cascade failures, lost update races and crashes
// between upload and insert; the relational side is authoritative, so
// anything under the upload prefix that Postgres does not know about and
// that is old enough to not be an in-flight upload gets deleted.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/codecove/codecove-backend/internal/storage/blob"
)

const defaultGrace = 24 * time.Hour

// FileURLSource lists every file URL currently persisted. *files.Repo
// implements it.
type FileURLSource interface {
	ListAllURLs(ctx context.Context) ([]string, error)
}

type Sweeper struct {
	blobs  blob.Store
	files  FileURLSource
	bucket string
	prefix string
	grace  time.Duration
	logger *zap.Logger
}

func NewSweeper(blobs blob.Store, files FileURLSource, bucket, prefix string, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		blobs:  blobs,
		files:  files,
		bucket: bucket,
		prefix: prefix,
		grace:  defaultGrace,
		logger: logger,
	}
}

// Sweep deletes unreferenced blobs older than the grace period and returns
// how many were removed. Individual delete failures are logged and skipped;
// the next run picks them up.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	urls, err := s.files.ListAllURLs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list file urls: %w", err)
	}

	referenced := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		key, err := blob.ObjectPath(u, s.bucket)
		if err != nil {
			// An unparseable row URL must never cause deletions around it.
			return 0, fmt.Errorf("resolve row url %q: %w", u, err)
		}
		referenced[key] = struct{}{}
	}

	objects, err := s.blobs.List(ctx, s.prefix)
	if err != nil {
		return 0, fmt.Errorf("list blobs: %w", err)
	}

	cutoff := time.Now().Add(-s.grace)
	removed := 0
	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; ok {
			continue
		}
		if obj.Updated.After(cutoff) {
			continue
		}

		if err := s.blobs.DeleteKey(ctx, obj.Key); err != nil {
			s.logger.Warn("orphan delete failed", zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		removed++
	}

	s.logger.Info("orphan sweep finished",
		zap.Int("objects", len(objects)),
		zap.Int("referenced", len(referenced)),
		zap.Int("removed", removed))
	return removed, nil
}

// Schedule runs the sweep on the given cron spec (with seconds field) and
// returns the started scheduler.
func (s *Sweeper) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("orphan sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule sweep: %w", err)
	}

	c.Start()
	return c, nil
}
