// Package service orchestrates file operations across Postgres, the blob
// store and the content cache. The two stores share no transaction; the
// sequences here are ordered so a mid-operation failure never leaves a row
// pointing at nothing.
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/codecove/codecove-backend/internal/authz"
	"github.com/codecove/codecove-backend/internal/files/domain"
	"github.com/codecove/codecove-backend/internal/storage/blob"
)

// Repository is the persistence surface the service needs. *files.Repo
// implements it.
type Repository interface {
	Create(ctx context.Context, projectID, fileName, fileURL string) (*domain.File, error)
	Get(ctx context.Context, id string) (*domain.File, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.File, error)
	ProjectOwner(ctx context.Context, projectID string) (string, error)
	Update(ctx context.Context, id string, fileName, fileURL *string) (*domain.File, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ContentCache is the optional read accelerator for file content.
type ContentCache interface {
	Get(ctx context.Context, fileID string) (*blob.Content, bool)
	Set(ctx context.Context, fileID string, content *blob.Content)
	Invalidate(ctx context.Context, fileID string)
}

type Service struct {
	repo   Repository
	blobs  blob.Store
	cache  ContentCache
	logger *zap.Logger
}

func New(repo Repository, blobs blob.Store, cache ContentCache, logger *zap.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, cache: cache, logger: logger}
}

// Upload stores the bytes under the project's scope and persists the row.
// Ordering is upload-then-persist: a crash between the two orphans a blob
// (the reconcile sweep collects it later), never a row without a blob. A
// persist failure triggers a best-effort delete of the fresh blob.
func (s *Service) Upload(ctx context.Context, caller, projectID, fileName, contentType string, data []byte) (*domain.File, error) {
	if projectID == "" {
		return nil, domain.ErrMissingProjectRef
	}

	owner, err := s.repo.ProjectOwner(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanCreateFile(caller, owner); err != nil {
		return nil, err
	}

	url, err := s.blobs.Upload(ctx, data, contentType, projectID, fileName)
	if err != nil {
		return nil, err
	}

	f, err := s.repo.Create(ctx, projectID, fileName, url)
	if err != nil {
		if delErr := s.blobs.Delete(ctx, url); delErr != nil {
			s.logger.Warn("orphan cleanup after failed insert",
				zap.String("url", url), zap.Error(delErr))
		}
		return nil, fmt.Errorf("persist file row: %w", err)
	}

	s.logger.Info("file uploaded",
		zap.String("file_id", f.ID),
		zap.String("project_id", projectID),
		zap.String("file_name", fileName))
	return f, nil
}

// Retrieve returns the row plus the blob content. The caller only needs to
// be authenticated; listing elsewhere is what restricts visibility.
func (s *Service) Retrieve(ctx context.Context, caller, id string) (*domain.File, *blob.Content, error) {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if s.cache != nil {
		if content, ok := s.cache.Get(ctx, f.ID); ok {
			return f, content, nil
		}
	}

	content, err := s.blobs.FetchContent(ctx, f.FileURL)
	if err != nil {
		return nil, nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, f.ID, content)
	}
	return f, content, nil
}

func (s *Service) List(ctx context.Context, caller string) ([]domain.File, error) {
	return s.repo.ListByOwner(ctx, caller)
}

// UpdateInput carries the optional pieces of an update. Data non-nil means
// new content: the old blob is replaced (upload first, then delete old) and
// the row's URL follows.
type UpdateInput struct {
	FileName    *string
	Data        []byte
	ContentType string
	UploadName  string
}

func (s *Service) Update(ctx context.Context, caller, id string, in UpdateInput) (*domain.File, error) {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	owner, err := s.repo.ProjectOwner(ctx, f.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanWrite(caller, owner); err != nil {
		return nil, err
	}

	var newURL *string
	if in.Data != nil {
		name := in.UploadName
		if name == "" {
			name = f.FileName
		}
		url, err := s.blobs.Replace(ctx, f.FileURL, in.Data, in.ContentType, name)
		if err != nil {
			return nil, err
		}
		newURL = &url
	}

	updated, err := s.repo.Update(ctx, id, in.FileName, newURL)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	return updated, nil
}

// Delete removes the blob first (idempotent), then the row. A blob backend
// failure aborts the delete so the row keeps pointing at the live blob.
func (s *Service) Delete(ctx context.Context, caller, id string) error {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	owner, err := s.repo.ProjectOwner(ctx, f.ProjectID)
	if err != nil {
		return err
	}
	if err := authz.CanWrite(caller, owner); err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, f.FileURL); err != nil {
		return err
	}

	if _, err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}

	s.logger.Info("file deleted", zap.String("file_id", id))
	return nil
}
