package http

import (
	"context"

	"go.uber.org/zap"

	"github.com/codecove/codecove-backend/internal/projects/domain"
	"github.com/codecove/codecove-backend/internal/storage/blob"
)

// Store is the persistence surface the handlers need. *projects.Repo
// implements it; tests use an in-memory fake.
type Store interface {
	Create(ctx context.Context, ownerID, name, description string) (*domain.Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error)
	Get(ctx context.Context, id string) (*domain.Project, error)
	GetWithFiles(ctx context.Context, id string) (*domain.Project, error)
	FileRefs(ctx context.Context, projectID string) ([]domain.FileSummary, error)
	Update(ctx context.Context, id string, name, description *string) (*domain.Project, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Handler bundles the dependencies for project HTTP endpoints.
type Handler struct {
	store  Store
	blobs  blob.Store
	logger *zap.Logger
}

func New(store Store, blobs blob.Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, blobs: blobs, logger: logger}
}

type createReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// updateReq deliberately has no owner field: ownership is immutable and
// anything a client sends for it is dropped at the door.
type updateReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}
