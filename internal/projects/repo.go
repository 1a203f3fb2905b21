package projects

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codecove/codecove-backend/internal/projects/domain"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Create inserts a project owned by the given subject. The owner comes from
// the verified token, never from a request body.
func (r *Repo) Create(ctx context.Context, ownerID, name, description string) (*domain.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("name required")
	}
	if ownerID == "" {
		return nil, fmt.Errorf("owner required")
	}

	const q = `
insert into projects (owner_id, name, description)
values ($1, $2, $3)
returning id::text, owner_id, name, description, created_at, updated_at;
`
	var p domain.Project
	err := r.db.QueryRow(ctx, q, ownerID, name, description).
		Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByOwner returns the caller's projects only.
func (r *Repo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error) {
	const q = `
select id::text, owner_id, name, description, created_at, updated_at
from projects
where owner_id = $1
order by created_at desc;
`
	rows, err := r.db.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (*domain.Project, error) {
	const q = `
select id::text, owner_id, name, description, created_at, updated_at
from projects
where id = $1::uuid;
`
	var p domain.Project
	err := r.db.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetWithFiles returns the project plus summaries of its files.
func (r *Repo) GetWithFiles(ctx context.Context, id string) (*domain.Project, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	files, err := r.FileRefs(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Files = files
	return p, nil
}

// FileRefs lists summaries of a project's files, newest first. Cascade
// deletion walks this list to clean up blobs.
func (r *Repo) FileRefs(ctx context.Context, projectID string) ([]domain.FileSummary, error) {
	const q = `
select id::text, file_name, file_url, created_at, updated_at
from files
where project_id = $1::uuid
order by created_at desc;
`
	rows, err := r.db.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.FileSummary, 0, 8)
	for rows.Next() {
		var f domain.FileSummary
		if err := rows.Scan(&f.ID, &f.FileName, &f.FileURL, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Update changes name and/or description. Nil fields keep their current
// value; owner_id has no update path at all.
func (r *Repo) Update(ctx context.Context, id string, name, description *string) (*domain.Project, error) {
	const q = `
update projects
set name = coalesce($2, name),
    description = coalesce($3, description),
    updated_at = now()
where id = $1::uuid
returning id::text, owner_id, name, description, created_at, updated_at;
`
	var p domain.Project
	err := r.db.QueryRow(ctx, q, id, name, description).
		Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Delete removes the project row; the files FK cascade removes child rows.
func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	const q = `delete from projects where id = $1::uuid;`

	ct, err := r.db.Exec(ctx, q, id)
	if err != nil {
		if isInvalidUUID(err) {
			return false, nil
		}
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// isInvalidUUID reports a 22P02 cast failure, which a malformed id in the
// URL produces. Callers treat it as a missing row, not a server error.
func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
