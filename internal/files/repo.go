package files

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codecove/codecove-backend/internal/files/domain"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, projectID, fileName, fileURL string) (*domain.File, error) {
	const q = `
insert into files (project_id, file_name, file_url)
values ($1::uuid, $2, $3)
returning id::text, project_id::text, file_name, file_url, created_at, updated_at;
`
	var f domain.File
	err := r.db.QueryRow(ctx, q, projectID, fileName, fileURL).
		Scan(&f.ID, &f.ProjectID, &f.FileName, &f.FileURL, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// FK violation: the project vanished between the owner check
			// and the insert.
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*domain.File, error) {
	const q = `
select id::text, project_id::text, file_name, file_url, created_at, updated_at
from files
where id = $1::uuid;
`
	var f domain.File
	err := r.db.QueryRow(ctx, q, id).
		Scan(&f.ID, &f.ProjectID, &f.FileName, &f.FileURL, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// ListByOwner returns files in projects the caller owns.
func (r *Repo) ListByOwner(ctx context.Context, ownerID string) ([]domain.File, error) {
	const q = `
select f.id::text, f.project_id::text, f.file_name, f.file_url, f.created_at, f.updated_at
from files f
join projects p on p.id = f.project_id
where p.owner_id = $1
order by f.created_at desc;
`
	rows, err := r.db.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.File, 0, 16)
	for rows.Next() {
		var f domain.File
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.FileName, &f.FileURL, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ProjectOwner resolves the owner of a file's parent project in one query.
func (r *Repo) ProjectOwner(ctx context.Context, projectID string) (string, error) {
	const q = `select owner_id from projects where id = $1::uuid;`

	var owner string
	err := r.db.QueryRow(ctx, q, projectID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return "", domain.ErrProjectNotFound
		}
		return "", err
	}
	return owner, nil
}

// Update changes file_name and/or file_url. Nil fields keep their current
// value.
func (r *Repo) Update(ctx context.Context, id string, fileName, fileURL *string) (*domain.File, error) {
	const q = `
update files
set file_name = coalesce($2, file_name),
    file_url = coalesce($3, file_url),
    updated_at = now()
where id = $1::uuid
returning id::text, project_id::text, file_name, file_url, created_at, updated_at;
`
	var f domain.File
	err := r.db.QueryRow(ctx, q, id, fileName, fileURL).
		Scan(&f.ID, &f.ProjectID, &f.FileName, &f.FileURL, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	const q = `delete from files where id = $1::uuid;`

	ct, err := r.db.Exec(ctx, q, id)
	if err != nil {
		if isInvalidUUID(err) {
			return false, nil
		}
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// ListAllURLs returns every stored file URL. The reconcile sweep diffs this
// set against the blob store.
func (r *Repo) ListAllURLs(ctx context.Context) ([]string, error) {
	const q = `select file_url from files;`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
