package domain

import "time"

// File is one uploaded file inside a project. Files carry no owner of
// their own: the effective owner is the parent project's owner. FileURL
// points into the blob store; the bytes live there, not in Postgres.
type File struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	FileName  string    `json:"file_name"`
	FileURL   string    `json:"file_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
