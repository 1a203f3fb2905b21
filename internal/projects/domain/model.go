package domain

import "time"

// Project is a user-owned workspace of files. OwnerID is the identity
// provider's subject claim, set once at creation and never updated.
type Project struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"owner_id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Files       []FileSummary `json:"files,omitempty"`
}

// FileSummary is the nested view of a project's files returned by project
// retrieval, and the worklist for cascade deletion.
type FileSummary struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	FileURL   string    `json:"file_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
