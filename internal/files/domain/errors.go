package domain

import "errors"

var (
	ErrNotFound          = errors.New("file not found")
	ErrProjectNotFound   = errors.New("project not found")
	ErrMissingProjectRef = errors.New("project_id is required")
)
