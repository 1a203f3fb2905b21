// Package authz holds the single ownership predicate used by every
// controller. Reads are allowed at this layer; listings are additionally
// filtered by caller in the repositories.
package authz

import "errors"

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("caller does not own this resource")
)

// CanWrite decides update/delete on a resource owned by ownerID. A file's
// effective owner is its parent project's owner; callers resolve that
// before asking.
func CanWrite(caller, ownerID string) error {
	if caller == "" {
		return ErrUnauthenticated
	}
	if caller != ownerID {
		return ErrForbidden
	}
	return nil
}

// CanCreateProject allows any authenticated caller: there is no owner to
// compare against yet.
func CanCreateProject(caller string) error {
	if caller == "" {
		return ErrUnauthenticated
	}
	return nil
}

// CanCreateFile requires the caller to own the target project.
func CanCreateFile(caller, projectOwnerID string) error {
	return CanWrite(caller, projectOwnerID)
}
