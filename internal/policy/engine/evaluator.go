package engine

import (
	"context"

	userdomain "github.com/MatheusAFD/mono-repo-auth/internal/user/domain"
)

// Authorizer answers access-control questions for the API.
type Authorizer interface {
	// Allow reports whether role is granted action on resource (e.g. backoffice, access).
	Allow(ctx context.Context, role userdomain.Role, resource, action string) (bool, error)
	// CanRevoke reports whether a session owned by a user with targetRole may be revoked by an administrator.
	CanRevoke(ctx context.Context, targetRole userdomain.Role) (bool, error)
}
