package testutil

import (
	"net/http"

	"pathfinder/internal/domain"
	"pathfinder/internal/platform/middleware"
)

// WithIdentity attaches an authenticated identity to the request context,
// simulating what the auth middleware does after token validation.
func WithIdentity(req *http.Request, email string, roles ...domain.Role) *http.Request {
	ctx := middleware.WithIdentity(req.Context(), email, roles)
	return req.WithContext(ctx)
}

// AsSuperuser marks the request as coming from a superuser.
func AsSuperuser(req *http.Request, email string) *http.Request {
	return WithIdentity(req, email, domain.Superuser{})
}

// AsTroopAdmin marks the request as coming from an admin of the given troop.
func AsTroopAdmin(req *http.Request, email, troop string) *http.Request {
	return WithIdentity(req, email, domain.Admin{Troop: troop})
}

// AsScout marks the request as coming from the scout themselves.
func AsScout(req *http.Request, email string) *http.Request {
	return WithIdentity(req, email, domain.ScoutRole{Email: email})
}
