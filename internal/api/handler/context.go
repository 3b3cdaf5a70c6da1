package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/clinicportal/portal-auth/internal/api/middleware"
	"github.com/clinicportal/portal-auth/internal/core/domain"
)

// ctxPrincipal extracts the principal injected by the Authenticate
// middleware. Its absence means the route was wired without authentication;
// reject rather than serve anonymously.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return nil, domain.ErrMissingToken
	}
	return p, nil
}
