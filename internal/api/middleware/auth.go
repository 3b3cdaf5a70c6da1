package middleware

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicportal/portal-auth/internal/api/metrics"
	"github.com/clinicportal/portal-auth/internal/core/domain"
	"github.com/clinicportal/portal-auth/internal/core/ports"
)

const principalKey = "principal"

// Authenticate verifies the bearer token, runs the live status gate and
// stores the resulting *domain.Principal in the echo context. Rejections are
// returned as domain errors for the HTTP error handler to render.
func Authenticate(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			principal, err := auth.Authenticate(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			metrics.AuthenticateDuration.Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.AuthRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
				return err
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

// PrincipalFrom returns the principal stored by Authenticate, if any.
func PrincipalFrom(c echo.Context) (*domain.Principal, bool) {
	p, ok := c.Get(principalKey).(*domain.Principal)
	return p, ok && p != nil
}

// SetPrincipal stores p the way Authenticate does.
func SetPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrAccountInactiveOrMissing):
		return "inactive_or_missing"
	default:
		return "store_unavailable"
	}
}
