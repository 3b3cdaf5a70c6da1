package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/clinicportal/portal-auth/internal/api/metrics"
	"github.com/clinicportal/portal-auth/internal/core/domain"
)

// AllowList is a route's set of admitted effective roles. Membership is
// exact; there is no hierarchy.
type AllowList map[domain.EffectiveRole]struct{}

// NewAllowList builds an AllowList from roles.
func NewAllowList(roles ...domain.EffectiveRole) AllowList {
	allowed := make(AllowList, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return allowed
}

// Admits reports whether role is on the list.
func (a AllowList) Admits(role domain.EffectiveRole) bool {
	_, ok := a[role]
	return ok
}

// Authorize checks p against the list and returns domain.ErrForbidden when
// it is absent.
func (a AllowList) Authorize(p *domain.Principal) error {
	if p == nil || !a.Admits(p.EffectiveRole) {
		metrics.AuthorizationDecisionsTotal.WithLabelValues("deny").Inc()
		return domain.ErrForbidden
	}
	metrics.AuthorizationDecisionsTotal.WithLabelValues("allow").Inc()
	return nil
}

// AuthorizeRoles enforces role-based access control. It must run after
// Authenticate; a request without a principal is rejected as unauthenticated.
func AuthorizeRoles(roles ...domain.EffectiveRole) echo.MiddlewareFunc {
	allowed := NewAllowList(roles...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return domain.ErrMissingToken
			}
			if err := allowed.Authorize(p); err != nil {
				return err
			}
			return next(c)
		}
	}
}
