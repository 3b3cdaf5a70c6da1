package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicportal/portal-auth/internal/api/middleware"
	"github.com/clinicportal/portal-auth/internal/core/domain"
)

type stubAuthService struct {
	loginFn        func(ctx context.Context, email, password string) (*domain.LoginResult, error)
	authenticateFn func(ctx context.Context, header string) (*domain.Principal, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Authenticate(ctx context.Context, header string) (*domain.Principal, error) {
	return s.authenticateFn(ctx, header)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	exp := time.Now().Add(8 * time.Hour).UTC().Truncate(time.Second)
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*domain.LoginResult, error) {
			if email != "doc@clinic.test" || password != "s3cret-pass" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &domain.LoginResult{
				Token:     "signed.jwt.token",
				ExpiresAt: exp,
				ID:        "acc-1",
				Name:      "Dr. Who",
				Email:     email,
				Role:      domain.EffectiveDoctor,
			}, nil
		},
	}
	h := NewAuthHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"doc@clinic.test","password":"s3cret-pass"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "signed.jwt.token" || resp.Role != "doctor" || resp.ID != "acc-1" || resp.Name != "Dr. Who" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if !resp.ExpiresAt.Equal(exp) {
		t.Fatalf("expires_at = %v, want %v", resp.ExpiresAt, exp)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	cases := map[string]string{
		"malformed json": `{"email":`,
		"missing email":  `{"password":"x"}`,
		"bad email":      `{"email":"not-an-email","password":"x"}`,
		"empty password": `{"email":"a@clinic.test","password":""}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			e := newTestEcho()
			h := NewAuthHandler(&stubAuthService{
				loginFn: func(context.Context, string, string) (*domain.LoginResult, error) {
					t.Fatalf("service must not be called")
					return nil, nil
				},
			})

			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			c := e.NewContext(req, httptest.NewRecorder())

			err := h.Login(c)
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 HTTPError, got %v", err)
			}
		})
	}
}

func TestAuthHandler_Login_PropagatesDomainErrors(t *testing.T) {
	for _, want := range []error{domain.ErrInvalidCredentials, domain.ErrAccountInactive, domain.ErrTooManyAttempts} {
		e := newTestEcho()
		h := NewAuthHandler(&stubAuthService{
			loginFn: func(context.Context, string, string) (*domain.LoginResult, error) {
				return nil, want
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"a@clinic.test","password":"x"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		c := e.NewContext(req, httptest.NewRecorder())

		if err := h.Login(c); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestAuthHandler_Me(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.SetPrincipal(c, &domain.Principal{
		Claims: domain.Claims{
			ID:    "acc-2",
			Name:  "Lab Lead",
			Email: "lead@clinic.test",
			Role:  string(domain.RoleAdminLab),
		},
		EffectiveRole: domain.EffectiveLab,
	})

	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp meResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Role != "admin_lab" || resp.EffectiveRole != "lab" || resp.ID != "acc-2" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Me_WithoutPrincipal(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/me", nil), httptest.NewRecorder())
	if err := h.Me(c); !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}
