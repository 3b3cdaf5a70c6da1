package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicportal/portal-auth/internal/core/domain"
	"github.com/clinicportal/portal-auth/internal/core/ports"
	"github.com/clinicportal/portal-auth/internal/core/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// memAccounts is an in-memory credential store shared by the login and
// admin paths so a status flip is visible to the next request.
type memAccounts struct {
	mu      sync.Mutex
	byID    map[string]domain.Account
	failing bool
}

func (m *memAccounts) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, domain.ErrStoreUnavailable
	}
	for _, a := range m.byID {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *memAccounts) FindByID(_ context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, domain.ErrStoreUnavailable
	}
	a, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &a, nil
}

func (m *memAccounts) Create(_ context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == a.Email {
			return domain.ErrAccountExists
		}
	}
	m.byID[a.ID] = *a
	return nil
}

func (m *memAccounts) UpdateStatus(_ context.Context, id string, status domain.AccountStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Status = status
	m.byID[id] = a
	return nil
}

func (m *memAccounts) UpdateRole(_ context.Context, id string, role domain.InternalRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Role = role
	m.byID[id] = a
	return nil
}

func (m *memAccounts) List(_ context.Context, _ ports.ListAccountsFilter) ([]*domain.Account, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Account, 0, len(m.byID))
	for _, a := range m.byID {
		a := a
		out = append(out, &a)
	}
	return out, int64(len(out)), nil
}

func (m *memAccounts) setFailing(v bool) {
	m.mu.Lock()
	m.failing = v
	m.mu.Unlock()
}

type testServer struct {
	e     *echo.Echo
	store *memAccounts
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	hasher := service.NewBcryptHasher(bcrypt.MinCost)
	tokens, err := service.NewTokenService(testSecret, service.DefaultTokenTTL)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	store := &memAccounts{byID: make(map[string]domain.Account)}

	seed := func(id, email, password string, role domain.InternalRole, status domain.AccountStatus) {
		digest, err := hasher.Hash(password)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		store.byID[id] = domain.Account{
			ID: id, Email: email, PasswordDigest: digest, Name: id,
			Role: role, Status: status, CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}
	}
	seed("root", "root@clinic.test", "root-password", domain.RoleSuperAdmin, domain.StatusActive)
	seed("doc", "doc@clinic.test", "doc-password", domain.RoleDoctor, domain.StatusActive)
	seed("labadmin", "lab@clinic.test", "lab-password", domain.RoleAdminLab, domain.StatusActive)
	seed("gone", "gone@clinic.test", "gone-password", domain.RolePatient, domain.StatusInactive)

	log := zerolog.Nop()
	e := NewRouter(Dependencies{
		AuthService:    service.NewAuthService(store, hasher, tokens, nil, nil, log),
		AccountService: service.NewAccountService(store, hasher, nil, log),
		AllowedOrigins: []string{"*"},
		Log:            log,
	})
	return &testServer{e: e, store: store}
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, email, password string) map[string]any {
	t.Helper()
	rec := s.do(http.MethodPost, "/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, rec.Code, rec.Body.String())
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return out
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid error envelope %q: %v", rec.Body.String(), err)
	}
	return out.Error
}

func TestRouter_LoginThenMe(t *testing.T) {
	s := newTestServer(t)

	resp := s.login(t, "lab@clinic.test", "lab-password")
	if resp["role"] != "lab" || resp["id"] != "labadmin" {
		t.Fatalf("unexpected login envelope: %v", resp)
	}
	token := resp["token"].(string)

	for _, path := range []string{"/me", "/api/auth/me"} {
		rec := s.do(http.MethodGet, path, token, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		var me map[string]any
		_ = json.Unmarshal(rec.Body.Bytes(), &me)
		if me["role"] != "admin_lab" || me["effective_role"] != "lab" {
			t.Fatalf("%s: unexpected claims: %v", path, me)
		}
	}
}

func TestRouter_LoginFailures(t *testing.T) {
	s := newTestServer(t)

	wrongPwd := s.do(http.MethodPost, "/api/auth/login", "", `{"email":"doc@clinic.test","password":"nope"}`)
	unknown := s.do(http.MethodPost, "/api/auth/login", "", `{"email":"who@clinic.test","password":"nope"}`)
	if wrongPwd.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPwd.Code, unknown.Code)
	}
	if wrongPwd.Body.String() != unknown.Body.String() {
		t.Fatalf("responses must be indistinguishable: %q vs %q", wrongPwd.Body.String(), unknown.Body.String())
	}

	inactive := s.do(http.MethodPost, "/login", "", `{"email":"gone@clinic.test","password":"wrong-anyway"}`)
	if inactive.Code != http.StatusForbidden {
		t.Fatalf("inactive: expected 403, got %d", inactive.Code)
	}

	missing := s.do(http.MethodPost, "/login", "", `{"email":"doc@clinic.test"}`)
	if missing.Code != http.StatusBadRequest {
		t.Fatalf("missing password: expected 400, got %d", missing.Code)
	}
}

func TestRouter_DeactivationTakesEffectImmediately(t *testing.T) {
	s := newTestServer(t)

	docToken := s.login(t, "doc@clinic.test", "doc-password")["token"].(string)
	rootToken := s.login(t, "root@clinic.test", "root-password")["token"].(string)

	if rec := s.do(http.MethodGet, "/me", docToken, ""); rec.Code != http.StatusOK {
		t.Fatalf("before deactivation: expected 200, got %d", rec.Code)
	}

	rec := s.do(http.MethodPatch, "/api/admin/accounts/doc/status", rootToken, `{"status":"inactive"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(http.MethodGet, "/me", docToken, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("after deactivation: expected 403, got %d", rec.Code)
	}
	if msg := errorBody(t, rec); msg == "" {
		t.Fatalf("expected an error message")
	}
}

func TestRouter_TokenRejections(t *testing.T) {
	s := newTestServer(t)

	cases := map[string]string{
		"no header": "",
		"garbage":   "not-a-jwt",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if rec := s.do(http.MethodGet, "/me", token, ""); rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}

	t.Run("basic scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Basic Zm9vOmJhcg==")
		rec := httptest.NewRecorder()
		s.e.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestRouter_StoreOutageFailsClosed(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "doc@clinic.test", "doc-password")["token"].(string)

	s.store.setFailing(true)
	rec := s.do(http.MethodGet, "/me", token, "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := errorBody(t, rec); msg != "service temporarily unavailable" {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestRouter_PortalSections(t *testing.T) {
	s := newTestServer(t)
	docToken := s.login(t, "doc@clinic.test", "doc-password")["token"].(string)
	labToken := s.login(t, "lab@clinic.test", "lab-password")["token"].(string)

	cases := []struct {
		token string
		path  string
		code  int
	}{
		{docToken, "/api/portal/patients", http.StatusOK},
		{docToken, "/api/portal/billing", http.StatusForbidden},
		{docToken, "/api/portal/admin", http.StatusForbidden},
		// admin_lab maps to lab before the allow-list runs.
		{labToken, "/api/portal/lab-reports", http.StatusOK},
		{labToken, "/api/portal/admin", http.StatusForbidden},
		{labToken, "/api/portal/patients", http.StatusForbidden},
		{"", "/api/portal/patients", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		if rec := s.do(http.MethodGet, tc.path, tc.token, ""); rec.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.code, rec.Code)
		}
	}

	rec := s.do(http.MethodGet, "/api/portal", labToken, "")
	var index []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &index); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(index) != 1 || index[0]["key"] != "lab-reports" {
		t.Fatalf("unexpected index for lab: %v", index)
	}
}

func TestRouter_AdminAccounts(t *testing.T) {
	s := newTestServer(t)
	rootToken := s.login(t, "root@clinic.test", "root-password")["token"].(string)
	docToken := s.login(t, "doc@clinic.test", "doc-password")["token"].(string)

	if rec := s.do(http.MethodGet, "/api/admin/accounts", docToken, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("doctor listing accounts: expected 403, got %d", rec.Code)
	}

	rec := s.do(http.MethodPost, "/api/admin/accounts", rootToken,
		`{"email":"Pharma@Clinic.test","password":"pharma-password","name":"Pharma","role":"admin_pharmacist"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &created)
	if created["effective_role"] != "pharmacy" {
		t.Fatalf("unexpected created account: %v", created)
	}

	pharmaToken := s.login(t, "pharma@clinic.test", "pharma-password")["token"].(string)
	if rec := s.do(http.MethodGet, "/api/portal/prescriptions", pharmaToken, ""); rec.Code != http.StatusOK {
		t.Fatalf("pharmacy section: expected 200, got %d", rec.Code)
	}

	dup := s.do(http.MethodPost, "/api/admin/accounts", rootToken,
		`{"email":"pharma@clinic.test","password":"pharma-password","name":"Pharma","role":"pharmacy"}`)
	if dup.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", dup.Code)
	}

	longPwd := s.do(http.MethodPost, "/api/admin/accounts", rootToken,
		`{"email":"long@clinic.test","password":"`+strings.Repeat("p", 80)+`","name":"Long","role":"staff"}`)
	if longPwd.Code != http.StatusBadRequest {
		t.Fatalf("80-byte password: expected 400, got %d: %s", longPwd.Code, longPwd.Body.String())
	}

	badRole := s.do(http.MethodPatch, "/api/admin/accounts/doc/role", rootToken, `{"role":"janitor"}`)
	if badRole.Code != http.StatusBadRequest {
		t.Fatalf("unknown role: expected 400, got %d", badRole.Code)
	}

	missing := s.do(http.MethodPatch, "/api/admin/accounts/nobody/status", rootToken, `{"status":"inactive"}`)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("unknown account: expected 404, got %d", missing.Code)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	if rec := s.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("/health: expected 200, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("/health/ready: expected 200, got %d", rec.Code)
	}
	rec := s.do(http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "portal_auth_http_requests_total") {
		t.Fatalf("/metrics: unexpected response %d", rec.Code)
	}
}

func TestResolveError_StatusTable(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrValidation, http.StatusBadRequest},
		{domain.ErrUnknownRole, http.StatusBadRequest},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrMissingToken, http.StatusUnauthorized},
		{domain.ErrInvalidOrExpiredToken, http.StatusUnauthorized},
		{domain.ErrAccountInactive, http.StatusForbidden},
		{domain.ErrAccountInactiveOrMissing, http.StatusForbidden},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrAccountNotFound, http.StatusNotFound},
		{domain.ErrAccountExists, http.StatusConflict},
		{domain.ErrTooManyAttempts, http.StatusTooManyRequests},
		{domain.ErrStoreUnavailable, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
		{echo.NewHTTPError(http.StatusBadRequest, "bad"), http.StatusBadRequest},
	}

	e := echo.New()
	for _, tc := range cases {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if code, _ := resolveError(tc.err, zerolog.Nop(), c); code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, code)
		}
	}
}

func TestRouter_DemotionAppliesToNextRequest(t *testing.T) {
	s := newTestServer(t)
	docToken := s.login(t, "doc@clinic.test", "doc-password")["token"].(string)
	rootToken := s.login(t, "root@clinic.test", "root-password")["token"].(string)

	if rec := s.do(http.MethodGet, "/api/portal/patients", docToken, ""); rec.Code != http.StatusOK {
		t.Fatalf("before demotion: expected 200, got %d", rec.Code)
	}

	rec := s.do(http.MethodPatch, "/api/admin/accounts/doc/role", rootToken, `{"role":"patient"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("demote: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if rec := s.do(http.MethodGet, "/api/portal/patients", docToken, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("after demotion: expected 403, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/portal/billing", docToken, ""); rec.Code != http.StatusOK {
		t.Fatalf("patient section after demotion: expected 200, got %d", rec.Code)
	}
}

func TestRouter_SwaggerDocument(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/swagger/doc.json", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "BearerAuth") || !strings.Contains(rec.Body.String(), "/api/admin/accounts") {
		t.Fatalf("unexpected swagger document: %.200s", rec.Body.String())
	}
}
