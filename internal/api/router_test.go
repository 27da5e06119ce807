package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/volunteerhub/registration-api/internal/api/handler"
	"github.com/volunteerhub/registration-api/internal/core/domain"
	"github.com/volunteerhub/registration-api/internal/core/service"
	"github.com/volunteerhub/registration-api/internal/infrastructure/security"
)

// memUserRepo mimics the Mongo repository: ObjectID ids, unique email,
// no password hash on reads by id or listing.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	clone := *u
	clone.ID = primitive.NewObjectID().Hex()
	r.users[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, domain.ErrInvalidUserID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone, nil
}

func (r *memUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		clone := *u
		clone.PasswordHash = ""
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type testServer struct {
	e      *echo.Echo
	repo   *memUserRepo
	tokens *security.JWTManager
}

type testServerOptions struct {
	development    bool
	throttle       service.LoginThrottle
	trustedProxies []string
}

func newTestServer(t *testing.T, development bool) *testServer {
	t.Helper()
	return newTestServerWith(t, testServerOptions{development: development})
}

func newTestServerWith(t *testing.T, opts testServerOptions) *testServer {
	t.Helper()
	repo := newMemUserRepo()
	tokens := security.NewJWTManager("test-secret")
	log := zerolog.Nop()

	authSvc := service.NewAuthService(repo, security.NewBcryptHasher(bcrypt.MinCost), tokens, opts.throttle, service.AuthConfig{
		Admin:         service.AdminCredentials{Email: "admin@x.com", Password: "adminpass"},
		UserTokenTTL:  7 * 24 * time.Hour,
		AdminTokenTTL: 24 * time.Hour,
	}, log)

	e, err := NewRouter(Deps{
		Logger:      log,
		Development: opts.development,
		AuthService: authSvc,
		UserService: service.NewUserService(repo, log),
		Tokens:      tokens,
		Probes: map[string]handler.Probe{
			"mongodb": func(context.Context) error { return nil },
		},
		TrustedProxies: opts.trustedProxies,
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return &testServer{e: e, repo: repo, tokens: tokens}
}

func (s *testServer) do(method, path, body, token string) (*httptest.ResponseRecorder, map[string]any) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	rec, resp := s.do(http.MethodPost, "/api/admin/login", `{"email":"admin@x.com","password":"adminpass"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin login failed: %d %s", rec.Code, rec.Body.String())
	}
	return resp["data"].(map[string]any)["token"].(string)
}

const annBody = `{"name":"Ann","email":"ann@x.com","password":"secret1","role":"volunteer","phone":"1234567890"}`

func TestRouter_Register(t *testing.T) {
	s := newTestServer(t, false)

	rec, resp := s.do(http.MethodPost, "/api/register", annBody, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	data := resp["data"].(map[string]any)
	user := data["user"].(map[string]any)
	if user["role"] != "volunteer" {
		t.Fatalf("unexpected role: %v", user["role"])
	}
	if token, _ := data["token"].(string); token == "" {
		t.Fatalf("expected token")
	}
	if _, leaked := user["password"]; leaked {
		t.Fatalf("password leaked in response")
	}
	if strings.Contains(rec.Body.String(), "secret1") {
		t.Fatalf("plaintext password echoed back")
	}
}

func TestRouter_Register_DuplicateEmail(t *testing.T) {
	s := newTestServer(t, false)

	if rec, _ := s.do(http.MethodPost, "/api/register", annBody, ""); rec.Code != http.StatusCreated {
		t.Fatalf("first registration: %d", rec.Code)
	}
	dup := strings.Replace(annBody, "ann@x.com", "ANN@x.com", 1)
	rec, resp := s.do(http.MethodPost, "/api/register", dup, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp["success"] != false || resp["message"] != "User with this email already exists" {
		t.Fatalf("unexpected envelope: %v", resp)
	}
}

func TestRouter_Register_ValidationMessage(t *testing.T) {
	s := newTestServer(t, false)

	body := `{"name":"Ann","email":"not-an-email","password":"123","role":"intern","phone":"1234567890"}`
	rec, resp := s.do(http.MethodPost, "/api/register", body, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	want := "Validation Error: Please provide a valid email, Password must be at least 6 characters"
	if resp["message"] != want {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

func TestRouter_AdminLogin(t *testing.T) {
	s := newTestServer(t, false)

	rec, resp := s.do(http.MethodPost, "/api/admin/login", `{"email":"admin@x.com","password":"wrong"}`, "")
	if rec.Code != http.StatusUnauthorized || resp["success"] != false {
		t.Fatalf("expected 401 failure envelope, got %d %v", rec.Code, resp)
	}

	rec, resp = s.do(http.MethodPost, "/api/admin/login", `{"email":"admin@x.com"}`, "")
	if rec.Code != http.StatusBadRequest || resp["message"] != "Please provide email and password" {
		t.Fatalf("expected 400 missing credentials, got %d %v", rec.Code, resp)
	}

	token := s.adminToken(t)
	claims, err := s.tokens.Verify(token)
	if err != nil || !claims.IsAdmin() || claims.Subject != domain.AdminSubject {
		t.Fatalf("unexpected admin claims: %+v %v", claims, err)
	}
}

func TestRouter_Users_RequireAdmin(t *testing.T) {
	s := newTestServer(t, false)

	rec, _ := s.do(http.MethodGet, "/api/users", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec, _ = s.do(http.MethodGet, "/api/users", "", "garbage")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}

	_, resp := s.do(http.MethodPost, "/api/register", annBody, "")
	userToken := resp["data"].(map[string]any)["token"].(string)
	rec, _ = s.do(http.MethodGet, "/api/users", "", userToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with user token, got %d", rec.Code)
	}
}

func TestRouter_Users_ListAndGet(t *testing.T) {
	s := newTestServer(t, false)

	_, resp := s.do(http.MethodPost, "/api/register", annBody, "")
	userToken := resp["data"].(map[string]any)["token"].(string)
	bo := `{"name":"Bo","email":"bo@x.com","password":"secret2","role":"intern","phone":"0987654321"}`
	if rec, _ := s.do(http.MethodPost, "/api/register", bo, ""); rec.Code != http.StatusCreated {
		t.Fatalf("register bo: %d", rec.Code)
	}

	admin := s.adminToken(t)

	rec, resp := s.do(http.MethodGet, "/api/users", "", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := resp["data"].(map[string]any)
	stats := data["statistics"].(map[string]any)
	if stats["total"] != float64(2) || stats["volunteers"] != float64(1) || stats["interns"] != float64(1) {
		t.Fatalf("unexpected statistics: %v", stats)
	}
	if strings.Contains(rec.Body.String(), "$2a$") {
		t.Fatalf("password hash leaked in listing")
	}

	// The id embedded in the registration token resolves to the same user.
	claims, err := s.tokens.Verify(userToken)
	if err != nil {
		t.Fatalf("verify user token: %v", err)
	}
	rec, resp = s.do(http.MethodGet, "/api/users/"+claims.Subject, "", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	user := resp["data"].(map[string]any)["user"].(map[string]any)
	if user["email"] != "ann@x.com" || user["id"] != claims.Subject {
		t.Fatalf("unexpected user: %v", user)
	}

	rec, resp = s.do(http.MethodGet, "/api/users/"+primitive.NewObjectID().Hex(), "", admin)
	if rec.Code != http.StatusNotFound || resp["message"] != "User not found" {
		t.Fatalf("expected 404 User not found, got %d %v", rec.Code, resp)
	}

	rec, _ = s.do(http.MethodGet, "/api/users/not-an-id", "", admin)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestRouter_Meta(t *testing.T) {
	s := newTestServer(t, false)

	rec, resp := s.do(http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK || resp["message"] != "Backend Internship API is running!" {
		t.Fatalf("unexpected root: %d %v", rec.Code, resp)
	}

	rec, resp = s.do(http.MethodGet, "/nope", "", "")
	if rec.Code != http.StatusNotFound || resp["message"] != "Route not found" || resp["success"] != false {
		t.Fatalf("unexpected 404: %d %v", rec.Code, resp)
	}

	rec, resp = s.do(http.MethodDelete, "/api/register", "", "")
	if rec.Code != http.StatusNotFound || resp["message"] != "Route not found" {
		t.Fatalf("unexpected method mismatch response: %d %v", rec.Code, resp)
	}

	if rec, _ := s.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("liveness: %d", rec.Code)
	}
	if rec, _ := s.do(http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("readiness: %d", rec.Code)
	}

	s.do(http.MethodPost, "/api/register", annBody, "")
	rec, _ = s.do(http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "registration_registrations_total") {
		t.Fatalf("metrics not exposed: %d", rec.Code)
	}
}

func TestErrorHandler_InternalDetail(t *testing.T) {
	for _, development := range []bool{true, false} {
		e := echo.New()
		e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop(), development)
		e.GET("/boom", func(c echo.Context) error {
			return errors.New("disk on fire")
		})

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

		var resp map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if rec.Code != http.StatusInternalServerError || resp["message"] != "Something went wrong!" {
			t.Fatalf("unexpected response: %d %v", rec.Code, resp)
		}
		want := "Internal server error"
		if development {
			want = "disk on fire"
		}
		if resp["error"] != want {
			t.Fatalf("development=%v: expected error %q, got %v", development, want, resp["error"])
		}
	}
}

func TestErrorHandler_TooManyAttempts(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop(), false)
	e.POST("/login", func(c echo.Context) error {
		return domain.ErrTooManyAttempts
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

// memThrottle counts failures per client key like the Redis throttle.
type memThrottle struct {
	mu       sync.Mutex
	max      int
	failures map[string]int
}

func newMemThrottle(max int) *memThrottle {
	return &memThrottle{max: max, failures: map[string]int{}}
}

func (m *memThrottle) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[key] < m.max, nil
}

func (m *memThrottle) RecordFailure(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[key]++
	return nil
}

func (m *memThrottle) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, key)
	return nil
}

func (m *memThrottle) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.failures))
	for k := range m.failures {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *testServer) adminLogin(remoteAddr, password string, headers map[string]string) int {
	body := `{"email":"admin@x.com","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRouter_AdminLoginThrottle_IgnoresForwardingHeaders(t *testing.T) {
	throttle := newMemThrottle(3)
	s := newTestServerWith(t, testServerOptions{throttle: throttle})

	var codes []int
	for i := 0; i < 10; i++ {
		forged := map[string]string{
			echo.HeaderXForwardedFor: fmt.Sprintf("203.0.113.%d", i),
			echo.HeaderXRealIP:       fmt.Sprintf("198.51.100.%d", i),
		}
		codes = append(codes, s.adminLogin("192.0.2.10:5555", "wrong", forged))
	}

	for i, code := range codes {
		want := http.StatusUnauthorized
		if i >= 3 {
			want = http.StatusTooManyRequests
		}
		if code != want {
			t.Fatalf("attempt %d: expected %d, got %d (all: %v)", i, want, code, codes)
		}
	}
	if keys := throttle.keys(); len(keys) != 1 || keys[0] != "192.0.2.10" {
		t.Fatalf("expected failures keyed on the socket address only, got %v", keys)
	}
}

func TestRouter_AdminLoginThrottle_SpoofedVictimIP(t *testing.T) {
	throttle := newMemThrottle(3)
	s := newTestServerWith(t, testServerOptions{throttle: throttle})

	for i := 0; i < 3; i++ {
		s.adminLogin("198.51.100.66:4000", "wrong", map[string]string{echo.HeaderXRealIP: "203.0.113.7"})
	}

	if code := s.adminLogin("203.0.113.7:4000", "adminpass", nil); code != http.StatusOK {
		t.Fatalf("admin locked out by forged header: got %d", code)
	}
	if code := s.adminLogin("198.51.100.66:4000", "adminpass", nil); code != http.StatusTooManyRequests {
		t.Fatalf("expected the attacking socket to be throttled, got %d", code)
	}
}

func TestRouter_AdminLoginThrottle_TrustedProxy(t *testing.T) {
	throttle := newMemThrottle(3)
	s := newTestServerWith(t, testServerOptions{
		throttle:       throttle,
		trustedProxies: []string{"10.0.0.0/8"},
	})

	xff := map[string]string{echo.HeaderXForwardedFor: "203.0.113.7"}
	s.adminLogin("10.1.2.3:8080", "wrong", xff)
	s.adminLogin("198.51.100.66:4000", "wrong", xff)

	keys := throttle.keys()
	if len(keys) != 2 || keys[0] != "198.51.100.66" || keys[1] != "203.0.113.7" {
		t.Fatalf("expected proxy-forwarded and direct keys, got %v", keys)
	}
}

func TestNewRouter_InvalidTrustedProxy(t *testing.T) {
	_, err := NewRouter(Deps{Logger: zerolog.Nop(), TrustedProxies: []string{"not-a-cidr"}})
	if err == nil {
		t.Fatalf("expected error for malformed CIDR")
	}
}
