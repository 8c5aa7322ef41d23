package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sentinelops/incidentdesk/internal/config"
	"github.com/sentinelops/incidentdesk/internal/model"
	"github.com/sentinelops/incidentdesk/internal/notify"
	"github.com/sentinelops/incidentdesk/internal/server/middleware"
	"github.com/sentinelops/incidentdesk/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests"

// testEnv holds shared state for handler integration tests.
type testEnv struct {
	store   *config.Store
	authSvc *service.AuthService
	sent    *sentMessages
	now     time.Time
	router  chi.Router
}

// sentMessages records notifications instead of delivering them.
type sentMessages struct {
	msgs []notify.Message
}

func (s *sentMessages) Send(_ context.Context, msg notify.Message) error {
	s.msgs = append(s.msgs, msg)
	return nil
}

// newTestEnv creates a fresh test environment with an in-memory store, a
// token manager on a controllable clock, and the handlers mounted on a Chi
// router the same way the server mounts them.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := config.NewStore("") // in-memory SQLite
	if err != nil {
		t.Fatalf("config.NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	env := &testEnv{store: store, sent: &sentMessages{}, now: time.Now()}

	hasher, err := service.NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcryptHasher: %v", err)
	}
	tokens, err := service.NewTokenManager(service.TokenConfig{
		Secret:     testJWTSecret,
		AccessTTL:  time.Hour,
		RefreshTTL: 240 * time.Hour,
		Clock:      func() time.Time { return env.now },
	})
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	env.authSvc = service.NewAuthService(store, hasher, tokens)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authHandler := NewAuthHandler(env.authSvc, logger)
	incidentHandler := NewIncidentHandler(store, logger)
	headingsHandler := NewHeadingsHandler(store, logger)
	userHandler := NewUserHandler(store, logger)
	notifyHandler := NewNotifyHandler(notify.NewService(store, env.sent, notify.Config{}, logger), logger)

	r := chi.NewRouter()
	r.Post("/login", authHandler.Login)
	r.Post("/signup", authHandler.Signup)
	r.Post("/profile", authHandler.Profile)
	r.Post("/refresh-token", authHandler.RefreshToken)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/send-otp", notifyHandler.SendOTP)
		r.Post("/verify-otp", notifyHandler.VerifyOTP)
		r.Post("/send-reset-password-code", notifyHandler.SendResetPasswordCode)
		r.Post("/verify-reset-password-code", notifyHandler.VerifyResetPasswordCode)
		r.Post("/send-purchase-confirmation", notifyHandler.SendPurchaseConfirmation)
		r.Post("/send-data-deletion-request", notifyHandler.SendDeletionRequest)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens))
		r.Post("/logout", authHandler.Logout)
		r.Get("/incidents", incidentHandler.ListIncidents)
		r.Post("/incidents/status", incidentHandler.UpdateStatus)
		r.Post("/headings/{kind}", headingsHandler.GetHeadings)
		r.Put("/headings/{kind}", headingsHandler.UpdateHeadings)
		r.Get("/users", userHandler.ListUsers)
	})
	r.Get("/openapi.json", NewOpenAPIHandler("http://desk.test").ServeSpec)

	env.router = r
	return env
}

// signup creates an admin over HTTP and returns the decoded response.
func (e *testEnv) signup(t *testing.T, username, password string) authResponse {
	t.Helper()
	rr := e.do(t, "POST", "/signup", toJSON(t, map[string]string{
		"username": username,
		"password": password,
	}))
	assertStatus(t, rr, 201)
	var resp authResponse
	decodeJSON(t, rr, &resp)
	return resp
}

// do executes an HTTP request against the test router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	return e.doAuth(t, method, path, body, "")
}

// doAuth executes a request with a Bearer token when token is non-empty.
func (e *testEnv) doAuth(t *testing.T, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func toJSON(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) model.ErrorDetail {
	t.Helper()
	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	return resp.Error
}
