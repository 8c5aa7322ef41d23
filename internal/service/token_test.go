package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sentinelops/incidentdesk/internal/model"
)

const testSecret = "test-secret-key-for-jwt"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTokens(t *testing.T, secret string, clock *fakeClock) *TokenManager {
	t.Helper()
	cfg := TokenConfig{Secret: secret, AccessTTL: time.Hour, RefreshTTL: 240 * time.Hour}
	if clock != nil {
		cfg.Clock = clock.Now
	}
	m, err := NewTokenManager(cfg)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return m
}

func TestNewTokenManagerValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  TokenConfig
	}{
		{"empty secret", TokenConfig{AccessTTL: time.Hour, RefreshTTL: 2 * time.Hour}},
		{"zero access ttl", TokenConfig{Secret: "s", RefreshTTL: time.Hour}},
		{"negative refresh ttl", TokenConfig{Secret: "s", AccessTTL: time.Hour, RefreshTTL: -time.Hour}},
		{"access not shorter", TokenConfig{Secret: "s", AccessTTL: 2 * time.Hour, RefreshTTL: time.Hour}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTokenManager(tt.cfg); err == nil {
				t.Error("expected constructor error")
			}
		})
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestTokens(t, testSecret, nil)
	admin := &model.Admin{ID: 42, Username: "alice"}

	token, err := m.IssueAccessToken(admin)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	id, err := m.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if id.AdminID != 42 || id.Username != "alice" {
		t.Errorf("identity = %+v", id)
	}
}

func TestTokensAreUnique(t *testing.T) {
	m := newTestTokens(t, testSecret, nil)
	admin := &model.Admin{ID: 1, Username: "alice"}

	a, _ := m.IssueRefreshToken(admin)
	b, _ := m.IssueRefreshToken(admin)
	if a == b {
		t.Error("two refresh tokens issued in the same second should differ")
	}
}

func TestTokenUseIsEnforced(t *testing.T) {
	m := newTestTokens(t, testSecret, nil)
	admin := &model.Admin{ID: 7, Username: "bob"}

	access, _ := m.IssueAccessToken(admin)
	refresh, _ := m.IssueRefreshToken(admin)

	if _, err := m.VerifyRefreshToken(access); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("access token as refresh: got %v, want ErrTokenInvalid", err)
	}
	if _, err := m.VerifyAccessToken(refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("refresh token as access: got %v, want ErrTokenInvalid", err)
	}
	if _, err := m.VerifyRefreshToken(refresh); err != nil {
		t.Errorf("refresh token as refresh: %v", err)
	}
}

func TestExpiredTokenIsExpiredNotInvalid(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestTokens(t, testSecret, clock)
	admin := &model.Admin{ID: 1, Username: "alice"}

	access, _ := m.IssueAccessToken(admin)
	refresh, _ := m.IssueRefreshToken(admin)

	clock.Advance(time.Hour + time.Second)
	_, err := m.VerifyAccessToken(access)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
	if errors.Is(err, ErrTokenInvalid) {
		t.Error("expired token must not also classify as invalid")
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Error("ErrTokenExpired should wrap ErrUnauthorized")
	}

	if _, err := m.VerifyRefreshToken(refresh); err != nil {
		t.Errorf("refresh token should outlive access token: %v", err)
	}
	clock.Advance(240 * time.Hour)
	if _, err := m.VerifyRefreshToken(refresh); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("refresh after ttl: got %v, want ErrTokenExpired", err)
	}
}

func TestForeignSecretIsInvalid(t *testing.T) {
	ours := newTestTokens(t, testSecret, nil)
	theirs := newTestTokens(t, "some-other-secret", nil)
	admin := &model.Admin{ID: 1, Username: "alice"}

	token, _ := theirs.IssueAccessToken(admin)
	_, err := ours.VerifyAccessToken(token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid", err)
	}
	if errors.Is(err, ErrTokenExpired) {
		t.Error("foreign token must never classify as expired")
	}
}

func TestForeignSecretExpiredIsInvalid(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	ours := newTestTokens(t, testSecret, clock)
	theirs := newTestTokens(t, "some-other-secret", clock)

	token, _ := theirs.IssueAccessToken(&model.Admin{ID: 1, Username: "alice"})
	clock.Advance(48 * time.Hour)

	if _, err := ours.VerifyAccessToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid", err)
	}
}

func TestMalformedTokens(t *testing.T) {
	m := newTestTokens(t, testSecret, nil)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"admin_id": 1, "token_use": "access", "sub": "1", "iss": DefaultIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"admin_id": 1, "token_use": "access", "sub": "1", "iss": "someone-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	foreignIss, _ := wrongIssuer.SignedString([]byte(testSecret))

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"admin_id": 1, "token_use": "access", "sub": "1", "iss": DefaultIssuer,
	})
	forever, _ := noExpiry.SignedString([]byte(testSecret))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "garbage.token.here"},
		{"truncated", strings.Repeat("a", 20)},
		{"alg none", unsigned},
		{"wrong issuer", foreignIss},
		{"no expiry", forever},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.VerifyAccessToken(tt.token); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("got %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrBadCredentials, "bad-credentials"},
		{ErrTokenExpired, "expired-token"},
		{ErrTokenInvalid, "invalid-token"},
		{ErrNotFound, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := Reason(tt.err); got != tt.want {
			t.Errorf("Reason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
