package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sentinelops/incidentdesk/internal/service"
)

// ---------------------------------------------------------------------------
// queryInt tests
// ---------------------------------------------------------------------------

func TestQueryInt(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		key        string
		defaultVal int
		want       int
	}{
		{"returns default for missing param", "/test", "end", 10, 10},
		{"parses integer param", "/test?end=100", "end", 10, 100},
		{"returns default for non-integer", "/test?end=abc", "end", 10, 10},
		{"parses zero", "/test?start=0", "start", 10, 0},
		{"parses negative", "/test?start=-5", "start", 0, -5},
		{"returns default for empty value", "/test?end=", "end", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			got := queryInt(r, tt.key, tt.defaultVal)
			if got != tt.want {
				t.Errorf("queryInt(%q, %d) = %d, want %d", tt.key, tt.defaultVal, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// clampInt tests
// ---------------------------------------------------------------------------

func TestClampInt(t *testing.T) {
	tests := []struct {
		name string
		val  int
		min  int
		max  int
		want int
	}{
		{"within range", 50, 0, 100, 50},
		{"at min", 0, 0, 100, 0},
		{"at max", 100, 0, 100, 100},
		{"below min clamps to min", -5, 0, 100, 0},
		{"above max clamps to max", 500, 0, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clampInt(tt.val, tt.min, tt.max)
			if got != tt.want {
				t.Errorf("clampInt(%d, %d, %d) = %d, want %d", tt.val, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// writeError tests
// ---------------------------------------------------------------------------

func TestWriteError(t *testing.T) {
	t.Run("writes JSON error response", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeError(w, http.StatusBadRequest, "Invalid input")

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}
		body := w.Body.String()
		if !strings.Contains(body, `"code":400`) {
			t.Errorf("expected code 400 in body: %s", body)
		}
		if !strings.Contains(body, `"message":"Invalid input"`) {
			t.Errorf("expected message in body: %s", body)
		}
		if strings.Contains(body, `"context"`) {
			t.Errorf("context should be omitted when empty: %s", body)
		}
	})
}

// ---------------------------------------------------------------------------
// writeJSON tests
// ---------------------------------------------------------------------------

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]string{"hello": "world"})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}
	if body := w.Body.String(); !strings.Contains(body, `"hello":"world"`) {
		t.Errorf("expected JSON body, got: %s", body)
	}
}

// ---------------------------------------------------------------------------
// writeAuthError tests
// ---------------------------------------------------------------------------

func TestWriteAuthError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{"missing field", fmt.Errorf("%w: username", service.ErrMissingField), http.StatusBadRequest, ""},
		{"invalid field", fmt.Errorf("%w: password", service.ErrInvalidField), http.StatusBadRequest, ""},
		{"conflict", service.ErrConflict, http.StatusBadRequest, ""},
		{"not found", service.ErrNotFound, http.StatusNotFound, ""},
		{"bad credentials", service.ErrBadCredentials, http.StatusUnauthorized, "bad-credentials"},
		{"expired", service.ErrTokenExpired, http.StatusUnauthorized, "expired-token"},
		{"invalid", service.ErrTokenInvalid, http.StatusUnauthorized, "invalid-token"},
		{"internal", fmt.Errorf("%w: %w", service.ErrInternal, errors.New("disk full")), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeAuthError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			detail := decodeError(t, w)
			reason, _ := detail.Context["reason"].(string)
			if reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}

func TestWriteAuthErrorKeepsCause(t *testing.T) {
	w := httptest.NewRecorder()
	writeAuthError(w, fmt.Errorf("%w: %w", service.ErrInternal, errors.New("disk full")))
	if !strings.Contains(w.Body.String(), "disk full") {
		t.Errorf("500 body should carry the cause: %s", w.Body.String())
	}
}
