package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/degixdaw/filebrowser/shared/middleware/ratelimiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders(UICSP)(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, UICSP, w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	w = httptest.NewRecorder()
	SecurityHeaders("")(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, w.Header().Get("Content-Security-Policy"))
}

func TestGetIP(t *testing.T) {
	tests := []struct {
		remote  string
		want    string
		wantErr bool
	}{
		{"127.0.0.1:5000", "127.0.0.1", false},
		{"[::1]:5000", "::1", false},
		{"10.0.0.1", "10.0.0.1", false},
		{"not-an-ip:80", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			r.Header.Set("X-Forwarded-For", "1.2.3.4")

			got, err := GetIP(r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func postForm(values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(ratelimiter.New(1.0/60, 2, time.Hour), GetFieldFromForm("email"))(okHandler())

	send := func(email string) int {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, postForm(url.Values{"email": {email}}))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("me@example.com"))
	assert.Equal(t, http.StatusOK, send(" ME@example.com "))
	assert.Equal(t, http.StatusTooManyRequests, send("me@example.com"))
	assert.Equal(t, http.StatusOK, send("other@example.com"))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, postForm(url.Values{}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
