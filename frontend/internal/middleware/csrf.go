package middleware

import (
	"context"
	"net/http"

	"github.com/degixdaw/filebrowser/shared/csrf"
	"github.com/degixdaw/filebrowser/shared/logger"
)

const (
	csrfCookieName = "csrf_token"
	csrfFormField  = "csrf_token"
	// CSRFHeader carries the token for fetch() calls from the page script.
	CSRFHeader = "X-CSRF-Token"
)

type csrfContextKey struct{}

// GenerateCSRFToken makes sure the browser holds a token cookie and exposes the
// token to templates through the request context.
func GenerateCSRFToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if cookie, err := r.Cookie(csrfCookieName); err == nil {
			token = cookie.Value
		}
		if token == "" {
			var err error
			token, err = csrf.GenerateToken()
			if err != nil {
				logger.Log.Error("failed to generate CSRF token", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteStrictMode,
			})
		}

		ctx := context.WithValue(r.Context(), csrfContextKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ValidateCSRFToken rejects state-changing requests whose form field or
// X-CSRF-Token header does not match the cookie.
func ValidateCSRFToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(csrfCookieName)
		if err != nil {
			logger.Log.Warn("CSRF token cookie missing", "path", r.URL.Path)
			http.Error(w, "CSRF token missing", http.StatusForbidden)
			return
		}

		submitted := r.Header.Get(CSRFHeader)
		if submitted == "" {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form data", http.StatusBadRequest)
				return
			}
			submitted = r.PostFormValue(csrfFormField)
		}

		if !csrf.ValidateToken(cookie.Value, submitted) {
			logger.Log.Warn("CSRF token validation failed", "path", r.URL.Path)
			http.Error(w, "CSRF token invalid", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CSRFToken returns the token stored by GenerateCSRFToken.
func CSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfContextKey{}).(string)
	return token
}
