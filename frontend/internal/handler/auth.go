package handler

import (
	"net/http"
	"strings"

	"github.com/degixdaw/filebrowser/frontend/internal/middleware"
	internal_errors "github.com/degixdaw/filebrowser/shared/errors"
	"github.com/degixdaw/filebrowser/shared/logger"
)

func (h *Handler) LoginPostHandler(w http.ResponseWriter, r *http.Request) {
	targetURL := "/"

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	remember := r.PostFormValue("remember") != ""

	res, err := h.Auth.Login(r.Context(), email, password)
	if err != nil {
		logger.Log.Warn("login failed", "kind", internal_errors.KindOf(err), "error", err)
		msg := "Login failed: backend unavailable."
		switch internal_errors.KindOf(err) {
		case internal_errors.Authorization:
			msg = "Login failed: invalid email or password."
		case internal_errors.MalformedInput:
			msg = "Login failed: email and password are required."
		}
		middleware.RedirectWithFlash(w, r, targetURL, middleware.FlashError, msg)
		return
	}

	h.Session.SetUser(res.Token, res.UserID, res.Email)

	if h.Creds != nil {
		if remember {
			if err := h.Creds.Save(email, password); err != nil {
				logger.Log.Error("failed to save credentials", "error", err)
			}
		} else if err := h.Creds.Clear(); err != nil {
			logger.Log.Error("failed to clear credentials", "error", err)
		}
	}

	middleware.RedirectWithFlash(w, r, targetURL, middleware.FlashSuccess, "Signed in as "+res.Email+".")
}

// LogoutPostHandler forgets the token, the saved credentials and everything
// listed or previewed with them.
func (h *Handler) LogoutPostHandler(w http.ResponseWriter, r *http.Request) {
	h.Session.Clear()
	h.Cache.Reset()
	if h.Creds != nil {
		if err := h.Creds.Clear(); err != nil {
			logger.Log.Error("failed to clear credentials", "error", err)
		}
	}
	logger.Log.Info("signed out")
	middleware.RedirectWithFlash(w, r, "/", middleware.FlashSuccess, "Signed out.")
}
