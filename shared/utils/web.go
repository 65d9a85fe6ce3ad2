package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	internal_errors "github.com/degixdaw/filebrowser/shared/errors"
	"github.com/degixdaw/filebrowser/shared/logger"
)

// ErrorBody is the JSON shape of every error the local UI API returns.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	// Reauth tells the page to show the login form instead of a network error.
	Reauth bool `json:"reauth,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}

// WriteErrorAndStatusCode answers with the status that matches err's kind.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	WriteJSON(w, internal_errors.HTTPStatus(err), NewErrorBody(err))
}

func NewErrorBody(err error) ErrorBody {
	body := ErrorBody{Error: err.Error()}
	var withStatus *internal_errors.ErrorWithStatusCode
	if errors.As(err, &withStatus) {
		body.Error = withStatus.Message
	}
	if kind := internal_errors.KindOf(err); kind != "" {
		body.Kind = string(kind)
		body.Reauth = kind == internal_errors.Authorization
	}
	return body
}
