package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	internal_errors "github.com/degixdaw/filebrowser/shared/errors"
	"github.com/degixdaw/filebrowser/shared/logger"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// LoginResult is what a successful password login yields.
type LoginResult struct {
	Token        string
	RefreshToken string
	UserID       string
	Email        string
	ExpiresIn    int
}

// Login exchanges email and password for a user token. Rejected credentials are
// reported as authorization errors.
func (c *APIClient) Login(ctx context.Context, email, password string) (res *LoginResult, err error) {
	const op = "login"
	defer func() { observe(op, err) }()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, internal_errors.New(op, internal_errors.MalformedInput, internal_errors.StageOpen,
			fmt.Errorf("email and password are required"))
	}

	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, internal_errors.New(op, internal_errors.Transport, internal_errors.StageOpen, err)
	}

	header := c.apiHeaders(c.AnonKey)
	header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, op, http.MethodPost, c.BaseURL+"/auth/v1/token?grant_type=password", bytes.NewReader(body), header)
	if err != nil {
		return nil, err
	}
	data, err := readBody(op, resp)
	if err != nil {
		// the auth server answers bad credentials with 400
		if e, ok := err.(*internal_errors.Error); ok && e.StatusCode == http.StatusBadRequest {
			e.Kind = internal_errors.Authorization
		}
		return nil, err
	}

	var lr loginResponse
	if err := json.Unmarshal(data, &lr); err != nil {
		return nil, internal_errors.New(op, internal_errors.Parse, internal_errors.StageParse,
			fmt.Errorf("failed to parse login JSON: %w", err))
	}
	if err := c.validate.Struct(lr); err != nil {
		return nil, internal_errors.New(op, internal_errors.Parse, internal_errors.StageParse,
			fmt.Errorf("%w: access_token", ErrMissingField))
	}

	userEmail := lr.User.Email
	if userEmail == "" {
		userEmail = email
	}
	logger.Log.Info("signed in", "component", "auth", "user_id", lr.User.ID)
	return &LoginResult{
		Token:        lr.AccessToken,
		RefreshToken: lr.RefreshToken,
		UserID:       lr.User.ID,
		Email:        userEmail,
		ExpiresIn:    lr.ExpiresIn,
	}, nil
}
