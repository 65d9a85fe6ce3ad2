package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/degixdaw/filebrowser/frontend/internal/session"
	internal_errors "github.com/degixdaw/filebrowser/shared/errors"
	"github.com/degixdaw/filebrowser/shared/logger"
)

// signExpirySeconds is the lifetime requested for every signed URL.
const signExpirySeconds = 3600

type signRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

// SignPath exchanges a storage path for a time-limited URL. It never falls back
// to the anon key: without a user token it fails before touching the network.
// Signed URLs are not cached; every preview signs again.
func (c *APIClient) SignPath(ctx context.Context, sess *session.Session, storagePath string) (signed string, err error) {
	const op = "sign_path"
	defer func() { observe(op, err) }()

	token := ""
	if sess != nil {
		token = sess.Token()
	}
	if token == "" {
		return "", internal_errors.New(op, internal_errors.Authorization, internal_errors.StageOpen, ErrNoCredential)
	}
	if strings.Trim(storagePath, "/ ") == "" {
		return "", internal_errors.New(op, internal_errors.MalformedInput, internal_errors.StageOpen,
			fmt.Errorf("empty storage path"))
	}

	body, err := json.Marshal(signRequest{ExpiresIn: signExpirySeconds})
	if err != nil {
		return "", internal_errors.New(op, internal_errors.Transport, internal_errors.StageOpen, err)
	}

	header := c.apiHeaders(token)
	header.Set("Content-Type", "application/json")

	target := c.BaseURL + c.StoragePrefix + "/object/sign/" + c.Bucket + "/" + escapePath(storagePath)
	resp, err := c.do(ctx, op, http.MethodPost, target, bytes.NewReader(body), header)
	if err != nil {
		return "", err
	}
	data, err := readBody(op, resp)
	if err != nil {
		return "", err
	}

	signedURL, err := parseSignedURL(data)
	if err != nil {
		return "", internal_errors.New(op, internal_errors.Parse, internal_errors.StageParse, err)
	}

	logger.Log.Debug("storage path signed",
		"component", "signer",
		"storage_path", storagePath)
	return c.absolute(signedURL), nil
}

// parseSignedURL requires a non-empty string "signedURL" field.
func parseSignedURL(data []byte) (string, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse signing response JSON: %w", err)
	}
	raw, ok := doc["signedURL"]
	if !ok {
		return "", fmt.Errorf("%w: signedURL", ErrMissingField)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: signedURL is not a string", ErrMissingField)
	}
	if s == "" {
		return "", fmt.Errorf("%w: signedURL is empty", ErrMissingField)
	}
	return s, nil
}

// absolute rewrites a root-relative signed URL onto the backend host under the
// storage API prefix. Absolute URLs are returned unchanged.
func (c *APIClient) absolute(signed string) string {
	if !strings.HasPrefix(signed, "/") {
		return signed
	}
	if !strings.HasPrefix(signed, c.StoragePrefix+"/") {
		signed = c.StoragePrefix + signed
	}
	return c.BaseURL + signed
}

func escapePath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
