package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/degixdaw/filebrowser/shared/config"
	internal_errors "github.com/degixdaw/filebrowser/shared/errors"
	"github.com/degixdaw/filebrowser/shared/logger"
	"github.com/degixdaw/filebrowser/shared/middleware/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// APIClient talks to the attachment catalog, the storage signer and signed URLs.
// Every method makes its own request; nothing is pooled beyond the http.Client.
type APIClient struct {
	BaseURL             string // scheme://host of the backend, no trailing slash
	AnonKey             string
	Bucket              string
	AttachmentsResource string
	AttachmentsJoin     string
	StoragePrefix       string
	HttpClient          *http.Client

	validate *validator.Validate
}

type Options struct {
	BaseURL             string
	AnonKey             string
	Bucket              string
	AttachmentsResource string
	AttachmentsJoin     string
	StoragePrefix       string
	// Transport defaults to http.DefaultTransport. It is always wrapped with
	// Prometheus instrumentation.
	Transport http.RoundTripper
}

// New creates a new client for interacting with the backend.
// No client timeout is set; calls end when the transport gives up or ctx is cancelled.
func New(opts Options) *APIClient {
	return &APIClient{
		BaseURL:             strings.TrimRight(opts.BaseURL, "/"),
		AnonKey:             opts.AnonKey,
		Bucket:              opts.Bucket,
		AttachmentsResource: opts.AttachmentsResource,
		AttachmentsJoin:     opts.AttachmentsJoin,
		StoragePrefix:       strings.TrimRight(opts.StoragePrefix, "/"),
		HttpClient:          &http.Client{Transport: metrics.InstrumentTransport(opts.Transport)},
		validate:            validator.New(validator.WithRequiredStructEnabled()),
	}
}

func NewFromConfig(cfg *config.Config) *APIClient {
	s := cfg.Public.Supabase
	return New(Options{
		BaseURL:             s.BaseURL,
		AnonKey:             cfg.AnonKey(),
		Bucket:              s.Bucket,
		AttachmentsResource: s.AttachmentsResource,
		AttachmentsJoin:     s.AttachmentsJoin,
		StoragePrefix:       s.StoragePrefix,
	})
}

// apiHeaders are the headers every backend API call carries.
func (c *APIClient) apiHeaders(bearer string) http.Header {
	h := http.Header{}
	h.Set("apikey", c.AnonKey)
	h.Set("Authorization", "Bearer "+bearer)
	h.Set(requestIDHeader, uuid.NewString())
	return h
}

// do is the single, unified helper for making requests. A nil header sends the
// request without any custom header.
func (c *APIClient) do(ctx context.Context, op, method, rawURL string, body io.Reader, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, internal_errors.New(op, internal_errors.Transport, internal_errors.StageOpen,
			fmt.Errorf("failed to create request: %w", err))
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.HttpClient.Do(req)
	if err != nil {
		logger.Log.Warn("backend request failed",
			"component", "apiclient",
			"op", op,
			"request_id", req.Header.Get(requestIDHeader),
			"error", err)
		return nil, internal_errors.New(op, internal_errors.Transport, stageOf(err), err)
	}

	logger.Log.Debug("backend request",
		"component", "apiclient",
		"op", op,
		"method", method,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(requestIDHeader),
		"duration", time.Since(start))
	return resp, nil
}

// stageOf tells connection failures apart from failures after the connection was up.
func stageOf(err error) internal_errors.Stage {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return internal_errors.StageConnect
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return internal_errors.StageConnect
	}
	return internal_errors.StageSend
}

// readBody drains and closes resp.Body. Non-2xx answers become errors; 401 and 403
// are authorization failures so the UI can ask for a new login.
func readBody(op string, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, internal_errors.New(op, internal_errors.Transport, internal_errors.StageReceive,
			fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := internal_errors.Transport
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = internal_errors.Authorization
		}
		e := internal_errors.New(op, kind, internal_errors.StageReceive,
			fmt.Errorf("%w: %s", ErrUnexpectedStatus, backendMessage(data)))
		e.StatusCode = resp.StatusCode
		return nil, e
	}
	return data, nil
}

const maxMessageLen = 200

// backendMessage extracts a human readable message from an error body.
func backendMessage(data []byte) string {
	var doc struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if json.Unmarshal(data, &doc) == nil {
		for _, m := range []string{doc.ErrorDescription, doc.Message, doc.Msg, doc.Error} {
			if m != "" {
				return m
			}
		}
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen] + "..."
	}
	if msg == "" {
		msg = "empty response"
	}
	return msg
}

// observe records the outcome of an operation in metrics.
func observe(op string, err error) {
	switch {
	case err == nil:
		metrics.ObserveOperation(op, "ok")
	case errors.Is(err, context.Canceled):
		metrics.ObserveOperation(op, "canceled")
	default:
		kind := string(internal_errors.KindOf(err))
		if kind == "" {
			kind = "error"
		}
		metrics.ObserveOperation(op, kind)
	}
}
