package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/degixdaw/filebrowser/shared/domain"
	internal_errors "github.com/degixdaw/filebrowser/shared/errors"
	"github.com/degixdaw/filebrowser/shared/logger"
	"github.com/degixdaw/filebrowser/shared/validation"
)

// FetchImage downloads a signed URL and decodes the payload. The request carries
// no custom headers since the URL itself is the authorization.
func (c *APIClient) FetchImage(ctx context.Context, signedURL string) (img *domain.DecodedImage, err error) {
	const op = "fetch_image"
	defer func() { observe(op, err) }()

	if err := checkURL(signedURL); err != nil {
		return nil, internal_errors.New(op, internal_errors.MalformedInput, internal_errors.StageOpen, err)
	}

	resp, err := c.do(ctx, op, http.MethodGet, signedURL, nil, nil)
	if err != nil {
		return nil, err
	}
	data, err := readBody(op, resp)
	if err != nil {
		return nil, err
	}

	img, err = validation.DecodeImage(data)
	if err != nil {
		stage := internal_errors.StageDecode
		if errors.Is(err, validation.ErrEmptyBody) {
			stage = internal_errors.StageReceive
		}
		return nil, internal_errors.New(op, internal_errors.Parse, stage, err)
	}

	logger.Log.Debug("image fetched",
		"component", "fetcher",
		"format", img.Format,
		"bytes", img.Bytes,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())
	return img, nil
}

// checkURL requires a scheme separator followed by a host and a path separator.
func checkURL(raw string) error {
	i := strings.Index(raw, "://")
	if i <= 0 {
		return fmt.Errorf("%w: no scheme separator in %q", ErrMalformedURL, raw)
	}
	rest := raw[i+len("://"):]
	if j := strings.IndexByte(rest, '/'); j <= 0 {
		return fmt.Errorf("%w: no host or path in %q", ErrMalformedURL, raw)
	}
	if _, err := url.Parse(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	return nil
}
