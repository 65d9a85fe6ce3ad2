package validation

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/degixdaw/filebrowser/shared/domain"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeImage turns a fetched payload into a bitmap. Empty payloads are rejected
// before any codec runs.
func DecodeImage(data []byte) (*domain.DecodedImage, error) {
	if len(data) == 0 {
		return nil, ErrEmptyBody
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s image has no pixels", ErrDecodeFailure, format)
	}

	return &domain.DecodedImage{Image: img, Format: format, Bytes: len(data)}, nil
}
