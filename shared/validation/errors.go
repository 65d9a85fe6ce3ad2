package validation

import "errors"

// ErrEmptyBody is returned when an image payload has zero bytes
var ErrEmptyBody = errors.New("empty image body")

// ErrDecodeFailure is returned when no registered codec accepts the payload
var ErrDecodeFailure = errors.New("image decode failed")
