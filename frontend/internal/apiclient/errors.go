package apiclient

import "errors"

var (
	// ErrNoCredential is returned by SignPath when the session holds no token.
	ErrNoCredential = errors.New("not signed in")

	// ErrIdentityRequired is returned when the received-files filter is used
	// without knowing who the current user is.
	ErrIdentityRequired = errors.New("received files filter needs the signed-in user's identity")

	// ErrMissingField is returned when a response lacks an expected field or has it with the wrong type.
	ErrMissingField = errors.New("response field missing")

	// ErrUnexpectedStatus is returned for non-2xx answers.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrMalformedURL is returned for URLs without a scheme separator or a path.
	ErrMalformedURL = errors.New("malformed URL")

	ErrUnknownFilter = errors.New("unknown filter")
)
