package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// Kind classifies a failure so callers can react to it (re-login vs "network problem").
type Kind string

const (
	Transport      Kind = "transport"
	Parse          Kind = "parse"
	MalformedInput Kind = "malformed_input"
	Authorization  Kind = "authorization"
)

// Stage names the step of a remote call that failed.
type Stage string

const (
	StageOpen    Stage = "open"
	StageConnect Stage = "connect"
	StageSend    Stage = "send"
	StageReceive Stage = "receive"
	StageParse   Stage = "parse"
	StageDecode  Stage = "decode"
)

// Error is returned by every remote operation of the catalog client.
// StatusCode is the backend's HTTP status when one was received, 0 otherwise.
type Error struct {
	Op         string
	Kind       Kind
	Stage      Stage
	StatusCode int
	Err        error
}

func New(op string, kind Kind, stage Stage, err error) *Error {
	return &Error{Op: op, Kind: kind, Stage: stage, Err: err}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s failed", e.Op, e.Stage)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsAuthorization(err error) bool {
	return KindOf(err) == Authorization
}

// HTTPStatus maps an error to the status the local UI should answer with.
func HTTPStatus(err error) int {
	var withStatus *ErrorWithStatusCode
	if errors.As(err, &withStatus) {
		return withStatus.StatusCode
	}
	switch KindOf(err) {
	case Authorization:
		return http.StatusUnauthorized
	case MalformedInput:
		return http.StatusBadRequest
	case Transport, Parse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
