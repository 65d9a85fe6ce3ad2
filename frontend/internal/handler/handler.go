package handler

import (
	"context"
	"html/template"

	"github.com/degixdaw/filebrowser/frontend/internal/apiclient"
	"github.com/degixdaw/filebrowser/frontend/internal/session"
	"github.com/degixdaw/filebrowser/shared/domain"
	"github.com/microcosm-cc/bluemonday"
)

// PreviewCache is the state behind the listing and the preview pane.
type PreviewCache interface {
	OnFilterChange(ctx context.Context, filter domain.FilterCategory) error
	OnSelect(ctx context.Context, index int) error
	Snapshot() []domain.FileRecord
	Current() (*domain.DecodedImage, int)
	Filter() domain.FilterCategory
	Reset()
}

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*apiclient.LoginResult, error)
}

type CredentialStore interface {
	HasSaved() bool
	Load() (email, password string, err error)
	Save(email, password string) error
	Clear() error
}

type Handler struct {
	Templates map[string]*template.Template
	Cache     PreviewCache
	Auth      Authenticator
	Session   *session.Session
	Creds     CredentialStore

	sanitizer *bluemonday.Policy
}

func New(templates map[string]*template.Template, cache PreviewCache, auth Authenticator, sess *session.Session, creds CredentialStore) *Handler {
	return &Handler{
		Templates: templates,
		Cache:     cache,
		Auth:      auth,
		Session:   sess,
		Creds:     creds,
		sanitizer: bluemonday.StrictPolicy(),
	}
}
