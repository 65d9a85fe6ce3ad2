package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/degixdaw/filebrowser/frontend/internal/apiclient"
	"github.com/degixdaw/filebrowser/frontend/internal/credstore"
	"github.com/degixdaw/filebrowser/frontend/internal/handler"
	"github.com/degixdaw/filebrowser/frontend/internal/preview"
	"github.com/degixdaw/filebrowser/frontend/internal/session"
	"github.com/degixdaw/filebrowser/shared/config"
	"github.com/degixdaw/filebrowser/shared/crypto"
	internal_errors "github.com/degixdaw/filebrowser/shared/errors"
	"github.com/degixdaw/filebrowser/shared/logger"
	"github.com/degixdaw/filebrowser/shared/middleware/ratelimiter"
)

// loginBurst is how many logins per email go through before the one-per-second limit applies.
const loginBurst = 3

type Dependencies struct {
	Handler      *handler.Handler
	Public       config.Public
	Client       *apiclient.APIClient
	Session      *session.Session
	Cache        *preview.Cache
	Creds        *credstore.Store
	LoginLimiter *ratelimiter.KeyedLimiter
}

func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	templates, err := handler.ParseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	credPath, err := expandHome(cfg.Public.CredentialsPath)
	if err != nil {
		return nil, err
	}
	creds, err := openCredentials(credPath, cfg.CredentialsKey())
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	client := apiclient.NewFromConfig(cfg)
	sess := session.New()
	cache := preview.New(client, client, client, sess)

	return &Dependencies{
		Handler:      handler.New(templates, cache, client, sess, creds),
		Public:       cfg.Public,
		Client:       client,
		Session:      sess,
		Cache:        cache,
		Creds:        creds,
		LoginLimiter: ratelimiter.OncePerSecond(loginBurst),
	}, nil
}

// AutoLogin signs in with saved credentials, if any. Rejected credentials are
// removed so the next start does not retry them.
func (d *Dependencies) AutoLogin(ctx context.Context) error {
	if !d.Creds.HasSaved() {
		return nil
	}
	email, password, err := d.Creds.Load()
	if err != nil {
		if errors.Is(err, credstore.ErrCorrupt) {
			logger.Log.Warn("saved credentials unreadable, removing", "path", d.Creds.Path(), "error", err)
			_ = d.Creds.Clear()
			return nil
		}
		return err
	}

	res, err := d.Client.Login(ctx, email, password)
	if err != nil {
		if internal_errors.IsAuthorization(err) {
			logger.Log.Warn("saved credentials rejected, removing", "email", email)
			_ = d.Creds.Clear()
		}
		return fmt.Errorf("auto login failed: %w", err)
	}
	d.Session.SetUser(res.Token, res.UserID, res.Email)
	return nil
}

func (d *Dependencies) Close() {
	d.Cache.Close()
}

func openCredentials(path, key string) (*credstore.Store, error) {
	if key == "" {
		return credstore.NewForMachine(path)
	}
	vault, err := crypto.NewVaultFromBase64(key)
	if err != nil {
		return nil, err
	}
	return credstore.New(path, vault), nil
}

func expandHome(p string) (string, error) {
	if p == "" || p[0] != '~' {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}
