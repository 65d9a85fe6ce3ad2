package session

import (
	"sync"

	"github.com/degixdaw/filebrowser/shared/jwt"
)

// Session owns the bearer credential of the signed-in user. It is created once
// and passed to every catalog and signing call; readers always see the latest
// value written by SetToken/SetUser/Clear.
type Session struct {
	mu     sync.RWMutex
	token  string
	userID string
	email  string
}

func New() *Session {
	return &Session{}
}

// SetToken overwrites the credential. When the token is a JWT its subject becomes
// the user id; otherwise the identity is cleared.
func (s *Session) SetToken(token string) {
	userID, email := "", ""
	if claims, err := jwt.Inspect(token); err == nil {
		userID, email = claims.Subject, claims.Email
	}
	s.SetUser(token, userID, email)
}

// SetUser overwrites the credential together with an identity the login
// response vouched for.
func (s *Session) SetUser(token, userID, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.userID = userID
	s.email = email
}

// Token returns the bearer token, "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

func (s *Session) SignedIn() bool {
	return s.Token() != ""
}

func (s *Session) Clear() {
	s.SetUser("", "", "")
}
