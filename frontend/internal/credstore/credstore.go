// Package credstore keeps the email and an encrypted password of the last user
// who asked to be remembered.
//
// File layout: [uint32 BE len][email][uint32 BE len][ciphertext]. By default the
// ciphertext is sealed with a key derived from the machine and OS user, so a
// copied file cannot be opened elsewhere.
package credstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/degixdaw/filebrowser/shared/crypto"
	"github.com/degixdaw/filebrowser/shared/logger"
)

var (
	ErrNoSavedCredentials = errors.New("no saved credentials")
	ErrCorrupt            = errors.New("credentials file is corrupt")
)

const maxFieldLen = 64 * 1024

type Store struct {
	path  string
	vault *crypto.Vault
	mu    sync.Mutex
}

func New(path string, vault *crypto.Vault) *Store {
	return &Store{path: path, vault: vault}
}

// NewForMachine returns a store sealed with crypto.MachineKey.
func NewForMachine(path string) (*Store, error) {
	key, err := crypto.MachineKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive machine key: %w", err)
	}
	v, err := crypto.NewVault(key)
	if err != nil {
		return nil, err
	}
	return New(path, v), nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) HasSaved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, err := os.Stat(s.path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Load returns the saved email and decrypted password.
func (s *Store) Load() (email, password string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", "", ErrNoSavedCredentials
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to read credentials: %w", err)
	}

	r := bytes.NewReader(data)
	emailBytes, err := readField(r)
	if err != nil {
		return "", "", err
	}
	sealed, err := readField(r)
	if err != nil {
		return "", "", err
	}
	if r.Len() != 0 {
		return "", "", fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, r.Len())
	}

	plain, err := s.vault.Decrypt(sealed)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return string(emailBytes), string(plain), nil
}

// Save overwrites the file atomically with mode 0600.
func (s *Store) Save(email, password string) error {
	if email == "" {
		return errors.New("email is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := s.vault.Encrypt([]byte(password))
	if err != nil {
		return fmt.Errorf("failed to encrypt password: %w", err)
	}

	var buf bytes.Buffer
	writeField(&buf, []byte(email))
	writeField(&buf, sealed)

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace credentials: %w", err)
	}
	logger.Log.Info("credentials saved", "component", "credstore", "path", s.path)
	return nil
}

// Clear removes the file. Clearing an absent file is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

func writeField(buf *bytes.Buffer, b []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(b)))
	buf.Write(n[:])
	buf.Write(b)
}

func readField(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("%w: length prefix: %v", ErrCorrupt, err)
	}
	if n > maxFieldLen || int(n) > r.Len() {
		return nil, fmt.Errorf("%w: field length %d", ErrCorrupt, n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return b, nil
}
