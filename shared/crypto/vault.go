package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"

	"golang.org/x/crypto/hkdf"
)

var (
	ErrInvalidKey        = errors.New("encryption key must be 32 bytes for AES-256")
	ErrInvalidCiphertext = errors.New("ciphertext is too short or corrupted")
)

const (
	keySize   = 32
	vaultInfo = "filebrowser credential vault v1"
)

// machineIDFiles are tried in order; the first readable one wins.
var machineIDFiles = []string{"/etc/machine-id", "/var/lib/dbus/machine-id"}

// Vault encrypts small secrets at rest with AES-256-GCM.
type Vault struct {
	key []byte
}

// NewVault creates a Vault with the provided key
// The key should be 32 bytes for AES-256
func NewVault(key []byte) (*Vault, error) {
	if len(key) != keySize {
		return nil, ErrInvalidKey
	}
	k := make([]byte, keySize)
	copy(k, key)
	return &Vault{key: k}, nil
}

// NewVaultFromBase64 is NewVault for keys kept in config files.
func NewVaultFromBase64(keyBase64 string) (*Vault, error) {
	key, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	return NewVault(key)
}

// Encrypt encrypts plaintext using AES-256-GCM
// Returns the encrypted bytes with the nonce prepended
func (v *Vault) Encrypt(plaintext []byte) ([]byte, error) {
	gcm, err := v.gcm()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt reverses Encrypt. Tampered or foreign ciphertext fails authentication.
func (v *Vault) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, ErrInvalidCiphertext
	}

	gcm, err := v.gcm()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, ErrInvalidCiphertext
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

func (v *Vault) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// DeriveKey stretches machine-local material into a 32-byte key with HKDF-SHA256.
func DeriveKey(secret, salt []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty key material")
	}
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, []byte(vaultInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// MachineKey derives a key bound to this machine and OS user. Ciphertext produced
// with it cannot be opened on another machine or by another account.
func MachineKey() ([]byte, error) {
	machineID := readMachineID()
	if machineID == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("no machine identity available: %w", err)
		}
		machineID = host
	}

	account := ""
	if u, err := user.Current(); err == nil {
		account = u.Uid + ":" + u.Username
	}

	return DeriveKey([]byte(machineID), []byte(account))
}

func readMachineID() string {
	for _, p := range machineIDFiles {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(data)); id != "" {
			return id
		}
	}
	return ""
}

// GenerateKey generates a random 32-byte key for AES-256 and returns it as base64
func GenerateKey() (string, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
