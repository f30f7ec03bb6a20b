package history

import (
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/oliveoi1/clnbrd/internal/clipboard"
)

// KeySize is the length of a history key in bytes.
const KeySize = chacha20poly1305.KeySize

// ErrDecrypt is returned when stored content cannot be opened with the key.
var ErrDecrypt = errors.New("history content cannot be decrypted with this key")

// Sealer protects history content at rest.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
	// Fingerprint identifies content for deduplication without storing it.
	Fingerprint(parts ...[]byte) string
}

type aeadSealer struct {
	aead   cipher.AEAD
	macKey []byte
}

// NewSealer returns an XChaCha20-Poly1305 sealer. Each Seal uses a fresh
// random nonce stored in front of the ciphertext.
func NewSealer(key []byte) (Sealer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("history key must be %d bytes, got %d", KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	macKey := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, []byte("clnbrd history fingerprint")), macKey); err != nil {
		return nil, fmt.Errorf("derive fingerprint key: %w", err)
	}
	return &aeadSealer{aead: aead, macKey: macKey}, nil
}

func (s *aeadSealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *aeadSealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < s.aead.NonceSize() {
		return nil, ErrDecrypt
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}

func (s *aeadSealer) Fingerprint(parts ...[]byte) string {
	mac := hmac.New(sha256.New, s.macKey)
	for _, p := range parts {
		mac.Write(p)
		mac.Write([]byte{0})
	}
	return hex.EncodeToString(mac.Sum(nil))
}

type plainSealer struct{}

// PlainSealer stores content unencrypted.
func PlainSealer() Sealer { return plainSealer{} }

func (plainSealer) Seal(p []byte) ([]byte, error) { return append([]byte(nil), p...), nil }
func (plainSealer) Open(p []byte) ([]byte, error) { return append([]byte(nil), p...), nil }

func (plainSealer) Fingerprint(parts ...[]byte) string {
	withSep := make([][]byte, 0, len(parts)*2)
	for _, p := range parts {
		withSep = append(withSep, p, []byte{0})
	}
	return clipboard.Hash(withSep...)
}

// LoadOrCreateKey reads the key at path, generating one with mode 0600 when
// the file does not exist.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(key) != KeySize {
			return nil, fmt.Errorf("history key %s: want %d bytes, got %d", path, KeySize, len(key))
		}
		return key, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read history key: %w", err)
	}

	key = make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate history key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("write history key: %w", err)
	}
	return key, nil
}
