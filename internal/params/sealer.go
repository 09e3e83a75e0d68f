package params

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Sealer encrypts parameter values at rest with XChaCha20-Poly1305.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer creates a Sealer from a base64-encoded 32-byte key. An empty key
// generates a fresh one, which is returned encoded so it can be persisted.
func NewSealer(key string) (*Sealer, string, error) {
	var keyBytes []byte
	if key == "" {
		keyBytes = make([]byte, chacha20poly1305.KeySize)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, "", fmt.Errorf("generating encryption key: %w", err)
		}
		key = base64.StdEncoding.EncodeToString(keyBytes)
	} else {
		decoded, err := base64.StdEncoding.DecodeString(key)
		if err != nil {
			return nil, "", fmt.Errorf("decoding encryption key: %w", err)
		}
		keyBytes = decoded
	}

	if len(keyBytes) != chacha20poly1305.KeySize {
		return nil, "", fmt.Errorf("encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(keyBytes))
	}

	aead, err := chacha20poly1305.NewX(keyBytes)
	if err != nil {
		return nil, "", fmt.Errorf("creating cipher: %w", err)
	}
	return &Sealer{aead: aead}, key, nil
}

// Seal encrypts plaintext bound to name and returns base64 ciphertext.
// Binding the name keeps a value from being replayed under another parameter.
func (s *Sealer) Seal(name, plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(name))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (s *Sealer) Open(name, encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}
	n := s.aead.NonceSize()
	if len(data) < n {
		return "", errors.New("ciphertext too short")
	}
	plain, err := s.aead.Open(nil, data[:n], data[n:], []byte(name))
	if err != nil {
		return "", fmt.Errorf("decrypting %s: %w", name, err)
	}
	return string(plain), nil
}
