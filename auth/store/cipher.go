package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keySalt       = "storegate-token-store"
	keyIterations = 100000
	minSecretLen  = 16
)

// ErrSecretTooShort is returned for secrets shorter than 16 characters.
var ErrSecretTooShort = errors.New("encryption secret is not configured or too short")

// Cipher seals persisted entries with AES-256-GCM.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives a 32-byte key from secret with PBKDF2-SHA256.
func NewCipher(secret string) (*Cipher, error) {
	if len(secret) < minSecretLen {
		return nil, ErrSecretTooShort
	}
	key := pbkdf2.Key([]byte(secret), []byte(keySalt), keyIterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Seal encrypts plain text; the nonce is prepended to the cipher text.
func (c *Cipher) Seal(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (c *Cipher) Open(sealed string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("invalid sealed value: %w", err)
	}
	size := c.aead.NonceSize()
	if len(data) < size {
		return "", errors.New("invalid sealed value: too short")
	}
	plain, err := c.aead.Open(nil, data[:size], data[size:], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
