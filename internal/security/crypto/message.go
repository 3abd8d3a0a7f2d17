// Package crypto seals message text for storage.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

const (
	keySize   = 32
	nonceSize = 12
	tagSize   = 16
)

var (
	// ErrMisconfiguredKey means the configured key is absent or not 32 bytes.
	ErrMisconfiguredKey = errors.New("message encryption key must be 64 hex characters")
	// ErrAuthenticationFailed means an envelope was tampered with, truncated
	// or sealed under another key.
	ErrAuthenticationFailed = errors.New("message authentication failed")
)

// MessageCipher provides AES-256-GCM sealing of message text.
type MessageCipher struct {
	gcm  cipher.AEAD
	rand io.Reader
}

// NewMessageCipher creates a cipher from a hex-encoded 32-byte key.
func NewMessageCipher(hexKey string) (*MessageCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != keySize {
		return nil, ErrMisconfiguredKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &MessageCipher{gcm: gcm, rand: rand.Reader}, nil
}

// Encrypt seals plaintext under a fresh random nonce. Empty text has no
// envelope.
func (c *MessageCipher) Encrypt(plaintext string) (*domain.Envelope, error) {
	if plaintext == "" {
		return nil, nil
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.gcm.Seal(nil, nonce, []byte(plaintext), nil)
	split := len(sealed) - tagSize
	return &domain.Envelope{
		IV:         hex.EncodeToString(nonce),
		Ciphertext: hex.EncodeToString(sealed[:split]),
		Tag:        hex.EncodeToString(sealed[split:]),
	}, nil
}

// Decrypt opens an envelope. A nil envelope decrypts to "".
func (c *MessageCipher) Decrypt(env *domain.Envelope) (string, error) {
	if env == nil {
		return "", nil
	}
	nonce, err := hex.DecodeString(env.IV)
	if err != nil || len(nonce) != nonceSize {
		return "", ErrAuthenticationFailed
	}
	ciphertext, err := hex.DecodeString(env.Ciphertext)
	if err != nil {
		return "", ErrAuthenticationFailed
	}
	tag, err := hex.DecodeString(env.Tag)
	if err != nil || len(tag) != tagSize {
		return "", ErrAuthenticationFailed
	}
	plaintext, err := c.gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrAuthenticationFailed
	}
	return string(plaintext), nil
}
