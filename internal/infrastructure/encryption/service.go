package encryption

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"store-order-hub/internal/ports"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

// Service seals secrets with NaCl secretbox. Output is base64(nonce || box).
type Service struct {
	key [keySize]byte
}

// NewService creates an encryption service from a base64 encoded 32 byte key
func NewService(base64Key string) (ports.EncryptionService, error) {
	if base64Key == "" {
		return nil, errors.New("missing ENCRYPTION_KEY")
	}
	raw, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("decode ENCRYPTION_KEY: %w", err)
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("ENCRYPTION_KEY must decode to %d bytes, got %d", keySize, len(raw))
	}
	s := &Service{}
	copy(s.key[:], raw)
	return s, nil
}

// Encrypt seals plaintext with a fresh random nonce
func (s *Service) Encrypt(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt
func (s *Service) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", errors.New("invalid ciphertext")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plaintext, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", errors.New("failed to decrypt: authentication failed")
	}
	return string(plaintext), nil
}
