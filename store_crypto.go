package goBearer

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	cryptoKeyLength  uint32 = 32
	cryptoTimeCost   uint32 = 3
	cryptoMemoryKB   uint32 = 64 * 1024
	cryptoThreads    uint8  = 2
	cryptoSaltDomain        = "goBearer.store.v1"
)

// EncryptedStore wraps another TokenStore with AES-256-GCM encryption at rest.
// The cipher key is derived once at construction with argon2id from the
// configured passphrase; ciphertexts are base64-encoded so the wrapper can sit
// on top of any string-valued backend.
type EncryptedStore struct {
	inner TokenStore
	aead  cipher.AEAD
}

// NewEncryptedStore derives the cipher key and wraps inner. The passphrase is
// the only secret: the derivation salt is a fixed domain string, so two stores
// built from the same passphrase can read each other's values.
func NewEncryptedStore(inner TokenStore, passphrase []byte) (*EncryptedStore, error) {
	if len(passphrase) == 0 {
		return nil, ErrMissingPassphrase
	}

	key := argon2.IDKey(passphrase, []byte(cryptoSaltDomain), cryptoTimeCost, cryptoMemoryKB, cryptoThreads, cryptoKeyLength)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &EncryptedStore{
		inner: inner,
		aead:  aead,
	}, nil
}

// Get decrypts the value stored under key. A value that fails authentication
// (wrong passphrase, corrupted backend) surfaces as [ErrDecrypt].
func (s *EncryptedStore) Get(ctx context.Context, key string) (string, bool, error) {
	stored, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}

	raw, err := base64.RawStdEncoding.DecodeString(stored)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(raw) < s.aead.NonceSize() {
		return "", false, ErrDecrypt
	}

	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	return string(plaintext), true, nil
}

// Set encrypts value with a fresh random nonce and stores it under key. The
// key name is bound as AEAD associated data so values cannot be swapped
// between entries behind the wrapper's back.
func (s *EncryptedStore) Set(ctx context.Context, key, value string) error {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return s.inner.Set(ctx, key, base64.RawStdEncoding.EncodeToString(sealed))
}

// Delete removes key from the underlying store.
func (s *EncryptedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
