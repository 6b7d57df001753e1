package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Sealing errors.
var (
	ErrPassphraseTooWeak = errors.New("sealed: passphrase too weak (minimum 8 characters)")
	ErrDecryptionFailed  = errors.New("sealed: decryption failed - wrong passphrase or corrupted data")
)

const (
	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	saltLength = 16

	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

// sealedMagic prefixes every sealed value: magic | salt | nonce | ciphertext.
var sealedMagic = []byte("sfs1")

// SealedBackend encrypts values with XChaCha20-Poly1305 before handing
// them to the wrapped backend. The key is derived from a passphrase with
// Argon2id; the salt travels with each value so a store written under one
// process can be read by another with the same passphrase.
//
// The key name is bound as additional data, so a value copied to another
// key fails to open.
type SealedBackend struct {
	inner      Backend
	passphrase []byte

	salt []byte
	key  []byte

	mu      sync.Mutex
	derived map[string][]byte // salt -> key, for values written by other processes
}

// NewSealedBackend wraps inner. The passphrase must be at least
// MinPassphraseLength bytes.
func NewSealedBackend(inner Backend, passphrase []byte) (*SealedBackend, error) {
	if len(passphrase) < MinPassphraseLength {
		return nil, ErrPassphraseTooWeak
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("sealed: generate salt: %w", err)
	}

	s := &SealedBackend{
		inner:      inner,
		passphrase: bytes.Clone(passphrase),
		salt:       salt,
		derived:    make(map[string][]byte),
	}
	s.key = s.deriveKey(salt)
	return s, nil
}

func (s *SealedBackend) deriveKey(salt []byte) []byte {
	return argon2.IDKey(s.passphrase, salt, argon2Time, argon2Memory, argon2Threads, chacha20poly1305.KeySize)
}

func (s *SealedBackend) keyFor(salt []byte) []byte {
	if bytes.Equal(salt, s.salt) {
		return s.key
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if k, ok := s.derived[string(salt)]; ok {
		return k
	}
	k := s.deriveKey(salt)
	s.derived[string(salt)] = k
	return k
}

// Get opens the value stored under key.
func (s *SealedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.open(key, sealed)
}

// Set seals value and stores it under key.
func (s *SealedBackend) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := s.seal(key, value)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, sealed)
}

// Delete removes key.
func (s *SealedBackend) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// DropAll removes every key.
func (s *SealedBackend) DropAll(ctx context.Context) error {
	return s.inner.DropAll(ctx)
}

// Close zeroes key material and closes the wrapped backend.
func (s *SealedBackend) Close() error {
	s.mu.Lock()
	clear(s.passphrase)
	clear(s.key)
	for _, k := range s.derived {
		clear(k)
	}
	s.mu.Unlock()
	return s.inner.Close()
}

func (s *SealedBackend) seal(key string, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("sealed: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("sealed: generate nonce: %w", err)
	}

	out := make([]byte, 0, len(sealedMagic)+saltLength+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, sealedMagic...)
	out = append(out, s.salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, []byte(key)), nil
}

func (s *SealedBackend) open(key string, sealed []byte) ([]byte, error) {
	header := len(sealedMagic) + saltLength + chacha20poly1305.NonceSizeX
	if len(sealed) < header+chacha20poly1305.Overhead || !bytes.HasPrefix(sealed, sealedMagic) {
		return nil, ErrDecryptionFailed
	}

	salt := sealed[len(sealedMagic) : len(sealedMagic)+saltLength]
	nonce := sealed[len(sealedMagic)+saltLength : header]

	aead, err := chacha20poly1305.NewX(s.keyFor(salt))
	if err != nil {
		return nil, fmt.Errorf("sealed: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, sealed[header:], []byte(key))
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
