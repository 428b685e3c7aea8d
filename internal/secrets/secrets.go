// Package secrets implements the symmetric encryption service used for
// credential values. The subsystem only ever decrypts; Encrypt exists for the
// admin layer and for tests.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// looksEncryptedMinLen is the length threshold for the heuristic below.
// Values shorter than this are assumed to be plaintext.
const looksEncryptedMinLen = 32

// Service performs AES-256-GCM encryption and decryption with a key derived
// from a shared passphrase.
type Service struct {
	key [32]byte
}

// New derives the symmetric key from the given passphrase.
func New(passphrase string) *Service {
	return &Service{key: sha256.Sum256([]byte(passphrase))}
}

// Encrypt seals the value and returns it base64-encoded, nonce prepended.
func (s *Service) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.key[:])
	if err != nil {
		return "", fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("new gcm: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. It is tolerant of being handed
// plaintext: anything that does not decode and authenticate as a sealed
// value is returned unchanged.
func (s *Service) Decrypt(value string) string {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return value
	}
	block, err := aes.NewCipher(s.key[:])
	if err != nil {
		return value
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return value
	}
	if len(raw) < gcm.NonceSize() {
		return value
	}
	plaintext, err := gcm.Open(nil, raw[:gcm.NonceSize()], raw[gcm.NonceSize():], nil)
	if err != nil {
		return value
	}
	return string(plaintext)
}

// LooksEncrypted reports whether a value plausibly holds an encrypted blob:
// base64 charset and length over a threshold. This is a known approximation
// with no cryptographic tag; it is kept behind this one function so it can be
// replaced with an explicit is-encrypted flag if precision becomes important.
func LooksEncrypted(value string) bool {
	if len(value) < looksEncryptedMinLen {
		return false
	}
	for _, c := range value {
		if !isBase64Char(c) {
			return false
		}
	}
	return true
}

func isBase64Char(c rune) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') || c == '+' || c == '/' || c == '='
}
