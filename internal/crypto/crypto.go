package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
)

// ErrOpen is returned when sealed data cannot be authenticated.
var ErrOpen = errors.New("sealed data could not be opened")

// Sealer encrypts cached session records at rest with AES-256-GCM.
type Sealer struct {
	key []byte
}

// NewSealer creates a Sealer from a 32-byte hex-encoded key.
func NewSealer(keyHex string) (*Sealer, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, errors.New("JOBBOARD_CACHE_KEY must be hex-encoded")
	}
	if len(key) != 32 {
		return nil, errors.New("JOBBOARD_CACHE_KEY must be 32 bytes (64 hex chars)")
	}
	return &Sealer{key: key}, nil
}

// Seal encrypts plaintext. Output format: [nonce(12) | ciphertext+tag].
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts data produced by Seal. Any short, tampered or foreign-key
// input yields ErrOpen.
func (s *Sealer) Open(data []byte) ([]byte, error) {
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrOpen
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrOpen
	}
	return plaintext, nil
}

func (s *Sealer) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
