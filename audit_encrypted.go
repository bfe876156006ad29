package runlocker

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// EncryptedAuditSink wraps another AuditSink and encrypts the Resources
// field of every event with AES-256-GCM before it reaches the underlying
// sink. Deployments where resource identifiers themselves are sensitive
// (account numbers, customer IDs) can use this without losing the rest of
// the event's structure.
type EncryptedAuditSink struct {
	inner AuditSink
	key   []byte // 32 bytes for AES-256
}

// NewEncryptedAuditSink wraps inner with AES-256-GCM encryption of the
// Resources field. key must be exactly 32 bytes.
func NewEncryptedAuditSink(inner AuditSink, key []byte) (*EncryptedAuditSink, error) {
	if len(key) != 32 {
		return nil, WithContext(ErrInvalidConfig, map[string]interface{}{
			"expected_key_length": 32,
			"actual_key_length":   len(key),
			"reason":              "AES-256 requires 32-byte key",
		})
	}
	return &EncryptedAuditSink{inner: inner, key: key}, nil
}

func (e *EncryptedAuditSink) Record(ctx context.Context, event AuditEvent) error {
	ciphertext, err := e.encrypt([]byte(event.Resources))
	if err != nil {
		return fmt.Errorf("runlocker: encrypt audit event: %w", err)
	}
	event.Resources = base64.StdEncoding.EncodeToString(ciphertext)
	return e.inner.Record(ctx, event)
}

func (e *EncryptedAuditSink) Close() error {
	return e.inner.Close()
}

// DecryptResources reverses the encryption NewEncryptedAuditSink applied to
// an event's Resources field, for operators reading the audit trail back.
func (e *EncryptedAuditSink) DecryptResources(encoded string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("runlocker: decode audit resources: %w", err)
	}
	plaintext, err := e.decrypt(ciphertext)
	if err != nil {
		return "", fmt.Errorf("runlocker: decrypt audit resources: %w", err)
	}
	return string(plaintext), nil
}

func (e *EncryptedAuditSink) encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (e *EncryptedAuditSink) decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, WithContext(ErrInvalidConfig, map[string]interface{}{
			"reason":     "ciphertext too short",
			"min_length": nonceSize,
			"actual":     len(ciphertext),
		})
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}
