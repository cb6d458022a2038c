package crypto

import "github.com/careloop-health/medsync/models"

// KeyChainService owns the key hierarchy of the local vault:
//
//	master password ──argon2id──▶ KEK ──AES-256-GCM──▶ wrapped DEKs
//
// One DEK exists per data classification, so revoking or rotating the PHI
// key never touches general data. The KEK exists only in memory and is never
// persisted or transmitted.
type KeyChainService interface {
	// GenerateEncryptionSalt returns a fresh random salt for KEK derivation.
	GenerateEncryptionSalt() ([]byte, error)

	// GenerateDEK returns a fresh random 256-bit data-encryption key.
	GenerateDEK() ([]byte, error)

	// GenerateKEK derives the key-encryption key from the master password
	// and salt using Argon2id.
	GenerateKEK(masterPassword string, salt []byte) []byte

	// GetEncryptedDEK wraps DEK with KEK using AES-256-GCM.
	GetEncryptedDEK(DEK, KEK []byte) ([]byte, error)

	// DecryptDEK unwraps a blob produced by GetEncryptedDEK.
	DecryptDEK(encryptedDEK, KEK []byte) ([]byte, error)
}

// Vault encrypts and decrypts record payloads with the DEK belonging to the
// payload's classification. All operations fail with [ErrKeyUnavailable]
// when the tier's DEK has not been installed, never by silently falling back
// to another key.
type Vault interface {
	// EncryptPayload seals payload with the classification's DEK and
	// returns a Base64 blob (nonce ‖ ciphertext).
	EncryptPayload(payload []byte, classification models.Classification) (string, error)

	// DecryptPayload reverses EncryptPayload.
	DecryptPayload(encryptedB64 string, classification models.Classification) ([]byte, error)

	// Checksum returns the hex SHA-256 digest of the plaintext payload,
	// stored alongside the ciphertext for integrity verification on read.
	Checksum(payload []byte) string

	// InstallDEK registers the data-encryption key for a classification.
	InstallDEK(classification models.Classification, dek []byte) error
}
