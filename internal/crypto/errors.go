package crypto

import "errors"

var (
	// ErrKeyUnavailable is returned when a vault operation needs a DEK that
	// has not been installed for the record's classification. The failure is
	// scoped to that operation only; it never takes the process down.
	ErrKeyUnavailable = errors.New("encryption key unavailable for classification")

	// ErrInvalidKeyLength is returned when a supplied DEK is not 32 bytes.
	ErrInvalidKeyLength = errors.New("invalid key length")

	// ErrCiphertextTooShort is returned when an encrypted blob is shorter
	// than the GCM nonce and therefore cannot have been produced by the
	// vault.
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)
