package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/careloop-health/medsync/models"
)

// classificationVault is the private implementation of [Vault]. It holds one
// DEK per classification; each tier's records can only ever be decrypted by
// that tier's key.
type classificationVault struct {
	mu   sync.RWMutex
	deks map[models.Classification][]byte
}

// NewVault constructs an empty [Vault]. Keys are installed after the
// keychain has been unlocked with the master password.
func NewVault() Vault {
	return &classificationVault{
		deks: make(map[models.Classification][]byte),
	}
}

// InstallDEK implements [Vault]. The key is copied so later mutation of the
// caller's slice cannot corrupt the vault.
func (v *classificationVault) InstallDEK(classification models.Classification, dek []byte) error {
	if !classification.Valid() {
		return fmt.Errorf("unknown classification %q", classification)
	}
	if len(dek) != 32 {
		return ErrInvalidKeyLength
	}

	key := make([]byte, 32)
	copy(key, dek)

	v.mu.Lock()
	v.deks[classification] = key
	v.mu.Unlock()
	return nil
}

func (v *classificationVault) dek(classification models.Classification) ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	dek, ok := v.deks[classification]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyUnavailable, classification)
	}
	return dek, nil
}

// EncryptPayload implements [Vault]. It seals payload with the
// classification's DEK using AES-256-GCM and returns a Base64 (standard
// encoding) string of the blob: nonce (12 bytes) ‖ ciphertext.
func (v *classificationVault) EncryptPayload(payload []byte, classification models.Classification) (string, error) {
	dek, err := v.dek(classification)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(dek)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, payload, nil)
	blob := append(nonce, ciphertext...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// DecryptPayload implements [Vault]. It Base64-decodes encryptedB64, splits
// out the nonce, and decrypts the ciphertext with the classification's DEK.
// A GCM auth-tag mismatch is returned as-is; callers translate it into
// their own integrity error.
func (v *classificationVault) DecryptPayload(encryptedB64 string, classification models.Classification) ([]byte, error) {
	dek, err := v.dek(classification)
	if err != nil {
		return nil, err
	}

	blob, err := base64.StdEncoding.DecodeString(encryptedB64)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	block, err := aes.NewCipher(dek)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return nil, ErrCiphertextTooShort
	}
	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt payload: %w", err)
	}

	return plaintext, nil
}

// Checksum implements [Vault].
func (v *classificationVault) Checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// UnlockVault derives the KEK from masterPassword and salt, unwraps the
// given per-classification encrypted DEKs, and returns a ready [Vault].
// A wrong master password surfaces as an unwrap failure on the first tier.
func UnlockVault(keychain KeyChainService, masterPassword string, salt []byte, encryptedDEKs map[models.Classification][]byte) (Vault, error) {
	kek := keychain.GenerateKEK(masterPassword, salt)

	vault := NewVault()
	for classification, blob := range encryptedDEKs {
		dek, err := keychain.DecryptDEK(blob, kek)
		if err != nil {
			return nil, fmt.Errorf("unwrap %s key: %w", classification, err)
		}
		if err := vault.InstallDEK(classification, dek); err != nil {
			return nil, fmt.Errorf("install %s key: %w", classification, err)
		}
	}

	return vault, nil
}

// ProvisionDEKs generates a fresh DEK for every classification and returns
// both the plaintext keys (for immediate vault installation) and the
// KEK-wrapped blobs (for persistence). Called once on first agent start.
func ProvisionDEKs(keychain KeyChainService, masterPassword string, salt []byte) (map[models.Classification][]byte, map[models.Classification][]byte, error) {
	kek := keychain.GenerateKEK(masterPassword, salt)

	plain := make(map[models.Classification][]byte, 3)
	wrapped := make(map[models.Classification][]byte, 3)
	for _, classification := range []models.Classification{
		models.ClassificationPHI,
		models.ClassificationSensitive,
		models.ClassificationGeneral,
	} {
		dek, err := keychain.GenerateDEK()
		if err != nil {
			return nil, nil, fmt.Errorf("generate %s key: %w", classification, err)
		}
		blob, err := keychain.GetEncryptedDEK(dek, kek)
		if err != nil {
			return nil, nil, fmt.Errorf("wrap %s key: %w", classification, err)
		}
		plain[classification] = dek
		wrapped[classification] = blob
	}

	return plain, wrapped, nil
}
