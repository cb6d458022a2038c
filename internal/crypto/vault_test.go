package crypto

import (
	"testing"

	"github.com/careloop-health/medsync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T, classifications ...models.Classification) Vault {
	t.Helper()
	k := NewKeyChainService()
	v := NewVault()
	for _, c := range classifications {
		dek, err := k.GenerateDEK()
		require.NoError(t, err)
		require.NoError(t, v.InstallDEK(c, dek))
	}
	return v
}

func TestVault_EncryptDecrypt_RoundTrip(t *testing.T) {
	v := newTestVault(t, models.ClassificationPHI)
	payload := []byte(`{"resourceType":"Patient","id":"p-1","name":"Ada"}`)

	blob, err := v.EncryptPayload(payload, models.ClassificationPHI)
	require.NoError(t, err)
	assert.NotContains(t, blob, "Ada", "ciphertext must not leak plaintext")

	got, err := v.DecryptPayload(blob, models.ClassificationPHI)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestVault_MissingKey(t *testing.T) {
	v := newTestVault(t, models.ClassificationGeneral)

	_, err := v.EncryptPayload([]byte("x"), models.ClassificationPHI)
	require.ErrorIs(t, err, ErrKeyUnavailable)

	_, err = v.DecryptPayload("aGVsbG8=", models.ClassificationPHI)
	require.ErrorIs(t, err, ErrKeyUnavailable)
}

func TestVault_KeysAreTierIsolated(t *testing.T) {
	v := newTestVault(t, models.ClassificationPHI, models.ClassificationGeneral)

	blob, err := v.EncryptPayload([]byte("clinical note"), models.ClassificationPHI)
	require.NoError(t, err)

	// The general DEK must not open PHI ciphertext.
	_, err = v.DecryptPayload(blob, models.ClassificationGeneral)
	require.Error(t, err)
}

func TestVault_InstallDEK_Validation(t *testing.T) {
	v := NewVault()

	err := v.InstallDEK("secret-ish", make([]byte, 32))
	require.Error(t, err)

	err = v.InstallDEK(models.ClassificationPHI, make([]byte, 16))
	require.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestVault_Checksum_Stable(t *testing.T) {
	v := NewVault()

	a := v.Checksum([]byte("payload"))
	b := v.Checksum([]byte("payload"))
	c := v.Checksum([]byte("payload!"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64) // hex sha256
}

func TestUnlockVault_RoundTrip(t *testing.T) {
	k := NewKeyChainService()
	salt, err := k.GenerateEncryptionSalt()
	require.NoError(t, err)

	plain, wrapped, err := ProvisionDEKs(k, "master-password", salt)
	require.NoError(t, err)
	require.Len(t, plain, 3)
	require.Len(t, wrapped, 3)

	vault, err := UnlockVault(k, "master-password", salt, wrapped)
	require.NoError(t, err)

	payload := []byte("round trip through provisioned keys")
	blob, err := vault.EncryptPayload(payload, models.ClassificationSensitive)
	require.NoError(t, err)
	got, err := vault.DecryptPayload(blob, models.ClassificationSensitive)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestUnlockVault_WrongPassword(t *testing.T) {
	k := NewKeyChainService()
	salt, err := k.GenerateEncryptionSalt()
	require.NoError(t, err)

	_, wrapped, err := ProvisionDEKs(k, "master-password", salt)
	require.NoError(t, err)

	_, err = UnlockVault(k, "not-the-password", salt, wrapped)
	require.Error(t, err)
}
