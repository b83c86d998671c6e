package encryption

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
}

func TestEncryptDecrypt(t *testing.T) {
	svc, err := NewService(testKey())
	require.NoError(t, err)

	sealed, err := svc.Encrypt("shpat_abc123")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "shpat_abc123")

	other, err := svc.Encrypt("shpat_abc123")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, other, "nonce must differ per call")

	plain, err := svc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "shpat_abc123", plain)
}

func TestDecrypt_RejectsTampering(t *testing.T) {
	svc, err := NewService(testKey())
	require.NoError(t, err)

	sealed, err := svc.Encrypt("cs_secret")
	require.NoError(t, err)
	raw, _ := base64.StdEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0xff

	_, err = svc.Decrypt(base64.StdEncoding.EncodeToString(raw))
	assert.Error(t, err)

	_, err = svc.Decrypt("short")
	assert.Error(t, err)
}

func TestNewService_KeyValidation(t *testing.T) {
	_, err := NewService("")
	assert.Error(t, err)

	_, err = NewService("not base64!!")
	assert.Error(t, err)

	_, err = NewService(base64.StdEncoding.EncodeToString([]byte("too-short")))
	assert.Error(t, err)
}
