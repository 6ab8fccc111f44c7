package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	assert.NoError(t, VerifyPassword("correct horse battery", hash))
	assert.Error(t, VerifyPassword("wrong password", hash))
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	h1, err := HashPassword("same password")
	require.NoError(t, err)
	h2, err := HashPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "each hash must use a fresh salt")
	assert.NoError(t, VerifyPassword("same password", h1))
	assert.NoError(t, VerifyPassword("same password", h2))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	assert.Error(t, VerifyPassword("password", "not-a-phc-string"))
	assert.Error(t, VerifyPassword("password", "$bcrypt$v=19$m=1,t=1,p=1$abc$def"))
	assert.Error(t, VerifyPassword("", "$argon2id$v=19$m=65536,t=1,p=4$abc$def"))
}

func TestHashBackupCode(t *testing.T) {
	salt, err := GenerateBackupCodeSalt()
	require.NoError(t, err)

	h1, err := HashBackupCode("a1b2c3d4", salt)
	require.NoError(t, err)
	h2, err := HashBackupCode("a1b2c3d4", salt)
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "same code and salt must hash identically")
	assert.Len(t, h1, 64)

	other, err := HashBackupCode("ffffffff", salt)
	require.NoError(t, err)
	assert.NotEqual(t, h1, other)

	otherSalt, err := GenerateBackupCodeSalt()
	require.NoError(t, err)
	saltedDifferently, err := HashBackupCode("a1b2c3d4", otherSalt)
	require.NoError(t, err)
	assert.NotEqual(t, h1, saltedDifferently, "salt must change the hash")
}

func TestHashBackupCode_Invalid(t *testing.T) {
	salt, err := GenerateBackupCodeSalt()
	require.NoError(t, err)

	_, err = HashBackupCode("", salt)
	assert.Error(t, err)

	_, err = HashBackupCode("a1b2c3d4", "%%%not-base64%%%")
	assert.Error(t, err)
}
