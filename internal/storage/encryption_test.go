package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen_NoKey(t *testing.T) {
	t.Setenv(EncryptionKeyEnvVar, "")

	content := []byte("<project/>")
	sealed, err := Seal(content)
	require.NoError(t, err)
	assert.Equal(t, content, sealed)

	opened, err := Open(content)
	require.NoError(t, err)
	assert.Equal(t, content, opened)
}

func TestSealOpen_WithKey(t *testing.T) {
	t.Setenv(EncryptionKeyEnvVar, "passphrase")

	content := []byte("<project><password>hunter2</password></project>")
	sealed, err := Seal(content)
	require.NoError(t, err)
	assert.NotEqual(t, content, sealed)
	assert.True(t, IsSealed(sealed))

	opened, err := Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, content, opened)
}

func TestOpen_WrongKey(t *testing.T) {
	t.Setenv(EncryptionKeyEnvVar, "right")
	sealed, err := Seal([]byte("data"))
	require.NoError(t, err)

	t.Setenv(EncryptionKeyEnvVar, "wrong")
	_, err = Open(sealed)
	assert.Error(t, err)
}

func TestOpen_NoKey(t *testing.T) {
	t.Setenv(EncryptionKeyEnvVar, "some-key")
	sealed, err := Seal([]byte("data"))
	require.NoError(t, err)

	t.Setenv(EncryptionKeyEnvVar, "")
	_, err = Open(sealed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not set")
}

func TestIsSealed(t *testing.T) {
	assert.True(t, IsSealed([]byte("# JENKINSATOR_SEALED\nabc")))
	assert.False(t, IsSealed([]byte("<project/>")))
	assert.False(t, IsSealed(nil))
}
