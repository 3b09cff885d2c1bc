package auth

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerateKey_GeneratesAndPersists(t *testing.T) {
	dir := t.TempDir()

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	// A second load returns the same key.
	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again)

	// The key file is hex and not world-readable.
	info, err := os.Stat(filepath.Join(dir, "auth.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadOrGenerateKey_ReadsExistingHex(t *testing.T) {
	dir := t.TempDir()
	want := make([]byte, 32)
	for i := range want {
		want[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.key"), []byte(hex.EncodeToString(want)+"\n"), 0600))

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, want, key)
}

func TestLoadOrGenerateKey_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.key"), []byte("short"), 0600))

	_, err := LoadOrGenerateKey(dir)
	assert.Error(t, err)
}
