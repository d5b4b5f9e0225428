package backup

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptFile_WrongKeyFailsAuthentication(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o600))

	key := make([]byte, 32)
	copy(key, "correct horse battery staple  ok")
	sealed := filepath.Join(dir, "sealed")
	require.NoError(t, encryptFile(src, sealed, key))

	wrongKey := make([]byte, 32)
	copy(wrongKey, "totally different key material !")
	err := decryptFile(sealed, filepath.Join(dir, "out"), wrongKey)
	assert.Error(t, err)

	// Tampered ciphertext fails too.
	data, err := os.ReadFile(sealed)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, os.WriteFile(sealed, data, 0o600))
	assert.Error(t, decryptFile(sealed, filepath.Join(dir, "out"), key))
}

func TestEncryptFile_KeyLength(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o600))

	err := encryptFile(src, filepath.Join(dir, "sealed"), []byte("short"))
	assert.ErrorContains(t, err, "32 bytes")
}

func TestArchive_RoundTripWithNestedDirs(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "nested"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, dumpFileName), []byte("dump"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "nested", "extra"), []byte("more"), 0o600))

	archive := filepath.Join(t.TempDir(), "a.tar.gz")
	require.NoError(t, archiveDir(srcDir, archive, gzip.DefaultCompression))

	destDir := t.TempDir()
	require.NoError(t, extractArchive(archive, destDir))

	dump, err := os.ReadFile(filepath.Join(destDir, dumpFileName))
	require.NoError(t, err)
	assert.Equal(t, "dump", string(dump))

	extra, err := os.ReadFile(filepath.Join(destDir, "nested", "extra"))
	require.NoError(t, err)
	assert.Equal(t, "more", string(extra))
}
