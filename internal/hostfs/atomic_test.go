package hostfs

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/lusync/internal/logger"
)

func TestWriteFileAtomic_Create(t *testing.T) {
	path := filepath.Join(t.TempDir(), ShadowName)

	changed, err := WriteFileAtomic(path, []byte("root:!*:1::::::\n"), WriteOptions{Perm: 0o600})
	require.NoError(t, err)
	assert.True(t, changed)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "root:!*:1::::::\n", string(b))

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())
}

func TestWriteFileAtomic_Unchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, PasswdName)
	require.NoError(t, os.WriteFile(path, []byte("same\n"), 0o644))
	before, err := os.Stat(path)
	require.NoError(t, err)

	changed, err := WriteFileAtomic(path, []byte("same\n"), WriteOptions{Perm: 0o644, Backup: true})
	require.NoError(t, err)
	assert.False(t, changed)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, os.SameFile(before, after), "file must not be replaced")
	assert.NoFileExists(t, path+BackupSuffix)
}

func TestWriteFileAtomic_KeepsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), ShadowName)
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o640))
	require.NoError(t, os.Chmod(path, 0o640))

	changed, err := WriteFileAtomic(path, []byte("new\n"), WriteOptions{Perm: 0o600})
	require.NoError(t, err)
	assert.True(t, changed)

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), st.Mode().Perm())
}

func TestWriteFileAtomic_Backup(t *testing.T) {
	path := filepath.Join(t.TempDir(), GroupName)
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	_, err := WriteFileAtomic(path, []byte("new\n"), WriteOptions{Perm: 0o644, Backup: true})
	require.NoError(t, err)

	b, err := os.ReadFile(path + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(b))
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(b))
}

func TestWriteFileAtomic_Logs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logger.Init(logger.Options{Level: "debug", Format: logger.FormatPrintk, Output: &buf}))
	t.Cleanup(func() { _ = logger.Init(logger.Options{}) })

	path := filepath.Join(t.TempDir(), GroupName)
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	_, err := WriteFileAtomic(path, []byte("new\n"), WriteOptions{Perm: 0o644, Backup: true})
	require.NoError(t, err)
	_, err = WriteFileAtomic(path, []byte("new\n"), WriteOptions{Perm: 0o644, Backup: true})
	require.NoError(t, err)

	assert.Equal(t, "<6>saved previous group as "+path+BackupSuffix+"\n<7>"+path+" already up to date\n", buf.String())
}

func TestWriteFileAtomic_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, PasswdName)
	_, err := WriteFileAtomic(path, []byte("a\n"), WriteOptions{Perm: 0o644})
	require.NoError(t, err)
	_, err = WriteFileAtomic(path, []byte("b\n"), WriteOptions{Perm: 0o644})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, PasswdName, entries[0].Name())
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", PasswdName)
	_, err := WriteFileAtomic(path, []byte("a\n"), WriteOptions{Perm: 0o644})
	assert.Error(t, err)
}

func TestReadFile_Missing(t *testing.T) {
	b, ok, err := ReadFile(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, b)
}
