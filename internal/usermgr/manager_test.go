package usermgr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LoadMissing(t *testing.T) {
	m := NewManager(t.TempDir())
	db, warnings, err := m.Load()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Empty(t, db.Users)
	assert.Empty(t, db.Groups)
	assert.Empty(t, db.Shadows)
}

func TestManager_LoadCommit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "passwd"), []byte("alice:x:1000:1000:::/bin/sh\nroot:x:0:0::/root:/bin/sh\nbad\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "group"), []byte("root:x:0:\nalice:x:1000:alice\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shadow"), []byte("root:!*:1::::::\nalice:!*:1::::::\n"), 0o600))

	m := NewManager(dir)
	db, warnings, err := m.Load()
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnMalformedLine, warnings[0].Kind)
	require.Len(t, db.Users, 2)

	report, err := m.Commit(db, CommitOptions{Backup: true})
	require.NoError(t, err)
	assert.Equal(t, []string{m.PasswdPath}, report.Written)
	assert.Equal(t, []string{m.GroupPath, m.ShadowPath}, report.Unchanged)

	b, err := os.ReadFile(m.PasswdPath)
	require.NoError(t, err)
	assert.Equal(t, "root:x:0:0::/root:/bin/sh\nalice:x:1000:1000:::/bin/sh\n", string(b))
	assert.FileExists(t, m.PasswdPath+"-")

	report, err = m.Commit(db, CommitOptions{})
	require.NoError(t, err)
	assert.Empty(t, report.Written)
	assert.Len(t, report.Unchanged, 3)
}

func TestManager_CommitFresh(t *testing.T) {
	m := NewManager(t.TempDir())
	db := NewDatabase()
	require.NoError(t, db.AddUser(PasswdEntry{Name: "root", Shell: "/bin/sh"}))
	require.NoError(t, db.AddGroup(GroupEntry{Name: "root", Members: []string{"root"}}))
	require.NoError(t, db.AddShadow(*NewShadowEntry("root", "")))

	_, err := m.Commit(db, CommitOptions{})
	require.NoError(t, err)

	st, err := os.Stat(m.ShadowPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(ShadowPerm), st.Mode().Perm())
	st, err = os.Stat(m.PasswdPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(PasswdPerm), st.Mode().Perm())
}
