package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"LUSYNC_CONFIG", "LUSYNC_DIRECTORY", "LUSYNC_HOST_ROOT", "LUSYNC_NOLOGIN", "LUSYNC_HASH_ALGORITHM", "LUSYNC_BACKUP", "LUSYNC_IN_PLACE_FALLBACK"} {
		t.Setenv(k, "")
	}
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeDesired(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "desired.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "lusync", cmd.Name())
	for _, name := range []string{"config", "nologin", "hash", "backup", "in-place-fallback", "dry-run", "log-level", "log-format"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestRun_CreatesDatabases(t *testing.T) {
	target := t.TempDir()
	desired := writeDesired(t, t.TempDir(), `
users:
  - name: root
    uid: 0
    home: /root
  - name: alice
    isNormal: true
    shell: /bin/sh
    hashedPassword: "$6$salt$hash"
groups:
  - name: wheel
    members: [alice]
`)

	out, err := execute(t, "--nologin", "/sbin/nologin", "--log-format", "printk", desired, target)
	require.NoError(t, err, out)

	passwd, err := os.ReadFile(filepath.Join(target, "passwd"))
	require.NoError(t, err)
	assert.Equal(t, "root:x:0:0::/root:/sbin/nologin\nalice:x:1000:1000:::/bin/sh\n", string(passwd))

	group, err := os.ReadFile(filepath.Join(target, "group"))
	require.NoError(t, err)
	assert.Equal(t, "root:x:0:root\nwheel:x:1:alice\nalice:x:1000:alice\n", string(group))

	shadow, err := os.ReadFile(filepath.Join(target, "shadow"))
	require.NoError(t, err)
	assert.Equal(t, "root:!*:1::::::\nalice:$6$salt$hash:1::::::\n", string(shadow))
	st, err := os.Stat(filepath.Join(target, "shadow"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	assert.Contains(t, out, "<6>created user alice with UID 1000")

	out, err = execute(t, "--nologin", "/sbin/nologin", desired, target)
	require.NoError(t, err, out)
	assert.NotContains(t, out, "wrote")
}

func TestRun_DryRun(t *testing.T) {
	target := t.TempDir()
	desired := writeDesired(t, t.TempDir(), "users:\n  - name: alice\n    isNormal: true\n")

	_, err := execute(t, "--dry-run", desired, target)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(target, "passwd"))
}

func TestRun_FailureWritesNothing(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "passwd"), []byte("root:x:0:0::/root:/bin/sh\n"), 0o644))
	desired := writeDesired(t, t.TempDir(), "users:\n  - name: alice\n    group: missing\n")

	_, err := execute(t, desired, target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown group")

	b, err := os.ReadFile(filepath.Join(target, "passwd"))
	require.NoError(t, err)
	assert.Equal(t, "root:x:0:0::/root:/bin/sh\n", string(b))
	assert.NoFileExists(t, filepath.Join(target, "group"))
}

func TestRun_InvalidFlags(t *testing.T) {
	desired := writeDesired(t, t.TempDir(), "")
	_, err := execute(t, "--hash", "md5", desired, t.TempDir())
	assert.Error(t, err)

	_, err = execute(t, "--log-format", "xml", desired, t.TempDir())
	assert.Error(t, err)

	_, err = execute(t)
	assert.Error(t, err)
}
