package usermgr

import (
	"bytes"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/hnrobert/lusync/internal/hostfs"
)

// Default permissions of newly created database files.
const (
	PasswdPerm = 0o644
	GroupPerm  = 0o644
	ShadowPerm = 0o600
)

type Manager struct {
	PasswdPath string
	ShadowPath string
	GroupPath  string
}

// NewManager returns a Manager for the databases inside dir.
func NewManager(dir string) *Manager {
	return &Manager{
		PasswdPath: filepath.Join(dir, hostfs.PasswdName),
		ShadowPath: filepath.Join(dir, hostfs.ShadowName),
		GroupPath:  filepath.Join(dir, hostfs.GroupName),
	}
}

// Load reads the three databases. Missing files are treated as empty;
// malformed lines are skipped and reported.
func (m *Manager) Load() (*Database, []Warning, error) {
	db := NewDatabase()
	var warnings []Warning

	r, err := open(m.PasswdPath)
	if err != nil {
		return nil, nil, err
	}
	users, w, err := ParsePasswd(r, m.PasswdPath)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, w...)

	if r, err = open(m.GroupPath); err != nil {
		return nil, nil, err
	}
	groups, w, err := ParseGroup(r, m.GroupPath)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, w...)

	if r, err = open(m.ShadowPath); err != nil {
		return nil, nil, err
	}
	shadows, w, err := ParseShadow(r, m.ShadowPath)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, w...)

	db.Users, db.Groups, db.Shadows = users, groups, shadows
	return db, warnings, nil
}

func open(path string) (io.Reader, error) {
	b, _, err := hostfs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// CommitOptions controls how Commit replaces the files.
type CommitOptions struct {
	Backup          bool
	InPlaceFallback bool
}

// CommitReport lists which files were replaced and which already held the
// new content.
type CommitReport struct {
	Written   []string
	Unchanged []string
}

// Commit serializes db and replaces the files one by one: group, passwd,
// shadow. Each file is replaced atomically; the triple is not.
func (m *Manager) Commit(db *Database, opts CommitOptions) (CommitReport, error) {
	files := db.Encode()
	var report CommitReport
	for _, f := range []struct {
		path string
		data []byte
		perm fs.FileMode
	}{
		{m.GroupPath, files.Group, GroupPerm},
		{m.PasswdPath, files.Passwd, PasswdPerm},
		{m.ShadowPath, files.Shadow, ShadowPerm},
	} {
		changed, err := hostfs.WriteFileAtomic(f.path, f.data, hostfs.WriteOptions{
			Perm:            f.perm,
			Backup:          opts.Backup,
			InPlaceFallback: opts.InPlaceFallback,
		})
		if err != nil {
			return report, err
		}
		if changed {
			report.Written = append(report.Written, f.path)
		} else {
			report.Unchanged = append(report.Unchanged, f.path)
		}
	}
	return report, nil
}
