package hostfs

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/hnrobert/lusync/internal/logger"
)

// WriteOptions controls WriteFileAtomic.
type WriteOptions struct {
	// Perm applies when path does not exist yet. An existing file keeps its
	// permission bits and owner.
	Perm fs.FileMode
	// Backup saves the previous content as path+BackupSuffix before
	// replacing it.
	Backup bool
	// InPlaceFallback rewrites the file in place when rename is refused, as
	// happens for bind-mounted files. Readers may then observe a partial
	// write.
	InPlaceFallback bool
}

// ReadFile reads path. A missing file is reported with ok == false and no
// error.
func ReadFile(path string) (data []byte, ok bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

// WriteFileAtomic replaces path with data so that readers observe either
// the old or the new content. Identical content is not rewritten; the
// returned bool reports whether the file changed.
func WriteFileAtomic(path string, data []byte, opts WriteOptions) (bool, error) {
	cur, exists, err := ReadFile(path)
	if err != nil {
		return false, err
	}
	if exists && bytes.Equal(cur, data) {
		logger.Debug("%s already up to date", path)
		return false, nil
	}

	mode := opts.Perm
	uid, gid := -1, -1
	if exists {
		st, err := os.Stat(path)
		if err != nil {
			return false, err
		}
		mode = st.Mode().Perm()
		if sys, ok := st.Sys().(*syscall.Stat_t); ok {
			uid, gid = int(sys.Uid), int(sys.Gid)
		}
		if opts.Backup {
			if err := replace(path+BackupSuffix, cur, mode, uid, gid, opts.InPlaceFallback); err != nil {
				return false, fmt.Errorf("backup %s: %w", path, err)
			}
			logger.Info("saved previous %s as %s", filepath.Base(path), path+BackupSuffix)
		}
	}
	if err := replace(path, data, mode, uid, gid, opts.InPlaceFallback); err != nil {
		return false, err
	}
	return true, nil
}

func replace(path string, data []byte, perm fs.FileMode, uid, gid int, inPlace bool) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if uid >= 0 {
		// Best effort: only root may hand the file to another owner.
		_ = tmp.Chown(uid, gid)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		// If the target path is a bind-mounted file, replacing it via rename
		// fails with errors like EBUSY/EXDEV. Fall back to an in-place rewrite.
		if inPlace && (errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.EXDEV) || errors.Is(err, syscall.EPERM)) {
			logger.Warn("rename failed for %s (%v); falling back to in-place rewrite", path, err)
			return rewrite(path, data, perm)
		}
		return err
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

func rewrite(path string, data []byte, perm fs.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
