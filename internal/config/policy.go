// Package config loads the run policy and the desired account state.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/hnrobert/lusync/internal/auth"
	"github.com/hnrobert/lusync/internal/hostfs"
	"github.com/hnrobert/lusync/internal/idalloc"
)

var ErrInvalidPolicy = errors.New("invalid policy")

const (
	DefaultDirectory    = "/etc"
	DefaultNoLoginShell = "/run/current-system/sw/bin/nologin"
)

// Environment overrides.
const (
	EnvConfig          = "LUSYNC_CONFIG"
	EnvDirectory       = "LUSYNC_DIRECTORY"
	EnvHostRoot        = "LUSYNC_HOST_ROOT"
	EnvNoLogin         = "LUSYNC_NOLOGIN"
	EnvHashAlgorithm   = "LUSYNC_HASH_ALGORITHM"
	EnvBackup          = "LUSYNC_BACKUP"
	EnvInPlaceFallback = "LUSYNC_IN_PLACE_FALLBACK"
)

type Policy struct {
	// Directory holds passwd, group and shadow.
	Directory string
	// HostRoot, when set, is prefixed to Directory. It is used when the
	// host filesystem is mounted into a container.
	HostRoot        string
	NoLoginShell    string
	SystemRange     idalloc.Range
	NormalRange     idalloc.Range
	HashAlgorithm   auth.Algorithm
	Backup          bool
	InPlaceFallback bool
}

func Defaults() Policy {
	return Policy{
		Directory:     DefaultDirectory,
		NoLoginShell:  DefaultNoLoginShell,
		SystemRange:   idalloc.Range{Min: 1, Max: 999},
		NormalRange:   idalloc.Range{Min: 1000, Max: 29999},
		HashAlgorithm: auth.SHA512,
	}
}

// Load returns the defaults overlaid with the INI file at path and then
// with the environment. An empty path or a missing file is not an error.
func Load(path string) (Policy, error) {
	p := Defaults()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := p.loadINI(path); err != nil {
				return Policy{}, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Policy{}, err
		}
	}
	if err := p.loadEnv(os.LookupEnv); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func (p *Policy) loadINI(path string) error {
	f, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	str := func(section, key string, dst *string) {
		if sec := f.Section(section); sec.HasKey(key) {
			*dst = strings.TrimSpace(sec.Key(key).String())
		}
	}
	var errs []string
	num := func(section, key string, dst *int) {
		sec := f.Section(section)
		if !sec.HasKey(key) {
			return
		}
		n, err := sec.Key(key).Int()
		if err != nil {
			errs = append(errs, fmt.Sprintf("[%s] %s: %v", section, key, err))
			return
		}
		*dst = n
	}
	boolean := func(section, key string, dst *bool) {
		sec := f.Section(section)
		if !sec.HasKey(key) {
			return
		}
		b, err := sec.Key(key).Bool()
		if err != nil {
			errs = append(errs, fmt.Sprintf("[%s] %s: %v", section, key, err))
			return
		}
		*dst = b
	}

	str("paths", "directory", &p.Directory)
	str("paths", "host_root", &p.HostRoot)
	str("accounts", "nologin_shell", &p.NoLoginShell)
	num("ids", "system_min", &p.SystemRange.Min)
	num("ids", "system_max", &p.SystemRange.Max)
	num("ids", "normal_min", &p.NormalRange.Min)
	num("ids", "normal_max", &p.NormalRange.Max)
	var alg string
	str("passwords", "algorithm", &alg)
	if alg != "" {
		p.HashAlgorithm = auth.Algorithm(strings.ToLower(alg))
	}
	boolean("persistence", "backup", &p.Backup)
	boolean("persistence", "in_place_fallback", &p.InPlaceFallback)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s: %s", ErrInvalidPolicy, path, strings.Join(errs, "; "))
	}
	return nil
}

func (p *Policy) loadEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDirectory); ok && v != "" {
		p.Directory = v
	}
	if v, ok := lookup(EnvHostRoot); ok {
		p.HostRoot = v
	}
	if v, ok := lookup(EnvNoLogin); ok && v != "" {
		p.NoLoginShell = v
	}
	if v, ok := lookup(EnvHashAlgorithm); ok && v != "" {
		p.HashAlgorithm = auth.Algorithm(strings.ToLower(v))
	}
	for _, b := range []struct {
		env string
		dst *bool
	}{
		{EnvBackup, &p.Backup},
		{EnvInPlaceFallback, &p.InPlaceFallback},
	} {
		v, ok := lookup(b.env)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidPolicy, b.env, v)
		}
		*b.dst = parsed
	}
	return nil
}

// Validate checks the policy for consistency.
func (p Policy) Validate() error {
	if err := p.SystemRange.Validate(); err != nil {
		return fmt.Errorf("%w: system range: %v", ErrInvalidPolicy, err)
	}
	if err := p.NormalRange.Validate(); err != nil {
		return fmt.Errorf("%w: normal range: %v", ErrInvalidPolicy, err)
	}
	if p.SystemRange.Max >= p.NormalRange.Min {
		return fmt.Errorf("%w: system range %s must end below normal range %s", ErrInvalidPolicy, p.SystemRange, p.NormalRange)
	}
	if !strings.HasPrefix(p.NoLoginShell, "/") {
		return fmt.Errorf("%w: no-login shell %q is not an absolute path", ErrInvalidPolicy, p.NoLoginShell)
	}
	if _, err := auth.NewHasher(p.HashAlgorithm); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	if _, err := p.TargetDir(); err != nil {
		return err
	}
	return nil
}

// TargetDir returns Directory resolved inside HostRoot.
func (p Policy) TargetDir() (string, error) {
	dir, err := hostfs.Abs(p.HostRoot, p.Directory)
	if err != nil {
		return "", fmt.Errorf("%w: directory %q under host root %q: %v", ErrInvalidPolicy, p.Directory, p.HostRoot, err)
	}
	return dir, nil
}
