package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hnrobert/lusync/internal/usermgr"
)

var ErrInvalidDesired = errors.New("invalid desired state")

type desiredDoc struct {
	Users  []userDoc  `yaml:"users"`
	Groups []groupDoc `yaml:"groups"`
}

type userDoc struct {
	Name                  string  `yaml:"name"`
	IsNormal              bool    `yaml:"isNormal"`
	UID                   *int    `yaml:"uid"`
	Group                 *scalar `yaml:"group"`
	Description           *string `yaml:"description"`
	Home                  *string `yaml:"home"`
	Shell                 *string `yaml:"shell"`
	Enabled               *bool   `yaml:"enabled"`
	Password              *string `yaml:"password"`
	HashedPassword        *string `yaml:"hashedPassword"`
	HashedPasswordFile    *string `yaml:"hashedPasswordFile"`
	InitialPassword       *string `yaml:"initialPassword"`
	InitialHashedPassword *string `yaml:"initialHashedPassword"`
}

type groupDoc struct {
	Name     string   `yaml:"name"`
	IsNormal bool     `yaml:"isNormal"`
	GID      *int     `yaml:"gid"`
	Members  []string `yaml:"members"`
}

// scalar accepts a string or a number, so that a primary group may be
// given as "wheel" or 10.
type scalar string

func (s *scalar) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a group name or GID", n.Line)
	}
	*s = scalar(n.Value)
	return nil
}

// LoadDesired reads a JSON or YAML desired-state document from path.
func LoadDesired(path string) (usermgr.DesiredState, []usermgr.Warning, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return usermgr.DesiredState{}, nil, err
	}
	st, w, err := DecodeDesired(bytes.NewReader(b))
	if err != nil {
		return usermgr.DesiredState{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return st, w, nil
}

// DecodeDesired decodes a desired-state document. Unknown keys are
// rejected. hashedPasswordFile references are read here.
func DecodeDesired(r io.Reader) (usermgr.DesiredState, []usermgr.Warning, error) {
	var doc desiredDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return usermgr.DesiredState{}, nil, fmt.Errorf("%w: %v", ErrInvalidDesired, err)
	}

	var st usermgr.DesiredState
	var warnings []usermgr.Warning
	for _, g := range doc.Groups {
		st.Groups = append(st.Groups, usermgr.GroupSpec{
			Name:     g.Name,
			IsNormal: g.IsNormal,
			GID:      g.GID,
			Members:  g.Members,
		})
	}
	for _, u := range doc.Users {
		spec := usermgr.UserSpec{
			Name:        u.Name,
			IsNormal:    u.IsNormal,
			UID:         u.UID,
			Description: u.Description,
			Home:        u.Home,
			Shell:       u.Shell,
			Enabled:     u.Enabled,
			Password: usermgr.PasswordSpec{
				Password:              u.Password,
				HashedPassword:        u.HashedPassword,
				InitialPassword:       u.InitialPassword,
				InitialHashedPassword: u.InitialHashedPassword,
			},
		}
		if u.Group != nil {
			g := string(*u.Group)
			spec.Group = &g
		}
		if u.HashedPasswordFile != nil {
			hash, err := readHashFile(*u.HashedPasswordFile)
			if err != nil {
				return usermgr.DesiredState{}, nil, fmt.Errorf("user %s: %w", u.Name, err)
			}
			if u.HashedPassword != nil {
				warnings = append(warnings, usermgr.Warnf(usermgr.WarnPasswordPrecedence, u.Name,
					"hashedPasswordFile takes precedence, ignoring hashedPassword"))
			}
			spec.Password.HashedPassword = &hash
		}
		st.Users = append(st.Users, spec)
	}
	return st, warnings, nil
}

func readHashFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read hashed password file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
