package reconcile

import (
	"github.com/hnrobert/lusync/internal/auth"
	"github.com/hnrobert/lusync/internal/usermgr"
)

func (s *state) applyUser(spec usermgr.UserSpec) error {
	if err := usermgr.CheckName("user", spec.Name); err != nil {
		return err
	}
	for _, f := range []struct {
		field string
		value *string
	}{
		{"description", spec.Description},
		{"home", spec.Home},
		{"shell", spec.Shell},
		{"group", spec.Group},
	} {
		if f.value == nil {
			continue
		}
		if err := usermgr.CheckValue("user", spec.Name, f.field, *f.value); err != nil {
			return err
		}
	}
	s.nameAdvisory("user", spec.Name)

	if u := s.db.User(spec.Name); u != nil {
		return s.updateUser(u, spec)
	}
	return s.createUser(spec)
}

func (s *state) createUser(spec usermgr.UserSpec) error {
	uid, err := claim(s.uids, "user", spec.Name, spec.UID, spec.IsNormal)
	if err != nil {
		return err
	}
	gid, err := s.primaryGroup(spec, uid)
	if err != nil {
		return err
	}
	e := usermgr.PasswdEntry{
		Name:   spec.Name,
		Passwd: usermgr.PasswordInShadow,
		UID:    uid,
		GID:    gid,
		Gecos:  deref(spec.Description, ""),
		Home:   deref(spec.Home, ""),
		Shell:  deref(spec.Shell, s.opts.NoLoginShell),
	}
	if disabled(spec) {
		e.Shell = s.opts.NoLoginShell
		e.Disabled = true
	}
	if err := s.db.AddUser(e); err != nil {
		return err
	}
	u := s.db.User(spec.Name)
	// A leftover row for a name without a user belongs to nobody.
	if s.db.Shadow(u.Name) != nil {
		s.warn(usermgr.WarnOrphanedCredential, u.Name, "stale credential entry for new user; dropping it")
		delete(s.db.Shadows, u.Name)
	}
	if u.Disabled {
		s.db.Shadows[u.Name] = usermgr.NewShadowEntry(u.Name, usermgr.LockedPassword)
	} else if err := s.credential(u, spec.Password); err != nil {
		return err
	}
	s.actionf("created user %s", u.Describe())
	return nil
}

// primaryGroup resolves the primary GID of a new user. Without an explicit
// group the user's own group is used, synthesizing it when missing.
func (s *state) primaryGroup(spec usermgr.UserSpec, uid int) (int, error) {
	if spec.Group != nil {
		return s.resolveGroup(spec.Name, *spec.Group)
	}
	if g := s.db.Group(spec.Name); g != nil {
		return g.GID, nil
	}
	// Reuse the UID as GID when it is free, otherwise allocate.
	gid := uid
	if err := s.gids.Reserve(gid, spec.Name); err != nil {
		if gid, err = s.gids.Allocate(spec.Name, spec.IsNormal); err != nil {
			return 0, err
		}
	}
	if err := s.addGroup(usermgr.GroupEntry{Name: spec.Name, GID: gid, Members: []string{spec.Name}}); err != nil {
		return 0, err
	}
	return gid, nil
}

func (s *state) updateUser(u *usermgr.PasswdEntry, spec usermgr.UserSpec) error {
	if spec.UID != nil && *spec.UID != u.UID {
		s.warn(usermgr.WarnIDMismatch, u.Name, "requested UID %d but user already has UID %d; keeping %d", *spec.UID, u.UID, u.UID)
	}
	if spec.Group != nil {
		gid, err := s.resolveGroup(u.Name, *spec.Group)
		if err != nil {
			return err
		}
		if gid != u.GID {
			s.actionf("updating primary group (GID) of user %s from %d to %d", u.Name, u.GID, gid)
			u.GID = gid
		}
	}
	s.update(u.Name, "description", &u.Gecos, spec.Description)
	s.update(u.Name, "home directory", &u.Home, spec.Home)

	// Shell and credential of a disabled user are fixed by disable.
	if disabled(spec) {
		s.disable(u)
		return nil
	}
	s.update(u.Name, "shell", &u.Shell, spec.Shell)
	if s.db.Shadow(u.Name) == nil {
		s.warn(usermgr.WarnMissingCredential, u.Name, "user has no credential entry; creating one")
	}
	return s.credential(u, spec.Password)
}

func (s *state) update(user, what string, field *string, want *string) {
	if want == nil || *field == *want {
		return
	}
	s.actionf("updating %s of user %s from %q to %q", what, user, *field, *want)
	*field = *want
}

// credential resolves and stores the shadow row of u.
func (s *state) credential(u *usermgr.PasswdEntry, pw usermgr.PasswordSpec) error {
	cur := s.db.Shadow(u.Name)
	d, err := auth.Resolve(u.Name, pw, cur, s.opts.Hasher)
	if err != nil {
		return err
	}
	s.warnings = append(s.warnings, d.Warnings...)
	if cur == nil {
		s.db.Shadows[u.Name] = usermgr.NewShadowEntry(u.Name, d.Hash)
		return nil
	}
	if cur.Hash != d.Hash {
		s.actionf("updating password of user %s", u.Name)
		cur.Hash = d.Hash
	}
	return nil
}

func disabled(spec usermgr.UserSpec) bool {
	return spec.Enabled != nil && !*spec.Enabled
}

func deref(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
