package reconcile

import (
	"github.com/hnrobert/lusync/internal/auth"
	"github.com/hnrobert/lusync/internal/usermgr"
)

// disable retires u: the row and identifier stay, the shell is forced to
// the no-login shell and the credential to the locked sentinel.
func (s *state) disable(u *usermgr.PasswdEntry) {
	u.Disabled = true
	changed := false
	if u.Shell != s.opts.NoLoginShell {
		u.Shell = s.opts.NoLoginShell
		changed = true
	}
	sh := s.db.Shadow(u.Name)
	switch {
	case sh == nil:
		s.warn(usermgr.WarnMissingCredential, u.Name, "user has no credential entry; creating a locked one")
		s.db.Shadows[u.Name] = usermgr.NewShadowEntry(u.Name, usermgr.LockedPassword)
		changed = true
	case sh.Hash != usermgr.LockedPassword:
		sh.Hash = usermgr.LockedPassword
		changed = true
	}
	if changed {
		s.actionf("locking account for user %s", u.Name)
	}
}

func (s *state) dropOrphans() {
	for _, name := range s.db.Orphans() {
		s.warn(usermgr.WarnOrphanedCredential, name, "credential entry has no matching user; dropping it")
		delete(s.db.Shadows, name)
	}
}

// healPrimaryGroups makes every primary GID resolve. A user whose GID
// matches no group gets a group of its own name with that GID when both
// are free.
func (s *state) healPrimaryGroups() {
	known := map[int]bool{}
	for _, g := range s.db.GroupList() {
		known[g.GID] = true
	}
	for _, u := range s.db.UserList() {
		if known[u.GID] {
			continue
		}
		if s.db.Group(u.Name) != nil || s.gids.InUse(u.GID) {
			s.fail(userError(u.Name, ErrUnknownGroup, "primary GID %d does not resolve to a group", u.GID))
			continue
		}
		_ = s.gids.Reserve(u.GID, u.Name)
		if err := s.addGroup(usermgr.GroupEntry{Name: u.Name, GID: u.GID, Members: []string{u.Name}}); err != nil {
			s.fail(err)
			continue
		}
		known[u.GID] = true
		s.warn(usermgr.WarnDanglingGroup, u.Name, "primary GID %d did not resolve; created group %s", u.GID, u.Name)
	}
}

// checkMembers reports members of declared groups that name no user.
func (s *state) checkMembers(declared map[string]bool) {
	for _, g := range s.db.GroupList() {
		if !declared[g.Name] {
			continue
		}
		for _, m := range g.Members {
			if s.db.User(m) == nil {
				s.warn(usermgr.WarnUnknownGroupMember, g.Name, "member %s is not a known user", m)
			}
		}
	}
}

func (s *state) scanHashes() {
	for _, sh := range s.db.ShadowList() {
		if scheme, weak := auth.WeakScheme(sh.Hash); weak {
			s.warn(usermgr.WarnWeakHash, sh.Name, "user uses an insecure password hashing scheme (%s); update the password as soon as possible", scheme)
		}
	}
}
