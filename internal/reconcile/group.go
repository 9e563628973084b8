package reconcile

import (
	"fmt"
	"strconv"

	"github.com/hnrobert/lusync/internal/usermgr"
)

func (s *state) applyGroup(spec usermgr.GroupSpec) error {
	if err := usermgr.CheckName("group", spec.Name); err != nil {
		return err
	}
	for _, m := range spec.Members {
		if err := usermgr.CheckMember(spec.Name, m); err != nil {
			return err
		}
	}
	s.nameAdvisory("group", spec.Name)
	members := usermgr.NormalizeMembers(spec.Members)

	if g := s.db.Group(spec.Name); g != nil {
		if spec.GID != nil && *spec.GID != g.GID {
			s.warn(usermgr.WarnIDMismatch, g.Name, "requested GID %d but group already has GID %d; keeping %d", *spec.GID, g.GID, g.GID)
		}
		if cur := usermgr.NormalizeMembers(g.Members); !equalStrings(cur, members) {
			s.actionf("updating members of group %s from %v to %v", g.Name, cur, members)
			g.Members = members
		}
		return nil
	}

	gid, err := claim(s.gids, "group", spec.Name, spec.GID, spec.IsNormal)
	if err != nil {
		return err
	}
	return s.addGroup(usermgr.GroupEntry{Name: spec.Name, GID: gid, Members: members})
}

func (s *state) addGroup(e usermgr.GroupEntry) error {
	if err := s.db.AddGroup(e); err != nil {
		return err
	}
	s.actionf("created group %s", s.db.Group(e.Name).Describe())
	return nil
}

// resolveGroup maps a group name or numeric GID to the GID of a group in
// the current set.
func (s *state) resolveGroup(user, ref string) (int, error) {
	if g := s.db.Group(ref); g != nil {
		return g.GID, nil
	}
	if gid, err := strconv.Atoi(ref); err == nil {
		if g := s.db.GroupByGID(gid); g != nil {
			return g.GID, nil
		}
	}
	return 0, fmt.Errorf("%w: primary group %q of user %s does not exist", ErrUnknownGroup, ref, user)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
