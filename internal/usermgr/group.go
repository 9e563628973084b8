package usermgr

import (
	"fmt"
	"sort"
)

func (db *Database) Group(name string) *GroupEntry {
	return db.Groups[name]
}

func (db *Database) GroupByGID(gid int) *GroupEntry {
	for _, e := range db.GroupList() {
		if e.GID == gid {
			return e
		}
	}
	return nil
}

// GroupList returns the groups sorted ascending by GID, ties broken by name.
func (db *Database) GroupList() []*GroupEntry {
	out := make([]*GroupEntry, 0, len(db.Groups))
	for _, e := range db.Groups {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GID != out[j].GID {
			return out[i].GID < out[j].GID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (db *Database) AddGroup(e GroupEntry) error {
	if db.Group(e.Name) != nil {
		return fmt.Errorf("group already exists: %s", e.Name)
	}
	if e.Passwd == "" {
		e.Passwd = PasswordInShadow
	}
	e.Members = NormalizeMembers(e.Members)
	db.Groups[e.Name] = &e
	return nil
}

// NormalizeMembers deduplicates and sorts a member list. Empty names are
// dropped. Case is preserved.
func NormalizeMembers(members []string) []string {
	if len(members) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
