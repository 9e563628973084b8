package usermgr

import (
	"fmt"
	"sort"
)

func (db *Database) Shadow(name string) *ShadowEntry {
	return db.Shadows[name]
}

func (db *Database) AddShadow(e ShadowEntry) error {
	if db.Shadow(e.Name) != nil {
		return fmt.Errorf("shadow entry already exists: %s", e.Name)
	}
	db.Shadows[e.Name] = &e
	return nil
}

// ShadowList returns credentials in the order of their owning users.
// Credentials without an owning user are not returned.
func (db *Database) ShadowList() []*ShadowEntry {
	out := make([]*ShadowEntry, 0, len(db.Shadows))
	for _, u := range db.UserList() {
		if e := db.Shadows[u.Name]; e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Orphans returns the names of credentials without an owning user.
func (db *Database) Orphans() []string {
	var out []string
	for name := range db.Shadows {
		if db.Users[name] == nil {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
