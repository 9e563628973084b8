package usermgr

import (
	"fmt"
	"sort"
)

func (db *Database) User(name string) *PasswdEntry {
	return db.Users[name]
}

// UserList returns the users sorted ascending by UID, ties broken by name.
func (db *Database) UserList() []*PasswdEntry {
	out := make([]*PasswdEntry, 0, len(db.Users))
	for _, e := range db.Users {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UID != out[j].UID {
			return out[i].UID < out[j].UID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (db *Database) AddUser(e PasswdEntry) error {
	if db.User(e.Name) != nil {
		return fmt.Errorf("user already exists: %s", e.Name)
	}
	if e.Passwd == "" {
		e.Passwd = PasswordInShadow
	}
	db.Users[e.Name] = &e
	return nil
}
