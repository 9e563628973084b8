package usermgr

// Database is an in-memory snapshot of the three account files, keyed by
// name. Slices and entries are owned by the Database; use Clone before
// deriving a new state from an existing one.
type Database struct {
	Users   map[string]*PasswdEntry
	Groups  map[string]*GroupEntry
	Shadows map[string]*ShadowEntry
}

func NewDatabase() *Database {
	return &Database{
		Users:   map[string]*PasswdEntry{},
		Groups:  map[string]*GroupEntry{},
		Shadows: map[string]*ShadowEntry{},
	}
}

// Clone returns a deep copy.
func (db *Database) Clone() *Database {
	out := NewDatabase()
	for k, e := range db.Users {
		c := *e
		out.Users[k] = &c
	}
	for k, e := range db.Groups {
		c := *e
		c.Members = append([]string(nil), e.Members...)
		out.Groups[k] = &c
	}
	for k, e := range db.Shadows {
		c := *e
		out.Shadows[k] = &c
	}
	return out
}
