package usermgr

import "strings"

// Small helper to avoid strconv import in hot formatting.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [32]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + (n % 10))
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func FormatPasswd(entries []*PasswdEntry) []byte {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Name)
		b.WriteByte(':')
		b.WriteString(e.Passwd)
		b.WriteByte(':')
		b.WriteString(itoa(e.UID))
		b.WriteByte(':')
		b.WriteString(itoa(e.GID))
		b.WriteByte(':')
		b.WriteString(e.Gecos)
		b.WriteByte(':')
		b.WriteString(e.Home)
		b.WriteByte(':')
		b.WriteString(e.Shell)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func FormatGroup(entries []*GroupEntry) []byte {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Name)
		b.WriteByte(':')
		b.WriteString(e.Passwd)
		b.WriteByte(':')
		b.WriteString(itoa(e.GID))
		b.WriteByte(':')
		b.WriteString(strings.Join(NormalizeMembers(e.Members), ","))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func FormatShadow(entries []*ShadowEntry) []byte {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Name)
		b.WriteByte(':')
		b.WriteString(e.Hash)
		b.WriteByte(':')
		b.WriteString(e.LastChange)
		b.WriteByte(':')
		b.WriteString(e.Min)
		b.WriteByte(':')
		b.WriteString(e.Max)
		b.WriteByte(':')
		b.WriteString(e.Warn)
		b.WriteByte(':')
		b.WriteString(e.Inactive)
		b.WriteByte(':')
		b.WriteString(e.Expire)
		b.WriteByte(':')
		b.WriteString(e.Reserved)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Files holds the serialized content of the three databases.
type Files struct {
	Passwd []byte
	Group  []byte
	Shadow []byte
}

// Encode serializes db. Output is sorted by numeric ID; shadow rows follow
// passwd order and orphaned credentials are left out.
func (db *Database) Encode() Files {
	return Files{
		Passwd: FormatPasswd(db.UserList()),
		Group:  FormatGroup(db.GroupList()),
		Shadow: FormatShadow(db.ShadowList()),
	}
}
