package hostfs

// Well-known database file names inside a target directory.
const (
	PasswdName = "passwd"
	GroupName  = "group"
	ShadowName = "shadow"

	// BackupSuffix follows the shadow-utils convention (passwd-, shadow-).
	BackupSuffix = "-"
)
