// Package hostfs provides safe file access helpers for the account
// databases of a target directory.
//
// A target directory may live under a host root, e.g. when the host's /etc
// is mounted into a container:
//
//	/etc/passwd  -> /host/etc/passwd
//	/etc/shadow  -> /host/etc/shadow
//	/etc/group   -> /host/etc/group
package hostfs
