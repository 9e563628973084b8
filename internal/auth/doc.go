// Package auth decides the stored credential of an account.
//
// It hashes and verifies modular-crypt passwords, resolves the desired
// password fields of a user against the existing credential, and flags
// hashing schemes that are considered weak.
package auth
