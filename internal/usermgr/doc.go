// Package usermgr models the classic colon-delimited account databases
// (passwd, group, shadow) and converts them to and from bytes.
//
// Files are expected under a single target directory:
//
//	<dir>/passwd
//	<dir>/group
//	<dir>/shadow
//
// Parsing is lenient: blank lines and comments are dropped, malformed
// lines are skipped and reported as warnings. Formatting is strict and
// deterministic: records are emitted sorted by numeric ID, shadow rows
// follow passwd order, and group members are deduplicated and sorted.
package usermgr
