package usermgr

import "fmt"

type WarningKind string

const (
	WarnMalformedLine      WarningKind = "malformed-line"
	WarnDuplicateEntry     WarningKind = "duplicate-entry"
	WarnDuplicateID        WarningKind = "duplicate-id"
	WarnOrphanedCredential WarningKind = "orphaned-credential"
	WarnMissingCredential  WarningKind = "missing-credential"
	WarnIDMismatch         WarningKind = "id-mismatch"
	WarnWeakHash           WarningKind = "weak-hash"
	WarnPlaintextPassword  WarningKind = "plaintext-password"
	WarnPasswordPrecedence WarningKind = "password-precedence"
	WarnUnverifiableHash   WarningKind = "unverifiable-hash"
	WarnDanglingGroup      WarningKind = "dangling-group"
	WarnUnconventionalName WarningKind = "unconventional-name"
	WarnUnknownGroupMember WarningKind = "unknown-group-member"
)

// Warning is a non-fatal diagnostic. Warnings never end up in the data
// files; callers report them through their own logging sink.
type Warning struct {
	Kind    WarningKind
	Subject string
	Message string
	// Err is set for warnings that stem from a recovered error, such as a
	// skipped malformed line (wraps ErrParse).
	Err error
}

func (w Warning) String() string {
	if w.Subject == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Kind, w.Subject, w.Message)
}

// Warnf builds a Warning with a formatted message.
func Warnf(kind WarningKind, subject, format string, args ...interface{}) Warning {
	return Warning{Kind: kind, Subject: subject, Message: fmt.Sprintf(format, args...)}
}
