package auth

import "strings"

// weakSchemes maps modular-crypt identifiers to a readable scheme name.
// All of them are unsalted, fast, or broken.
var weakSchemes = map[string]string{
	"1":    "md5-crypt",
	"2":    "bcrypt (original $2$)",
	"2x":   "bcrypt ($2x$, crypt_blowfish sign bug)",
	"3":    "NT hash",
	"md5":  "SunMD5",
	"sha1": "sha1-crypt",
	"apr1": "apr1 md5",
}

// IsLocked reports whether hash is a locked sentinel ("!", "*", "!*" or a
// hash disabled with a leading '!').
func IsLocked(hash string) bool {
	return strings.HasPrefix(hash, "!") || strings.HasPrefix(hash, "*")
}

// WeakScheme reports whether hash uses a weak scheme, and which. Locked
// credentials are never weak. An empty hash means no password at all and
// is reported as weak.
func WeakScheme(hash string) (string, bool) {
	switch {
	case hash == "":
		return "empty password", true
	case IsLocked(hash):
		return "", false
	case strings.HasPrefix(hash, "_"):
		return "BSDi extended DES", true
	case strings.HasPrefix(hash, "$"):
		id := strings.SplitN(hash[1:], "$", 2)[0]
		if name, ok := weakSchemes[id]; ok {
			return name, true
		}
		return "", false
	case len(hash) == 13 && isCryptAlphabet(hash):
		return "traditional DES", true
	}
	return "", false
}

func isCryptAlphabet(s string) bool {
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(saltAlphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
