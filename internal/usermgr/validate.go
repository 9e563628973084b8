package usermgr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidField = errors.New("invalid field")

// FieldError reports a value that cannot be serialized without corrupting
// the line format.
type FieldError struct {
	Entity string // "user" or "group"
	Name   string
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s: invalid %s %q: %s", e.Entity, e.Name, e.Field, e.Value, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalidField }

var usernameRe = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}\$?$`)

// ConventionalName reports whether n follows the usual Linux naming rules:
// lowercase letters, digits, underscore and dash, starting with a letter or
// underscore, optionally ending in '$' for machine accounts.
func ConventionalName(n string) bool {
	return usernameRe.MatchString(n)
}

// CheckValue rejects control characters and the field delimiter.
func CheckValue(entity, name, field, value string) error {
	if i := strings.IndexFunc(value, isControl); i >= 0 {
		return &FieldError{Entity: entity, Name: name, Field: field, Value: value,
			Reason: fmt.Sprintf("control character %#x at offset %d", value[i], i)}
	}
	if strings.ContainsRune(value, ':') {
		return &FieldError{Entity: entity, Name: name, Field: field, Value: value, Reason: "contains ':'"}
	}
	return nil
}

// CheckName validates an account or group name. Names additionally may not
// be empty or contain ',' since they appear in group member lists.
func CheckName(entity, name string) error {
	if name == "" {
		return &FieldError{Entity: entity, Name: name, Field: "name", Value: name, Reason: "empty"}
	}
	if err := CheckValue(entity, name, "name", name); err != nil {
		return err
	}
	if strings.ContainsAny(name, ", ") {
		return &FieldError{Entity: entity, Name: name, Field: "name", Value: name, Reason: "contains ',' or space"}
	}
	return nil
}

// CheckMember validates one group member name.
func CheckMember(group, member string) error {
	if err := CheckName("group", member); err != nil {
		var fe *FieldError
		if errors.As(err, &fe) {
			fe.Name = group
			fe.Field = "member"
		}
		return err
	}
	return nil
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}
