package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hnrobert/lusync/internal/usermgr"
)

// Source identifies where the resolved credential came from.
type Source string

const (
	SourceHashedPassword        Source = "hashedPassword"
	SourcePassword              Source = "password"
	SourceInitialHashedPassword Source = "initialHashedPassword"
	SourceInitialPassword       Source = "initialPassword"
	SourceExisting              Source = "existing"
	SourceLocked                Source = "locked"
)

// Decision is the outcome of Resolve.
type Decision struct {
	Hash   string
	Source Source
	// Rehashed is set when a fresh hash was computed from a plaintext.
	Rehashed bool
	Warnings []usermgr.Warning
}

type candidate struct {
	source        Source
	value         string
	unconditional bool
	plain         bool
}

// candidates returns the set password fields in precedence order.
func candidates(spec usermgr.PasswordSpec) []candidate {
	var out []candidate
	add := func(v *string, src Source, unconditional, plain bool) {
		if v != nil {
			out = append(out, candidate{source: src, value: *v, unconditional: unconditional, plain: plain})
		}
	}
	add(spec.HashedPassword, SourceHashedPassword, true, false)
	add(spec.Password, SourcePassword, true, true)
	add(spec.InitialHashedPassword, SourceInitialHashedPassword, false, false)
	add(spec.InitialPassword, SourceInitialPassword, false, true)
	return out
}

// Resolve decides the credential of user from the desired password fields
// and the existing credential (nil for a new account):
//
//   - an unconditional field applies on every run,
//   - an "initial" field applies only when there is no existing credential,
//   - an unconditional plaintext keeps the existing hash when it still
//     verifies, and is otherwise hashed with a fresh salt,
//   - with nothing applicable the existing hash is carried forward, or a
//     new account is locked.
func Resolve(user string, spec usermgr.PasswordSpec, existing *usermgr.ShadowEntry, h Hasher) (Decision, error) {
	var d Decision
	cs := candidates(spec)
	if len(cs) > 1 {
		ignored := make([]string, 0, len(cs)-1)
		for _, c := range cs[1:] {
			ignored = append(ignored, string(c.source))
		}
		d.Warnings = append(d.Warnings, usermgr.Warnf(usermgr.WarnPasswordPrecedence, user,
			"%s takes precedence, ignoring %s", cs[0].source, strings.Join(ignored, ", ")))
	}

	if len(cs) == 0 || (!cs[0].unconditional && existing != nil) {
		if existing != nil {
			d.Hash, d.Source = existing.Hash, SourceExisting
		} else {
			d.Hash, d.Source = usermgr.LockedPassword, SourceLocked
		}
		return d, nil
	}

	c := cs[0]
	d.Source = c.source
	if !c.plain {
		if err := usermgr.CheckValue("user", user, string(c.source), c.value); err != nil {
			return Decision{}, err
		}
		d.Hash = c.value
		return d, nil
	}

	d.Warnings = append(d.Warnings, usermgr.Warnf(usermgr.WarnPlaintextPassword, user,
		"%s is configured in plaintext; use a hashed password outside of testing", c.source))

	if existing != nil && c.unconditional {
		ok, err := h.Verify(existing.Hash, c.value)
		switch {
		case errors.Is(err, ErrUnsupportedHash):
			if !IsLocked(existing.Hash) && existing.Hash != "" {
				d.Warnings = append(d.Warnings, usermgr.Warnf(usermgr.WarnUnverifiableHash, user,
					"existing hash scheme cannot be verified, computing a new hash"))
			}
		case err != nil:
			return Decision{}, fmt.Errorf("verify password of %s: %w", user, err)
		case ok:
			d.Hash = existing.Hash
			return d, nil
		}
	}

	hash, err := h.Hash(c.value)
	if err != nil {
		return Decision{}, fmt.Errorf("hash password of %s: %w", user, err)
	}
	d.Hash, d.Rehashed = hash, true
	return d, nil
}
