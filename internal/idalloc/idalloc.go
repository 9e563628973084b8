// Package idalloc hands out numeric user and group identifiers.
//
// An Allocator tracks every identifier known to a run: those present in
// the existing database (enabled or disabled) and those handed out during
// the run. A known identifier is never handed out again.
package idalloc

import (
	"errors"
	"fmt"
)

var (
	ErrIdentifierExhaustion = errors.New("identifier exhaustion")
	ErrIdentifierInUse      = errors.New("identifier already in use")
	ErrInvalidRange         = errors.New("invalid identifier range")
)

// Range is an inclusive band of identifiers.
type Range struct {
	Min int
	Max int
}

func (r Range) Contains(id int) bool {
	return id >= r.Min && id <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Validate checks that r is non-empty and not negative.
func (r Range) Validate() error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("%w: %s", ErrInvalidRange, r)
	}
	return nil
}

type Allocator struct {
	kind   string
	system Range
	normal Range
	owners map[int]string
}

// New returns an Allocator for kind ("UID" or "GID", used in errors).
func New(kind string, system, normal Range) *Allocator {
	return &Allocator{kind: kind, system: system, normal: normal, owners: map[int]string{}}
}

// Reserve records id as held by owner. Reserving an id already held by a
// different owner fails with ErrIdentifierInUse and leaves the first owner
// in place.
func (a *Allocator) Reserve(id int, owner string) error {
	if cur, ok := a.owners[id]; ok && cur != owner {
		return fmt.Errorf("%w: %s %d is held by %s", ErrIdentifierInUse, a.kind, id, cur)
	}
	a.owners[id] = owner
	return nil
}

func (a *Allocator) InUse(id int) bool {
	_, ok := a.owners[id]
	return ok
}

// Owner returns the name holding id.
func (a *Allocator) Owner(id int) (string, bool) {
	n, ok := a.owners[id]
	return n, ok
}

// Allocate returns the smallest unused identifier of the normal or system
// range and reserves it for owner.
func (a *Allocator) Allocate(owner string, normal bool) (int, error) {
	r, band := a.system, "system"
	if normal {
		r, band = a.normal, "normal"
	}
	for id := r.Min; id <= r.Max; id++ {
		if _, ok := a.owners[id]; !ok {
			a.owners[id] = owner
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: no free %s in %s range %s for %s", ErrIdentifierExhaustion, a.kind, band, r, owner)
}
