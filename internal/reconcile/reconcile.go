// Package reconcile merges a desired account description into an existing
// account database.
//
// The existing database is never modified. Reconcile derives a new one in
// which declared groups and users are created or updated, undeclared users
// are disabled (never removed), and identifiers are never reassigned.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/hnrobert/lusync/internal/auth"
	"github.com/hnrobert/lusync/internal/idalloc"
	"github.com/hnrobert/lusync/internal/usermgr"
)

var (
	ErrUnknownGroup  = errors.New("unknown group")
	ErrDuplicateSpec = errors.New("duplicate spec")
)

type Options struct {
	SystemRange idalloc.Range
	NormalRange idalloc.Range
	// NoLoginShell is written for new users without a shell and for every
	// disabled user.
	NoLoginShell string
	Hasher       auth.Hasher
}

// Result is the outcome of a run. DB is nil when the run failed.
type Result struct {
	DB       *usermgr.Database
	Warnings []usermgr.Warning
	// Actions describes the changes made, one line each.
	Actions []string
}

type Reconciler struct {
	opts Options
}

func New(opts Options) *Reconciler {
	return &Reconciler{opts: opts}
}

// Reconcile computes the new database state. Failures of individual specs
// are collected; if any occurred the returned error aggregates all of them
// and Result.DB is nil. Warnings are returned in either case.
func (r *Reconciler) Reconcile(existing *usermgr.Database, desired usermgr.DesiredState) (*Result, error) {
	if existing == nil {
		existing = usermgr.NewDatabase()
	}
	s := &state{
		opts: r.opts,
		db:   existing.Clone(),
		uids: idalloc.New("UID", r.opts.SystemRange, r.opts.NormalRange),
		gids: idalloc.New("GID", r.opts.SystemRange, r.opts.NormalRange),
	}
	s.reserveExisting()

	seenGroups := map[string]bool{}
	for _, spec := range desired.Groups {
		if seenGroups[spec.Name] {
			s.fail(fmt.Errorf("%w: group %s declared more than once", ErrDuplicateSpec, spec.Name))
			continue
		}
		seenGroups[spec.Name] = true
		if err := s.applyGroup(spec); err != nil {
			s.fail(fmt.Errorf("group %s: %w", spec.Name, err))
		}
	}

	declared := map[string]bool{}
	for _, spec := range desired.Users {
		if declared[spec.Name] {
			s.fail(fmt.Errorf("%w: user %s declared more than once", ErrDuplicateSpec, spec.Name))
			continue
		}
		declared[spec.Name] = true
		if err := s.applyUser(spec); err != nil {
			s.fail(fmt.Errorf("user %s: %w", spec.Name, err))
		}
	}

	for _, u := range s.db.UserList() {
		if !declared[u.Name] {
			s.disable(u)
		}
	}
	s.dropOrphans()
	s.healPrimaryGroups()
	s.checkMembers(seenGroups)
	s.scanHashes()

	res := &Result{Warnings: s.warnings, Actions: s.actions}
	if err := s.errs.ErrorOrNil(); err != nil {
		return res, err
	}
	res.DB = s.db
	return res, nil
}

type state struct {
	opts     Options
	db       *usermgr.Database
	uids     *idalloc.Allocator
	gids     *idalloc.Allocator
	warnings []usermgr.Warning
	actions  []string
	errs     *multierror.Error
}

func (s *state) fail(err error) {
	s.errs = multierror.Append(s.errs, err)
}

func (s *state) warn(kind usermgr.WarningKind, subject, format string, args ...interface{}) {
	s.warnings = append(s.warnings, usermgr.Warnf(kind, subject, format, args...))
}

func (s *state) actionf(format string, args ...interface{}) {
	s.actions = append(s.actions, fmt.Sprintf(format, args...))
}

// reserveExisting marks every identifier on disk as taken, disabled
// accounts included.
func (s *state) reserveExisting() {
	for _, u := range s.db.UserList() {
		if err := s.uids.Reserve(u.UID, u.Name); err != nil {
			s.warn(usermgr.WarnDuplicateID, u.Name, "%v", err)
		}
	}
	for _, g := range s.db.GroupList() {
		if err := s.gids.Reserve(g.GID, g.Name); err != nil {
			s.warn(usermgr.WarnDuplicateID, g.Name, "%v", err)
		}
	}
}

// claim reserves an explicitly requested identifier or allocates one.
func claim(a *idalloc.Allocator, entity, name string, requested *int, normal bool) (int, error) {
	if requested == nil {
		return a.Allocate(name, normal)
	}
	id := *requested
	if id < 0 || int64(id) > 1<<32-2 {
		return 0, &usermgr.FieldError{Entity: entity, Name: name, Field: "id", Value: fmt.Sprint(id), Reason: "out of range"}
	}
	if err := a.Reserve(id, name); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *state) nameAdvisory(entity, name string) {
	if !usermgr.ConventionalName(name) {
		s.warn(usermgr.WarnUnconventionalName, name, "%s name does not follow the usual naming rules", entity)
	}
}

func userError(user string, kind error, format string, args ...interface{}) error {
	return fmt.Errorf("user %s: %w: %s", user, kind, fmt.Sprintf(format, args...))
}
