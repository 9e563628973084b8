package usermgr

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrParse marks a database line that could not be parsed. It only
// surfaces wrapped inside a Warning; the line itself is skipped.
var ErrParse = errors.New("parse error")

const maxLineLen = 1024 * 1024

func parseColonLine(line string) []string {
	// Keep trailing empty fields.
	return strings.Split(line, ":")
}

func readLines(r io.Reader) ([]string, error) {
	s := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, maxLineLen)
	var lines []string
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func atoi(field, ctx string) (int, error) {
	n, err := strconv.ParseUint(field, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", ctx, field)
	}
	return int(n), nil
}

// parseFile reads colon-delimited records with exactly nfields fields.
// Lines that are blank, comments, malformed, or repeat an already seen
// name are dropped; every dropped non-comment line yields a warning.
func parseFile[T any](r io.Reader, file string, nfields int, build func([]string) (*T, error), name func(*T) string) (map[string]*T, []Warning, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", file, err)
	}
	out := make(map[string]*T, len(lines))
	var warnings []Warning
	skip := func(n int, reason string) {
		warnings = append(warnings, Warning{
			Kind:    WarnMalformedLine,
			Subject: fmt.Sprintf("%s:%d", file, n),
			Message: "skipping line: " + reason,
			Err:     fmt.Errorf("%w: %s line %d: %s", ErrParse, file, n, reason),
		})
	}
	for i, line := range lines {
		n := i + 1
		trim := strings.TrimSpace(line)
		if trim == "" || strings.HasPrefix(trim, "#") {
			continue
		}
		parts := parseColonLine(line)
		if len(parts) != nfields {
			skip(n, fmt.Sprintf("expected %d fields, got %d", nfields, len(parts)))
			continue
		}
		if parts[0] == "" {
			skip(n, "empty name")
			continue
		}
		e, err := build(parts)
		if err != nil {
			skip(n, err.Error())
			continue
		}
		key := name(e)
		if _, dup := out[key]; dup {
			warnings = append(warnings, Warnf(WarnDuplicateEntry, key, "%s line %d repeats an earlier entry and is ignored", file, n))
			continue
		}
		out[key] = e
	}
	return out, warnings, nil
}

// ParsePasswd parses an account database. file names the source in
// warnings.
func ParsePasswd(r io.Reader, file string) (map[string]*PasswdEntry, []Warning, error) {
	return parseFile(r, file, 7, func(parts []string) (*PasswdEntry, error) {
		uid, err := atoi(parts[2], "uid")
		if err != nil {
			return nil, err
		}
		gid, err := atoi(parts[3], "gid")
		if err != nil {
			return nil, err
		}
		return &PasswdEntry{
			Name:   parts[0],
			Passwd: parts[1],
			UID:    uid,
			GID:    gid,
			Gecos:  parts[4],
			Home:   parts[5],
			Shell:  parts[6],
		}, nil
	}, func(e *PasswdEntry) string { return e.Name })
}

// ParseGroup parses a group database.
func ParseGroup(r io.Reader, file string) (map[string]*GroupEntry, []Warning, error) {
	return parseFile(r, file, 4, func(parts []string) (*GroupEntry, error) {
		gid, err := atoi(parts[2], "gid")
		if err != nil {
			return nil, err
		}
		return &GroupEntry{Name: parts[0], Passwd: parts[1], GID: gid, Members: splitMembers(parts[3])}, nil
	}, func(e *GroupEntry) string { return e.Name })
}

// ParseShadow parses a credential database. Aging fields are kept as
// opaque strings.
func ParseShadow(r io.Reader, file string) (map[string]*ShadowEntry, []Warning, error) {
	return parseFile(r, file, 9, func(parts []string) (*ShadowEntry, error) {
		return &ShadowEntry{
			Name:       parts[0],
			Hash:       parts[1],
			LastChange: parts[2],
			Min:        parts[3],
			Max:        parts[4],
			Warn:       parts[5],
			Inactive:   parts[6],
			Expire:     parts[7],
			Reserved:   parts[8],
		}, nil
	}, func(e *ShadowEntry) string { return e.Name })
}

func splitMembers(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
