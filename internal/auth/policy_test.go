package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/lusync/internal/usermgr"
)

// fakeHasher produces deterministic hashes and counts fresh computations.
type fakeHasher struct {
	hashed int
}

func (f *fakeHasher) Hash(plain string) (string, error) {
	f.hashed++
	return "$6$fake$" + plain, nil
}

func (f *fakeHasher) Verify(hash, plain string) (bool, error) {
	if !strings.HasPrefix(hash, "$6$") {
		return false, ErrUnsupportedHash
	}
	return hash == "$6$fake$"+plain, nil
}

func str(s string) *string { return &s }

func shadow(hash string) *usermgr.ShadowEntry {
	return &usermgr.ShadowEntry{Name: "u", Hash: hash, LastChange: "19000", Max: "99999"}
}

func TestResolve_DecisionTable(t *testing.T) {
	tests := []struct {
		name     string
		spec     usermgr.PasswordSpec
		existing *usermgr.ShadowEntry
		want     string
		source   Source
		rehashed bool
	}{
		{
			name:   "new account without password is locked",
			want:   usermgr.LockedPassword,
			source: SourceLocked,
		},
		{
			name:     "existing account without password carries hash",
			existing: shadow("$6$old$hash"),
			want:     "$6$old$hash",
			source:   SourceExisting,
		},
		{
			name:   "initial hashed applies to new account",
			spec:   usermgr.PasswordSpec{InitialHashedPassword: str("$6$init$h")},
			want:   "$6$init$h",
			source: SourceInitialHashedPassword,
		},
		{
			name:     "initial hashed ignored for existing account",
			spec:     usermgr.PasswordSpec{InitialHashedPassword: str("$6$init$h")},
			existing: shadow("$6$old$hash"),
			want:     "$6$old$hash",
			source:   SourceExisting,
		},
		{
			name:     "initial plaintext hashed for new account",
			spec:     usermgr.PasswordSpec{InitialPassword: str("first")},
			want:     "$6$fake$first",
			source:   SourceInitialPassword,
			rehashed: true,
		},
		{
			name:     "initial plaintext ignored for existing account",
			spec:     usermgr.PasswordSpec{InitialPassword: str("first")},
			existing: usermgr.NewShadowEntry("u", ""),
			want:     usermgr.LockedPassword,
			source:   SourceExisting,
		},
		{
			name:     "unconditional hashed overrides existing",
			spec:     usermgr.PasswordSpec{HashedPassword: str("$y$new$h")},
			existing: shadow("$6$old$hash"),
			want:     "$y$new$h",
			source:   SourceHashedPassword,
		},
		{
			name:     "unconditional plaintext keeps matching hash",
			spec:     usermgr.PasswordSpec{Password: str("hello")},
			existing: shadow("$6$fake$hello"),
			want:     "$6$fake$hello",
			source:   SourcePassword,
		},
		{
			name:     "unconditional plaintext replaces stale hash",
			spec:     usermgr.PasswordSpec{Password: str("hello2")},
			existing: shadow("$6$fake$hello"),
			want:     "$6$fake$hello2",
			source:   SourcePassword,
			rehashed: true,
		},
		{
			name:     "unconditional plaintext replaces locked credential",
			spec:     usermgr.PasswordSpec{Password: str("hello")},
			existing: shadow(usermgr.LockedPassword),
			want:     "$6$fake$hello",
			source:   SourcePassword,
			rehashed: true,
		},
		{
			name:     "unconditional plaintext on new account",
			spec:     usermgr.PasswordSpec{Password: str("hello")},
			want:     "$6$fake$hello",
			source:   SourcePassword,
			rehashed: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := &fakeHasher{}
			d, err := Resolve("u", tc.spec, tc.existing, h)
			require.NoError(t, err)
			assert.Equal(t, tc.want, d.Hash)
			assert.Equal(t, tc.source, d.Source)
			assert.Equal(t, tc.rehashed, d.Rehashed)
			if tc.rehashed {
				assert.Equal(t, 1, h.hashed)
			} else {
				assert.Zero(t, h.hashed)
			}
		})
	}
}

func kinds(ws []usermgr.Warning) []usermgr.WarningKind {
	var out []usermgr.WarningKind
	for _, w := range ws {
		out = append(out, w.Kind)
	}
	return out
}

func TestResolve_Precedence(t *testing.T) {
	spec := usermgr.PasswordSpec{
		Password:        str("hello"),
		InitialPassword: str("mellow"),
	}
	d, err := Resolve("u", spec, nil, &fakeHasher{})
	require.NoError(t, err)
	assert.Equal(t, "$6$fake$hello", d.Hash)
	assert.Equal(t, SourcePassword, d.Source)
	assert.Equal(t, []usermgr.WarningKind{usermgr.WarnPasswordPrecedence, usermgr.WarnPlaintextPassword}, kinds(d.Warnings))

	spec = usermgr.PasswordSpec{HashedPassword: str("$6$a$b"), Password: str("hello")}
	d, err = Resolve("u", spec, nil, &fakeHasher{})
	require.NoError(t, err)
	assert.Equal(t, "$6$a$b", d.Hash)
	assert.Equal(t, []usermgr.WarningKind{usermgr.WarnPasswordPrecedence}, kinds(d.Warnings))
}

func TestResolve_UnverifiableExistingHash(t *testing.T) {
	h := &fakeHasher{}
	d, err := Resolve("u", usermgr.PasswordSpec{Password: str("hello")}, shadow("$gy$j9T$salt$hash"), h)
	require.NoError(t, err)
	assert.Equal(t, "$6$fake$hello", d.Hash)
	assert.Contains(t, kinds(d.Warnings), usermgr.WarnUnverifiableHash)
}

func TestResolve_RejectsCorruptingHash(t *testing.T) {
	_, err := Resolve("u", usermgr.PasswordSpec{HashedPassword: str("$6$a:b")}, nil, &fakeHasher{})
	require.ErrorIs(t, err, usermgr.ErrInvalidField)

	_, err = Resolve("u", usermgr.PasswordSpec{InitialHashedPassword: str("$6$a\nroot::0:0")}, nil, &fakeHasher{})
	require.ErrorIs(t, err, usermgr.ErrInvalidField)
}

func TestResolve_StableWithRealHasher(t *testing.T) {
	h, err := NewHasher(SHA512)
	require.NoError(t, err)

	first, err := Resolve("alice", usermgr.PasswordSpec{Password: str("hello")}, nil, h)
	require.NoError(t, err)
	require.True(t, first.Rehashed)

	again, err := Resolve("alice", usermgr.PasswordSpec{Password: str("hello")}, shadow(first.Hash), h)
	require.NoError(t, err)
	assert.Equal(t, first.Hash, again.Hash)
	assert.False(t, again.Rehashed)

	changed, err := Resolve("alice", usermgr.PasswordSpec{Password: str("hello2")}, shadow(first.Hash), h)
	require.NoError(t, err)
	assert.NotEqual(t, first.Hash, changed.Hash)
	assert.True(t, changed.Rehashed)
}

func TestResolve_KeepsMatchingYescryptHash(t *testing.T) {
	h, err := NewHasher(SHA512)
	require.NoError(t, err)
	const hash = "$y$j9T$qPA34Fz5ALUVSUMv1Ihat.$5mK2beqNNh5QhircGqGFJJZwA9H.vi8vV7E3Mt4oug1"

	d, err := Resolve("u", usermgr.PasswordSpec{Password: str("hello")}, shadow(hash), h)
	require.NoError(t, err)
	assert.Equal(t, hash, d.Hash)
	assert.False(t, d.Rehashed)
	assert.NotContains(t, kinds(d.Warnings), usermgr.WarnUnverifiableHash)
}
