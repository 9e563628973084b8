package usermgr

const (
	// PasswordInShadow is the passwd/group password placeholder meaning the
	// real credential lives in the shadow database.
	PasswordInShadow = "x"

	// LockedPassword is a locked and invalid credential.
	LockedPassword = "!*"

	// InitialLastChange is the last-change field written for new credentials.
	InitialLastChange = "1"
)

type PasswdEntry struct {
	Name   string
	Passwd string
	UID    int
	GID    int
	Gecos  string
	Home   string
	Shell  string

	// Disabled is not serialized. It is set by the reconciler for accounts
	// that are retained but no longer eligible for login.
	Disabled bool
}

// Describe returns a short human readable description.
func (e *PasswdEntry) Describe() string {
	return e.Name + " with UID " + itoa(e.UID)
}

type ShadowEntry struct {
	Name       string
	Hash       string
	LastChange string
	Min        string
	Max        string
	Warn       string
	Inactive   string
	Expire     string
	Reserved   string
}

// NewShadowEntry returns a credential row for a freshly created account.
// An empty hash yields a locked credential.
func NewShadowEntry(name, hash string) *ShadowEntry {
	if hash == "" {
		hash = LockedPassword
	}
	return &ShadowEntry{Name: name, Hash: hash, LastChange: InitialLastChange}
}

type GroupEntry struct {
	Name    string
	Passwd  string
	GID     int
	Members []string
}

// Describe returns a short human readable description.
func (e *GroupEntry) Describe() string {
	return e.Name + " with GID " + itoa(e.GID)
}

// GroupSpec is the desired state of one group. Only Name is required.
type GroupSpec struct {
	Name     string
	IsNormal bool
	GID      *int
	Members  []string
}

// PasswordSpec carries the password-related fields of a UserSpec.
// Password and HashedPassword are applied on every run; the Initial
// variants only when the credential is created.
type PasswordSpec struct {
	Password              *string
	HashedPassword        *string
	InitialPassword       *string
	InitialHashedPassword *string
}

// UserSpec is the desired state of one user. Only Name is required.
type UserSpec struct {
	Name     string
	IsNormal bool
	UID      *int
	// Group names the primary group by name or numeric GID.
	Group       *string
	Description *string
	Home        *string
	Shell       *string
	Enabled     *bool
	Password    PasswordSpec
}

// DesiredState is the fully resolved target description of a run.
type DesiredState struct {
	Groups []GroupSpec
	Users  []UserSpec
}
