package model

import "time"

// Default profile values used until the user signs in or edits their profile.
const (
	DefaultUserName  = "John Doe"
	DefaultUserEmail = "john.doe@example.com"

	// fallbackAccountEmail is shown for registry entries that never stored an email.
	fallbackAccountEmail = "user@example.com"
)

// UserProfile is the signed-in user's public profile, stored under "userData".
//
// Username is the unique, immutable handle; it is empty until someone signs in.
type UserProfile struct {
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Avatar   *string   `json:"avatar"`
	Bio      string    `json:"bio"`
	Location string    `json:"location"`
	Website  string    `json:"website"`
	JoinDate Timestamp `json:"joinDate"`
}

// DefaultUser returns the profile used when nothing is stored. JoinDate is now.
func DefaultUser(now time.Time) UserProfile {
	return UserProfile{
		Name:     DefaultUserName,
		Email:    DefaultUserEmail,
		JoinDate: NewTimestamp(now),
	}
}

// Account is one entry of the local account registry (stored under "users").
//
// Password holds whatever the registry was written with: a bcrypt hash for
// accounts registered by this service, plain text for entries imported from
// older registries. auth.PasswordService.Matches understands both.
type Account struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Name     string    `json:"name"`
	JoinDate Timestamp `json:"joinDate"`
	Bio      string    `json:"bio"`
	Location string    `json:"location"`
	Website  string    `json:"website"`
}

// Profile builds the profile that becomes "userData" after a successful sign-in.
// Missing registry fields fall back individually; a missing join date becomes now.
func (a Account) Profile(now time.Time) UserProfile {
	p := UserProfile{
		Username: a.Username,
		Name:     a.Name,
		Email:    a.Email,
		Bio:      a.Bio,
		Location: a.Location,
		Website:  a.Website,
		JoinDate: a.JoinDate,
	}
	if p.Name == "" {
		p.Name = a.Username
	}
	if p.Email == "" {
		p.Email = fallbackAccountEmail
	}
	if p.JoinDate.IsZero() {
		p.JoinDate = NewTimestamp(now)
	}
	return p
}
