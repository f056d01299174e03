package users

import "time"

// User is the account identity created at sign-up. Fields are immutable
// after creation except LastLoginAt, which is refreshed on sign-in.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// FullName returns the display name for the user
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// StoredCredentials is the per-email credential record: one per registered
// email, created at sign-up. Only the last-login timestamp changes afterwards.
type StoredCredentials struct {
	User         User
	PasswordHash string
	Salt         []byte
}
