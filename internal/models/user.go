package models

import (
	"time"
)

// Account status values. The login throttle flips an account to Inactive
// after repeated failures; only an administrator sets it back to Active.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// User is one document in the user-accounts collection, keyed by username.
type User struct {
	ID            string
	Username      string
	Salt          int    // bcrypt cost factor used when the password was hashed
	PasswordHash  string
	Permissions   []string // permission tags, see permissions.go
	IndexNames    []string // GraphRAG indexes this user may query
	AccountStatus string   // "Active" or "Inactive"
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u *User) IsActive() bool {
	return u.AccountStatus == StatusActive
}

// CanQueryIndex reports whether the named index is in the user's grant list.
func (u *User) CanQueryIndex(name string) bool {
	for _, n := range u.IndexNames {
		if n == name {
			return true
		}
	}
	return false
}
