package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the JWT claims carried by a portal session token.
// SessionID keys the query-history blob for this browser session.
type SessionClaims struct {
	Username    string   `json:"username"`
	SessionID   string   `json:"session_id"`
	Permissions []string `json:"permissions"`
	IndexNames  []string `json:"index_names,omitempty"`
	jwt.RegisteredClaims
}

// CanQueryIndex reports whether the named index is in the session's grants.
func (c *SessionClaims) CanQueryIndex(name string) bool {
	for _, n := range c.IndexNames {
		if n == name {
			return true
		}
	}
	return false
}
