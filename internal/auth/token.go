package auth

import (
	"fmt"
	"time"

	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionManager issues and validates portal session tokens. Every login
// gets a fresh session ID, which also keys the session's query-history
// blob.
type SessionManager struct {
	secret string
	expiry time.Duration
}

func NewSessionManager(secret string, expiry time.Duration) *SessionManager {
	return &SessionManager{
		secret: secret,
		expiry: expiry,
	}
}

// Issue creates a signed session token for user and returns it together
// with the generated session ID.
func (m *SessionManager) Issue(user *models.User) (string, string, error) {
	sessionID := uuid.New().String()

	claims := &models.SessionClaims{
		Username:    user.Username,
		SessionID:   sessionID,
		Permissions: user.Permissions,
		IndexNames:  user.IndexNames,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, sessionID, nil
}

// Validate verifies a session token and returns its claims.
func (m *SessionManager) Validate(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	return claims, nil
}
