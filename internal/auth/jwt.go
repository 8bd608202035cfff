package auth

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tokenIssuer tags every token this service signs. Validation rejects
// tokens minted by anything else that happens to share the secret.
const tokenIssuer = "motoshop"

// Claims is the session payload: who is logged in and with which role.
// The uuid jti makes individual sessions revocable.
type Claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateToken(userID int, username, role, secret string, expiryHours int) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiryHours) * time.Hour)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token. Algorithm and
// issuer are pinned; expiry is checked by the parser.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	return claims, nil
}

// RevokeToken blocklists a session by jti until the token would have
// expired anyway; after that the row is dead weight and gets swept.
func RevokeToken(db *sql.DB, jti string, expiresAt time.Time) error {
	_, err := db.Exec(
		"INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)",
		jti, expiresAt.UTC().Format(time.RFC3339),
	)
	return err
}

// IsRevoked reports whether a session's jti is on the blocklist. A query
// failure reads as not-revoked: the token signature already proved
// authenticity and sessions are short-lived.
func IsRevoked(db *sql.DB, jti string) bool {
	if jti == "" {
		return false
	}
	var one int
	err := db.QueryRow("SELECT 1 FROM revoked_tokens WHERE jti = ?", jti).Scan(&one)
	return err == nil
}

// CleanupExpiredTokens drops blocklist rows whose tokens have expired on
// their own. Returns the number of rows removed.
func CleanupExpiredTokens(db *sql.DB) int64 {
	res, err := db.Exec("DELETE FROM revoked_tokens WHERE expires_at < ?", time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0
	}
	n, _ := res.RowsAffected()
	return n
}
