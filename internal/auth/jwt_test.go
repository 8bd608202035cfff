package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-that-is-long-enough-000"

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(7, "carlos", "staff", testSecret, 8)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "carlos" || claims.Role != "staff" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID == "" {
		t.Error("token should carry a jti")
	}
	if claims.Issuer != "motoshop" {
		t.Errorf("issuer = %q, want motoshop", claims.Issuer)
	}
}

func TestValidateToken_ForeignIssuer(t *testing.T) {
	// Signed with our secret but minted by another service.
	claims := Claims{
		UserID:   3,
		Username: "carlos",
		Role:     "staff",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "some-other-app",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ValidateToken(token, testSecret); err == nil {
		t.Error("token from a foreign issuer should not validate")
	}
}

func TestValidateToken_UnsignedAlgRejected(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "motoshop",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ValidateToken(token, testSecret); err == nil {
		t.Error("alg=none token should not validate")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(1, "admin", "admin", testSecret, 1)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ValidateToken(token, "a-different-secret-entirely-111111"); err == nil {
		t.Error("token signed with another secret should not validate")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	if _, err := ValidateToken("not-a-token", testSecret); err == nil {
		t.Error("garbage should not validate")
	}
}

func TestCleanupExpiredTokens(t *testing.T) {
	db := newTestDB(t)
	if err := RevokeToken(db, "stale-jti", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	if err := RevokeToken(db, "live-jti", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	if n := CleanupExpiredTokens(db); n != 1 {
		t.Errorf("cleaned %d rows, want 1", n)
	}
	if IsRevoked(db, "stale-jti") {
		t.Error("expired revocation should be gone")
	}
	if !IsRevoked(db, "live-jti") {
		t.Error("live revocation should survive cleanup")
	}
}

func TestPendingTokenRoundTrip(t *testing.T) {
	token, err := GeneratePendingToken(9, testSecret)
	if err != nil {
		t.Fatalf("GeneratePendingToken: %v", err)
	}
	id, err := ValidatePendingToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidatePendingToken: %v", err)
	}
	if id != 9 {
		t.Errorf("user id = %d, want 9", id)
	}

	// A session token is not accepted where a pending token is expected.
	session, err := GenerateToken(9, "carlos", "staff", testSecret, 1)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ValidatePendingToken(session, testSecret); err == nil {
		t.Error("session token should not pass as a pending TOTP token")
	}
}
