package auth

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/skip2/go-qrcode"
)

const pendingSubject = "totp_pending"

// GenerateTOTPSecret creates a fresh TOTP key for the user and renders
// its provisioning URI as a QR code, returned as a data URI the browser
// can show directly.
func GenerateTOTPSecret(username, issuer string) (*otp.Key, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: username,
		SecretSize:  20,
		Digits:      otp.DigitsSix,
		Period:      30,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, "", fmt.Errorf("generate totp key: %w", err)
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return nil, "", fmt.Errorf("render totp qr code: %w", err)
	}
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	return key, dataURI, nil
}

// ValidateTOTPCode checks a six-digit code against the stored secret.
func ValidateTOTPCode(code, secret string) bool {
	return totp.Validate(code, secret)
}

// PendingTOTPClaims is the short-lived token handed out after a correct
// password when the account still owes a TOTP code. It carries no role,
// so it opens no door other than the second login step.
type PendingTOTPClaims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

func GeneratePendingToken(userID int, secret string) (string, error) {
	now := time.Now()
	claims := PendingTOTPClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   pendingSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign pending token: %w", err)
	}
	return signed, nil
}

// ValidatePendingToken verifies a pending token and returns the user it
// was issued for. The subject pin keeps a full session token from being
// replayed into the TOTP step and vice versa.
func ValidatePendingToken(tokenStr, secret string) (int, error) {
	claims := &PendingTOTPClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithSubject(pendingSubject),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, fmt.Errorf("invalid pending token: %w", err)
	}
	return claims.UserID, nil
}
