package utils

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// CertificateClaims is the payload of a certificate verification link.
type CertificateClaims struct {
	Serial string `json:"serial"`
	UserID uint   `json:"user_id"`
	jwt.RegisteredClaims
}

// SignCertificateToken issues a non-expiring HS256 token for a certificate serial.
func SignCertificateToken(secret []byte, serial string, userID uint) (string, error) {
	claims := CertificateClaims{
		Serial: serial,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: serial,
			Issuer:  "tutor-marketplace",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseCertificateToken validates a verification token and returns its claims.
func ParseCertificateToken(secret []byte, tokenStr string) (*CertificateClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &CertificateClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*CertificateClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
