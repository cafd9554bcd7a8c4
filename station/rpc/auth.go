package rpc

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// gasStationClaims is the JWT claim set minted for operator-issued
// bearer tokens, as an alternative to a single static shared secret.
type gasStationClaims struct {
	jwt.RegisteredClaims
	Sponsor string `json:"sponsor,omitempty"`
}

// IssueJWT mints a bearer token for subject, signed with secret and
// valid for ttl. Used by the admin CLI to hand operators a scoped token
// instead of distributing the static shared secret.
func IssueJWT(secret []byte, subject string, ttl time.Duration) (string, error) {
	claims := gasStationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// verifyJWT checks tokenString against secret, returning the subject on
// success.
func verifyJWT(secret []byte, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &gasStationClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*gasStationClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	return claims.Subject, nil
}
