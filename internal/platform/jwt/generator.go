package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload carried by every bearer token.
type Claims struct {
	UserID uint `json:"id"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies bearer tokens with a process-wide HMAC secret.
//
// Tokens carry no expiry and there is no per-token revocation: a token stays
// valid until the secret changes, including across password changes.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer creates an Issuer for the given signing secret.
func NewIssuer(secret string) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue creates a signed token for the given user.
func (i *Issuer) Issue(userID uint) (string, error) {
	if userID == 0 {
		return "", errors.New("user id is required")
	}
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(i.now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and structure of tokenStr and returns the user id it carries.
// Any failure yields ErrInvalidToken; a partially valid token never produces an id.
func (i *Issuer) Verify(tokenStr string) (uint, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}
