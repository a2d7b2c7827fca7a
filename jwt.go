package main

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	JWTSecretEnv = "JWT_SECRET_KEY"
	JWTIssuer    = "blog_api"

	// tokenIDBytes is the size of the random jti; 32 bytes gives 256 bits.
	tokenIDBytes = 32
)

// NewSessionToken mints a signed session token for user. Tokens have no
// expiry: validity is decided by membership in the document's token list.
func NewSessionToken(user User, secret []byte) (string, error) {
	jti := make([]byte, tokenIDBytes)
	if _, err := rand.Read(jti); err != nil {
		return "", err
	}

	claims := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Issuer:   JWTIssuer,
		Subject:  string(user.ID),
		IssuedAt: jwt.NewNumericDate(time.Now()),
		ID:       hex.EncodeToString(jti),
	})

	return claims.SignedString(secret)
}

// VerifySessionToken reports whether token is a session token signed with
// secret and returns its claims.
func VerifySessionToken(token string, secret []byte) (*jwt.RegisteredClaims, bool) {
	claims := &jwt.RegisteredClaims{}

	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, false
	}

	return claims, tkn.Valid
}
