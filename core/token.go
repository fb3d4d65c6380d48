package core

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the signed claims carried by an issued token.
type TokenClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenIdentity is the verified (subject, role) pair extracted from a token.
type TokenIdentity struct {
	Email string
	Role  string
}

// TokenIssuer creates and verifies HS256-signed bearer tokens. The signing
// key is process-wide configuration; rotating it invalidates every token
// issued before the rotation.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl}
}

// Issue signs a token asserting (subject=email, role) valid for the issuer TTL.
func (i *TokenIssuer) Issue(email, role string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Role: role,
	})
	return token.SignedString(i.secret)
}

// Verify checks signature and expiry. Any malformed, expired or mis-signed
// token yields ErrTokenInvalid; nothing is partially trusted.
func (i *TokenIssuer) Verify(tokenString string) (TokenIdentity, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return TokenIdentity{}, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return TokenIdentity{}, ErrTokenInvalid
	}
	return TokenIdentity{Email: claims.Subject, Role: claims.Role}, nil
}
