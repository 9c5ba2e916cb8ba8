package auth

import (
	stderrors "errors"
	"fmt"
	"time"

	"dreamforge/internal/errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the session token payload
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. now may be nil.
func NewTokenIssuer(secret, issuer string, ttl time.Duration, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: now}
}

// Issue returns a signed token for the user and its expiry
func (t *TokenIssuer) Issue(userID, email string) (string, time.Time, error) {
	issuedAt := t.now()
	expiresAt := issuedAt.Add(t.ttl)

	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, errors.NewInternalError("TOKEN_SIGN_FAILED", "failed to sign session token", err)
	}
	return signed, expiresAt, nil
}

// Verify parses a token and returns the principal it names
func (t *TokenIssuer) Verify(token string) (Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		msg := "invalid session token"
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			msg = "session expired"
		}
		return Principal{}, errors.NewUnauthorizedError(errors.ErrCodeInvalidSession, msg, err)
	}

	if claims.Subject == "" {
		return Principal{}, errors.NewUnauthorizedError(errors.ErrCodeInvalidSession, "invalid session token", nil)
	}

	return Principal{UserID: claims.Subject, Email: claims.Email}, nil
}
