package jwt

import (
	"context"
	"errors"
	"time"

	libjwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrKeyTooShort   = errors.New("jwt: HS512 key must be at least 64 bytes")
	ErrTokenExpired  = errors.New("jwt: token expired")
	ErrTokenInvalid  = errors.New("jwt: token invalid")
	ErrUnexpectedAlg = errors.New("jwt: unexpected signing algorithm")
)

// JWT signs session tokens and validates them.
type JWT interface {
	Generate(userID int64, email string) (Token, error)
	Verify(raw string) (Claims, error)
}

// Token is a signed session token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Claims is the session payload. UserID travels as a string so JavaScript
// clients do not lose precision on snowflake ids.
type Claims struct {
	libjwt.RegisteredClaims
	UserID    int64  `json:"uid,string"`
	UserEmail string `json:"email"`
}

type authKey struct{}

// SetAuth attaches verified claims to ctx.
func SetAuth(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, authKey{}, c)
}

// GetAuth returns the claims attached by SetAuth, or nil for anonymous requests.
func GetAuth(ctx context.Context) *Claims {
	c, ok := ctx.Value(authKey{}).(Claims)
	if !ok {
		return nil
	}
	return &c
}
