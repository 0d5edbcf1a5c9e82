// Package auth verifies the signed join tokens that admit editing
// clients into a session.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification,
// regardless of the underlying cause.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the payload carried by a join token. The registered subject
// names the room the bearer may join.
type Claims struct {
	jwt.RegisteredClaims

	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	ProfileID   int64  `json:"profileId"`
}

// Verifier validates join tokens with a shared HMAC secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier builds a Verifier. The secret must not be empty.
func NewVerifier(secret []byte) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty secret")
	}
	return &Verifier{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// Verify parses and validates the token and checks that it grants access
// to the given room.
func (v *Verifier) Verify(token, room string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject != room {
		return nil, fmt.Errorf("%w: token not issued for room %q", ErrInvalidToken, room)
	}
	return claims, nil
}

// Sign issues a join token for the given room and profile, valid for ttl.
func Sign(secret []byte, room string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.Subject = room
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
