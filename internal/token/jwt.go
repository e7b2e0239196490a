package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: malformed input,
// signature mismatch and expired tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the payload carried by an access token. Roles is a slice so
// that future role sets fit without changing the token layout; today it
// always holds a single "USER" entry.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Service signs and verifies access tokens with a shared HMAC-SHA256
// secret. The secret and TTL come from configuration, are set once at
// startup and never change at runtime.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService builds a token service. expirationInMinutes may be
// negative, which yields tokens that are already expired; tests use this
// to exercise expiry handling.
func NewService(secret string, expirationInMinutes int) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    time.Duration(expirationInMinutes) * time.Minute,
	}
}

// Generate issues a signed token for the given username with
// subject=username, issued-at=now and expiry=now+TTL.
func (s *Service) Generate(username string) (string, error) {
	now := time.Now()

	claims := Claims{
		Roles: []string{"USER"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses the token, checks the signature against the configured
// secret and rejects tokens whose expiry is not in the future.
func (s *Service) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ExtractUsername returns the subject claim. Callers must check validity
// first; the subject of an unverified token carries no authority.
func (s *Service) ExtractUsername(tokenStr string) (string, error) {
	claims, err := s.Validate(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsValid reports whether the token verifies. It never returns an error:
// malformed input, a bad signature and an elapsed expiry all yield false.
func (s *Service) IsValid(tokenStr string) bool {
	_, err := s.Validate(tokenStr)
	return err == nil
}
