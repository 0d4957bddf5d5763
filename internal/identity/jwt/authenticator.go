// Package jwt issues and verifies HMAC-signed access tokens.
package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for every verification failure. Callers cannot
// tell a bad signature from an expired or malformed token.
var ErrInvalidToken = errors.New("invalid or expired token")

// Supported signing algorithms.
const (
	AlgorithmHS256 = "HS256"
	AlgorithmHS384 = "HS384"
	AlgorithmHS512 = "HS512"
)

// Config contains token settings.
type Config struct {
	SecretKey           string
	Algorithm           string
	AccessTokenDuration time.Duration
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithClock replaces time.Now for issuing and verifying tokens.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

// Authenticator is a stateless token service. Issued tokens are never stored.
type Authenticator struct {
	secret []byte
	method gojwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
	parser *gojwt.Parser
}

// NewAuthenticator creates an Authenticator from cfg.
func NewAuthenticator(cfg Config, opts ...Option) (*Authenticator, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("jwt secret key is empty")
	}
	if cfg.AccessTokenDuration <= 0 {
		return nil, errors.New("jwt access token duration must be positive")
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = AlgorithmHS256
	}
	method, err := hmacMethod(alg)
	if err != nil {
		return nil, err
	}

	a := &Authenticator{
		secret: []byte(cfg.SecretKey),
		method: method,
		ttl:    cfg.AccessTokenDuration,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.parser = gojwt.NewParser(
		gojwt.WithValidMethods([]string{method.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(a.now),
	)

	return a, nil
}

func hmacMethod(alg string) (gojwt.SigningMethod, error) {
	switch alg {
	case AlgorithmHS256:
		return gojwt.SigningMethodHS256, nil
	case AlgorithmHS384:
		return gojwt.SigningMethodHS384, nil
	case AlgorithmHS512:
		return gojwt.SigningMethodHS512, nil
	}
	return nil, fmt.Errorf("unsupported jwt algorithm %q", alg)
}

// TTL returns the default token lifetime.
func (a *Authenticator) TTL() time.Duration {
	return a.ttl
}

// IssueToken signs a token for subject using the configured lifetime.
func (a *Authenticator) IssueToken(subject string) (string, error) {
	return a.IssueTokenWithTTL(subject, a.ttl)
}

// IssueTokenWithTTL signs a token for subject that expires ttl from now.
func (a *Authenticator) IssueTokenWithTTL(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is empty")
	}

	now := a.now()
	claims := gojwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  gojwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	signed, err := gojwt.NewWithClaims(a.method, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks structure, signature and expiry and returns the subject.
func (a *Authenticator) VerifyToken(token string) (string, error) {
	claims := &gojwt.RegisteredClaims{}
	parsed, err := a.parser.ParseWithClaims(token, claims, func(*gojwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
