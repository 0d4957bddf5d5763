package jwt

import (
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func newTestAuthenticator(t *testing.T, cfg Config, clock *fakeClock) *Authenticator {
	t.Helper()
	if cfg.SecretKey == "" {
		cfg.SecretKey = "test-secret-key"
	}
	if cfg.AccessTokenDuration == 0 {
		cfg.AccessTokenDuration = 30 * time.Minute
	}
	a, err := NewAuthenticator(cfg, WithClock(clock.Now))
	require.NoError(t, err)
	return a
}

func TestAuthenticator_IssueAndVerify(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	a := newTestAuthenticator(t, Config{}, clock)

	token, err := a.IssueToken("admin")
	require.NoError(t, err)

	subject, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)
}

func TestAuthenticator_ExpiryBoundary(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ttl := 30 * time.Minute
	clock := &fakeClock{now: issuedAt}
	a := newTestAuthenticator(t, Config{AccessTokenDuration: ttl}, clock)

	token, err := a.IssueTokenWithTTL("admin", ttl)
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{"right after issue", issuedAt, false},
		{"just before expiry", issuedAt.Add(ttl - time.Second), false},
		{"at expiry", issuedAt.Add(ttl), true},
		{"just after expiry", issuedAt.Add(ttl + time.Second), true},
		{"long after expiry", issuedAt.Add(24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.now = tt.at
			subject, err := a.VerifyToken(token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				assert.Empty(t, subject)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "admin", subject)
		})
	}
}

func TestAuthenticator_RejectsOtherSecret(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	issuer := newTestAuthenticator(t, Config{SecretKey: "secret-one"}, clock)
	verifier := newTestAuthenticator(t, Config{SecretKey: "secret-two"}, clock)

	token, err := issuer.IssueToken("admin")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticator_RejectsOtherAlgorithm(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	issuer := newTestAuthenticator(t, Config{Algorithm: AlgorithmHS512}, clock)
	verifier := newTestAuthenticator(t, Config{Algorithm: AlgorithmHS256}, clock)

	token, err := issuer.IssueToken("admin")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticator_RejectsUnsignedToken(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	a := newTestAuthenticator(t, Config{}, clock)

	claims := gojwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: gojwt.NewNumericDate(clock.now.Add(time.Hour)),
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, claims).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = a.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticator_RejectsMissingClaims(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	a := newTestAuthenticator(t, Config{}, clock)
	secret := []byte("test-secret-key")

	t.Run("missing subject", func(t *testing.T) {
		claims := gojwt.RegisteredClaims{ExpiresAt: gojwt.NewNumericDate(clock.now.Add(time.Hour))}
		token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(secret)
		require.NoError(t, err)

		_, err = a.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := gojwt.RegisteredClaims{Subject: "admin"}
		token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(secret)
		require.NoError(t, err)

		_, err = a.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAuthenticator_RejectsMalformedToken(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	a := newTestAuthenticator(t, Config{}, clock)

	valid, err := a.IssueToken("admin")
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)

	for name, token := range map[string]string{
		"empty":            "",
		"garbage":          "not-a-token",
		"two segments":     parts[0] + "." + parts[1],
		"tampered payload": parts[0] + "." + parts[1] + "x." + parts[2],
		"tampered sig":     parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2])),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := a.VerifyToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestAuthenticator_TokensDifferPerIssue(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	a := newTestAuthenticator(t, Config{}, clock)

	first, err := a.IssueToken("admin")
	require.NoError(t, err)
	second, err := a.IssueToken("admin")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestNewAuthenticator_Config(t *testing.T) {
	_, err := NewAuthenticator(Config{AccessTokenDuration: time.Minute})
	assert.Error(t, err, "empty secret")

	_, err = NewAuthenticator(Config{SecretKey: "s"})
	assert.Error(t, err, "zero duration")

	_, err = NewAuthenticator(Config{SecretKey: "s", Algorithm: "RS256", AccessTokenDuration: time.Minute})
	assert.Error(t, err, "non-HMAC algorithm")

	a, err := NewAuthenticator(Config{SecretKey: "s", AccessTokenDuration: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, a.TTL())
}

func TestAuthenticator_IssueEmptySubject(t *testing.T) {
	a := newTestAuthenticator(t, Config{}, &fakeClock{now: time.Now()})

	_, err := a.IssueToken("")
	assert.Error(t, err)
}
