package utils_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/taskflow/internal/model"
	"github.com/iliyamo/taskflow/internal/utils"
)

var alice = model.Principal{ID: "5f0c6c1e-8a57-4c5e-9a3f-1b2c3d4e5f60", Email: "alice@x.io", Role: model.RoleMember}

func newIssuer(t *testing.T, now func() time.Time) *utils.TokenIssuer {
	t.Helper()
	iss, err := utils.NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	if now != nil {
		iss.WithClock(now)
	}
	return iss
}

func TestNewTokenIssuer_RejectsBadKeyMaterial(t *testing.T) {
	tests := []struct {
		name            string
		access, refresh string
		accessTTL       time.Duration
	}{
		{name: "empty secret", access: "", refresh: "r", accessTTL: time.Minute},
		{name: "shared secret", access: "same", refresh: "same", accessTTL: time.Minute},
		{name: "zero ttl", access: "a", refresh: "r", accessTTL: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := utils.NewTokenIssuer(tt.access, tt.refresh, tt.accessTTL, time.Hour)
			assert.Error(t, err)
		})
	}
}

func TestAccessToken_RoundTrip(t *testing.T) {
	iss := newIssuer(t, nil)

	tok, err := iss.IssueAccessToken(alice)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.ExpiresAt, 2*time.Second)

	p, err := iss.VerifyAccessToken(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, alice, p)
}

func TestVerifyAccessToken_ExpiredVersusInvalid(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt
	iss := newIssuer(t, func() time.Time { return now })

	tok, err := iss.IssueAccessToken(alice)
	require.NoError(t, err)

	now = issuedAt.Add(16 * time.Minute)
	_, err = iss.VerifyAccessToken(tok.Token)
	assert.ErrorIs(t, err, utils.ErrTokenExpired)

	// a tampered token stays invalid even after expiry
	tampered := escalate(t, tok.Token)
	_, err = iss.VerifyAccessToken(tampered)
	assert.ErrorIs(t, err, utils.ErrTokenInvalid)
	assert.NotErrorIs(t, err, utils.ErrTokenExpired)
}

func TestVerifyAccessToken_Invalid(t *testing.T) {
	iss := newIssuer(t, nil)
	refresh, err := iss.IssueRefreshToken(alice)
	require.NoError(t, err)
	fresh, err := iss.IssueAccessToken(alice)
	require.NoError(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, utils.Claims{
		Email: alice.Email,
		Role:  string(alice.Role),
		Kind:  utils.KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   alice.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, utils.Claims{
		Kind:             utils.KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: alice.ID, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":           "not-a-jwt",
		"refresh as access": refresh.Token,
		"wrong secret":      foreign,
		"alg none":          unsigned,
		"escalated role":    escalate(t, fresh.Token),
		"empty":             "",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := iss.VerifyAccessToken(raw)
			assert.ErrorIs(t, err, utils.ErrTokenInvalid)
		})
	}
}

func TestVerifyRefreshToken(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt
	iss := newIssuer(t, func() time.Time { return now })

	refresh, err := iss.IssueRefreshToken(alice)
	require.NoError(t, err)
	access, err := iss.IssueAccessToken(alice)
	require.NoError(t, err)

	p, err := iss.VerifyRefreshToken(refresh.Token)
	require.NoError(t, err)
	assert.Equal(t, alice, p)

	_, err = iss.VerifyRefreshToken(access.Token)
	assert.ErrorIs(t, err, utils.ErrTokenInvalid, "access token must not pass as refresh token")

	now = issuedAt.Add(8 * 24 * time.Hour)
	_, err = iss.VerifyRefreshToken(refresh.Token)
	assert.ErrorIs(t, err, utils.ErrTokenInvalid)
	assert.NotErrorIs(t, err, utils.ErrTokenExpired)
}

func TestIssue_DistinctTokens(t *testing.T) {
	iss := newIssuer(t, func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) })

	a, err := iss.IssueRefreshToken(alice)
	require.NoError(t, err)
	b, err := iss.IssueRefreshToken(alice)
	require.NoError(t, err)

	assert.NotEqual(t, a.Token, b.Token)
	assert.NotEqual(t, utils.HashToken(a.Token), utils.HashToken(b.Token))
}

func TestHashToken(t *testing.T) {
	h := utils.HashToken("abc")
	assert.Len(t, h, 64)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", h)
}

// escalate rewrites the role claim to admin and keeps the old signature.
func escalate(t *testing.T, raw string) string {
	t.Helper()
	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	forged := strings.Replace(string(payload), `"role":"member"`, `"role":"admin"`, 1)
	require.NotEqual(t, string(payload), forged)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))
	return strings.Join(parts, ".")
}
