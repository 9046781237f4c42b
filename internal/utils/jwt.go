package utils // package utils provides token issuing and password hashing helpers

import (
    "crypto/sha256" // SHA-256 hashing for refresh tokens stored in the ledger
    "encoding/hex"  // hex encoding of the hash
    "errors"        // sentinel verification errors
    "fmt"           // error wrapping
    "time"          // expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
    "github.com/google/uuid"       // unique token ids

    "github.com/iliyamo/taskflow/internal/model"
)

// Verification failures.  ErrTokenExpired is only returned for tokens whose
// signature checked out, so callers can tell a stale session apart from a
// forged or garbled token.
var (
    ErrTokenExpired = errors.New("token expired")
    ErrTokenInvalid = errors.New("invalid token")
)

// TokenKind separates the two token classes inside the claims so that one
// can never be replayed as the other even if the secrets were shared.
type TokenKind string

const (
    KindAccess  TokenKind = "access"
    KindRefresh TokenKind = "refresh"
)

// Claims is the JWT payload of both token classes.  The subject holds the
// user id.
type Claims struct {
    Email string    `json:"email"`
    Role  string    `json:"role"`
    Kind  TokenKind `json:"typ"`
    jwt.RegisteredClaims
}

// SignedToken is a serialized JWT plus its expiry.
type SignedToken struct {
    Token     string
    ExpiresAt time.Time
}

// TokenIssuer mints and verifies access and refresh tokens.  Each class has
// its own HMAC secret and lifetime.
type TokenIssuer struct {
    accessSecret  []byte
    refreshSecret []byte
    accessTTL     time.Duration
    refreshTTL    time.Duration
    now           func() time.Time
}

// NewTokenIssuer validates the key material once at startup; a
// misconfigured issuer is a fatal configuration error, not a per-request one.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
    switch {
    case accessSecret == "" || refreshSecret == "":
        return nil, errors.New("token secrets must not be empty")
    case accessSecret == refreshSecret:
        return nil, errors.New("access and refresh secrets must differ")
    case accessTTL <= 0 || refreshTTL <= 0:
        return nil, errors.New("token lifetimes must be positive")
    }
    return &TokenIssuer{
        accessSecret:  []byte(accessSecret),
        refreshSecret: []byte(refreshSecret),
        accessTTL:     accessTTL,
        refreshTTL:    refreshTTL,
        now:           time.Now,
    }, nil
}

// WithClock replaces the time source used for issuing and verifying.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
    i.now = now
    return i
}

// IssueAccessToken mints a short-lived access token for p.
func (i *TokenIssuer) IssueAccessToken(p model.Principal) (SignedToken, error) {
    return i.issue(p, KindAccess, i.accessSecret, i.accessTTL)
}

// IssueRefreshToken mints a long-lived refresh token for p.
func (i *TokenIssuer) IssueRefreshToken(p model.Principal) (SignedToken, error) {
    return i.issue(p, KindRefresh, i.refreshSecret, i.refreshTTL)
}

// VerifyAccessToken checks signature, then expiry, and returns the embedded
// principal.  It fails with ErrTokenExpired or ErrTokenInvalid.
func (i *TokenIssuer) VerifyAccessToken(raw string) (model.Principal, error) {
    return i.verify(raw, KindAccess, i.accessSecret)
}

// VerifyRefreshToken is the refresh-class counterpart of VerifyAccessToken.
// Every failure, expiry included, is reported as ErrTokenInvalid.
func (i *TokenIssuer) VerifyRefreshToken(raw string) (model.Principal, error) {
    p, err := i.verify(raw, KindRefresh, i.refreshSecret)
    if errors.Is(err, ErrTokenExpired) {
        return model.Principal{}, fmt.Errorf("%w: refresh token expired", ErrTokenInvalid)
    }
    return p, err
}

func (i *TokenIssuer) issue(p model.Principal, kind TokenKind, secret []byte, ttl time.Duration) (SignedToken, error) {
    now := i.now().UTC()
    exp := now.Add(ttl)
    claims := Claims{
        Email: p.Email,
        Role:  string(p.Role),
        Kind:  kind,
        RegisteredClaims: jwt.RegisteredClaims{
            ID:        uuid.NewString(), // every mint yields a distinct token
            Subject:   p.ID,
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
    if err != nil {
        return SignedToken{}, fmt.Errorf("sign %s token: %w", kind, err)
    }
    // the serialized exp claim has second precision
    return SignedToken{Token: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (i *TokenIssuer) verify(raw string, kind TokenKind, secret []byte) (model.Principal, error) {
    var claims Claims
    _, err := jwt.ParseWithClaims(raw, &claims,
        func(t *jwt.Token) (interface{}, error) { return secret, nil },
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
        jwt.WithExpirationRequired(),
        jwt.WithTimeFunc(i.now),
    )
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return model.Principal{}, ErrTokenExpired
        }
        return model.Principal{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
    }
    if claims.Kind != kind {
        return model.Principal{}, fmt.Errorf("%w: expected %s token, got %q", ErrTokenInvalid, kind, claims.Kind)
    }
    role, ok := model.ParseRole(claims.Role)
    if !ok || claims.Subject == "" {
        return model.Principal{}, fmt.Errorf("%w: incomplete claims", ErrTokenInvalid)
    }
    return model.Principal{ID: claims.Subject, Email: claims.Email, Role: role}, nil
}

// HashToken returns the SHA-256 hash of a raw refresh token as a hex
// string.  Only this hash is stored in the ledger, so a leaked table cannot
// be replayed against the refresh endpoint.
func HashToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}
