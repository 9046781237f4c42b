package model

import (
    "strings"
    "time"
)

// Role is the authorization level of a user.  Only two values exist.
type Role string

const (
    RoleAdmin  Role = "admin"
    RoleMember Role = "member"
)

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
    switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
    case RoleAdmin, RoleMember:
        return r, true
    }
    return "", false
}

// User represents an application user record as stored in the
// `users` table.  The password hash never leaves the server: handlers
// convert a User into a response DTO that has no hash field.
//
// Fields:
//  ID           – UUID primary key.
//  Name         – display name, defaults to the email local part.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – admin or member.
//  IsActive     – inactive users cannot log in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           string    // users.id
    Name         string    // users.name
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         Role      // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// Principal returns the identity carried in tokens issued for u.
func (u User) Principal() Principal {
    return Principal{ID: u.ID, Email: u.Email, Role: u.Role}
}

// NormalizeEmail trims and lower-cases an email so uniqueness checks are
// case-insensitive.
func NormalizeEmail(email string) string {
    return strings.ToLower(strings.TrimSpace(email))
}

// DefaultName derives a display name from the local part of an email.
func DefaultName(email string) string {
    local, _, _ := strings.Cut(email, "@")
    return local
}

// RefreshToken models an entry in the `refresh_tokens` table, the ledger of
// currently valid refresh tokens.  The raw token is never stored; only its
// SHA-256 hash.
type RefreshToken struct {
    ID        uint64    // refresh_tokens.id
    UserID    string    // refresh_tokens.user_id
    TokenHash string    // refresh_tokens.token_hash
    ExpiresAt time.Time // refresh_tokens.expires_at
    CreatedAt time.Time // refresh_tokens.created_at
}

// UserUpdate lists the admin-editable fields of a user.  Nil fields are
// left unchanged.
type UserUpdate struct {
    Role     *Role
    IsActive *bool
}

// Empty reports whether the update carries no change.
func (u UserUpdate) Empty() bool { return u.Role == nil && u.IsActive == nil }
