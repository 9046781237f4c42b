package model

// Principal is the authenticated identity attached to a request after its
// access token has been verified.  Its role is the one embedded in the token
// at issuance time.
type Principal struct {
    ID    string
    Email string
    Role  Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
