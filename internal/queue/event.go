// Package queue defines message payloads exchanged over the message broker.
package queue

// AuthEventsQueue is the durable queue auth lifecycle events are published to.
const AuthEventsQueue = "auth.events"

// Event types.
const (
    EventUserRegistered      = "user.registered"
    EventUserLoggedIn        = "user.logged_in"
    EventUserLoggedOut       = "user.logged_out"
    EventUserUpdated         = "user.updated"
    EventUserDeleted         = "user.deleted"
    EventUserProfileUpdated  = "user.profile_updated"
    EventUserPasswordChanged = "user.password_changed"
)

// AuthEvent is published after an auth or account change has been committed.
// It never contains credentials or tokens.
type AuthEvent struct {
    Type       string `json:"type"`
    UserID     string `json:"user_id"`
    Email      string `json:"email,omitempty"`
    Role       string `json:"role,omitempty"`
    ActorID    string `json:"actor_id,omitempty"` // admin performing the change, if any
    OccurredAt string `json:"occurred_at"`        // RFC 3339, UTC
}
