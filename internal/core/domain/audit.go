package domain

import "time"

// AuthEventKind identifies an entry in the authentication audit trail.
type AuthEventKind string

const (
	AuthLoginSucceeded    AuthEventKind = "login_succeeded"
	AuthLoginFailed       AuthEventKind = "login_failed"
	AuthLockedOut         AuthEventKind = "locked_out"
	AuthTokenRefreshed    AuthEventKind = "token_refreshed"
	AuthLoggedOut         AuthEventKind = "logged_out"
	AuthPasswordChanged   AuthEventKind = "password_changed"
	AuthRoleChanged       AuthEventKind = "role_changed"
	AuthAccountDeleted    AuthEventKind = "account_deleted"
	AuthAccountRestored   AuthEventKind = "account_restored"
	AuthAccountRegistered AuthEventKind = "account_registered"
)

// AuthEvent is an audit record of an authentication-related action. Events
// are written asynchronously and never affect the outcome of the operation
// they describe.
type AuthEvent struct {
	AccountID string
	Username  string
	Kind      AuthEventKind
	Detail    string
	Timestamp time.Time
}
