package domain

import "time"

// AuthEventType classifies an entry in the authentication audit trail.
type AuthEventType string

const (
	EventSignup            AuthEventType = "signup"
	EventLogin             AuthEventType = "login"
	EventLoginFailed       AuthEventType = "login_failed"
	EventFederatedLogin    AuthEventType = "federated_login"
	EventFederatedConflict AuthEventType = "federated_conflict"
	EventRolesUpdated      AuthEventType = "roles_updated"
)

// AuthEvent is one audit record. AccountID is zero when the attempt never
// resolved to an account.
type AuthEvent struct {
	ID         string        `json:"id" bson:"_id"`
	Type       AuthEventType `json:"type" bson:"type"`
	AccountID  int64         `json:"account_id,omitempty" bson:"account_id,omitempty"`
	Handle     string        `json:"username,omitempty" bson:"username,omitempty"`
	Provider   Provider      `json:"provider,omitempty" bson:"provider,omitempty"`
	Detail     string        `json:"detail,omitempty" bson:"detail,omitempty"`
	OccurredAt time.Time     `json:"occurred_at" bson:"occurred_at"`
}
