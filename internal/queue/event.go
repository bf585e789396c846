// Package queue defines message payloads exchanged over the message broker
// and the background consumers that process them.
package queue

// Queue names. Both are durable.
const (
	EventsQueue        = "provisioning.events"
	CompensationsQueue = "provisioning.compensations"
)

// Event types carried on EventsQueue.
const (
	TypeOwnerRegistered = "owner.registered"
	TypeStaffInvited    = "staff.invited"
)

// OwnerRegisteredEvent is published after an owner registration saga
// completes. It contains enough information for downstream consumers to
// log, notify, or trigger onboarding without querying the primary database.
type OwnerRegisteredEvent struct {
	Type             string   `json:"type"`
	IdentityID       string   `json:"identity_id"`
	OrganizationID   string   `json:"organization_id"`
	OrganizationName string   `json:"organization_name"`
	Email            string   `json:"email"`
	Industries       []string `json:"industries,omitempty"`
	OccurredAt       string   `json:"occurred_at"`
}

// StaffInvitedEvent is published once an invitation has been issued.
type StaffInvitedEvent struct {
	Type           string `json:"type"`
	IdentityID     string `json:"identity_id"`
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	InvitedBy      string `json:"invited_by"`
	RedirectTo     string `json:"redirect_to,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}

// Compensation actions. Each one is idempotent: replaying it against an
// already-cleaned row succeeds.
const (
	ActionDeleteIdentity     = "delete_identity"
	ActionDeleteOrganization = "delete_organization"
	ActionDetachIdentity     = "detach_identity"
)

// CompensationCommand is a rollback action that failed inline and is
// retried from CompensationsQueue. Attempt starts at 1 for the inline try.
type CompensationCommand struct {
	SagaID      string `json:"saga_id"`
	Step        string `json:"step"`
	Action      string `json:"action"`
	TargetID    string `json:"target_id"`
	Attempt     int    `json:"attempt"`
	LastError   string `json:"last_error,omitempty"`
	FirstFailed string `json:"first_failed_at"`
}
