package model

import "time"

// Invitation statuses.
const (
	InvitationPending  = "PENDING"
	InvitationAccepted = "ACCEPTED"
)

// Invitation is a pending staff invite.  The raw token is only returned to
// the caller that created it; the table keeps its SHA‑256 hash.  Metadata
// carries everything needed to materialize the invited identity's profile
// and permissions on acceptance.
type Invitation struct {
	ID             string
	IdentityID     string
	Email          string
	TokenHash      string
	Role           string
	Name           string
	OrganizationID string
	InvitedBy      string
	Metadata       map[string]any
	RedirectTo     string
	Status         string
	ExpiresAt      time.Time
	CreatedAt      time.Time
	AcceptedAt     *time.Time
}
