package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/salon-booking/internal/model"
	"github.com/iliyamo/salon-booking/internal/observability/metrics"
	"github.com/iliyamo/salon-booking/internal/queue"
	"github.com/iliyamo/salon-booking/internal/utils"
)

type InviteStaffInput struct {
	Email       string
	Role        string
	Name        string
	Permissions map[string]any
	RedirectTo  string
}

// StaffInvitation lets an authenticated member invite staff into their own
// organization.
type StaffInvitation struct {
	auth   IdentityProvider
	events EventPublisher
	log    zerolog.Logger
}

func NewStaffInvitation(auth IdentityProvider, events EventPublisher, log zerolog.Logger) *StaffInvitation {
	return &StaffInvitation{auth: auth, events: events, log: log.With().Str("component", "staff_invitation").Logger()}
}

// Invite issues an invitation on behalf of the identity owning bearer and
// returns the pending identity.
func (s *StaffInvitation) Invite(ctx context.Context, bearer string, in InviteStaffInput) (*model.Identity, error) {
	invitee, err := s.invite(ctx, bearer, in)
	if err != nil {
		metrics.ObserveStaffInvitation("failed")
		return nil, err
	}
	metrics.ObserveStaffInvitation("ok")
	return invitee, nil
}

func (s *StaffInvitation) invite(ctx context.Context, bearer string, in InviteStaffInput) (*model.Identity, error) {
	if strings.TrimSpace(bearer) == "" {
		return nil, ErrUnauthorized
	}
	inviter, err := s.auth.GetUserByToken(ctx, bearer)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if blank(in.Email) || blank(in.Role) || blank(in.Name) {
		return nil, ErrRequiredFields
	}
	if inviter.OrganizationID == "" {
		return nil, ErrInviterOrganizationNotFound
	}
	role := strings.ToUpper(strings.TrimSpace(in.Role))
	if !model.ValidRole(role) || role == model.RoleOwner {
		return nil, ErrInvalidRole
	}

	perms := in.Permissions
	if perms == nil {
		perms = map[string]any{}
	}
	invitee, err := s.auth.InviteUserByEmail(ctx, in.Email, InviteParams{
		Metadata: map[string]any{
			model.MetaAdminMarker:    true,
			model.MetaRole:           role,
			model.MetaName:           in.Name,
			model.MetaOrganizationID: inviter.OrganizationID,
			model.MetaPermissions:    perms,
			model.MetaAutoApproved:   true,
			model.MetaInvitedBy:      inviter.ID,
		},
		RedirectTo: in.RedirectTo,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("inviter_id", inviter.ID).Str("identity_id", invitee.ID).
		Str("organization_id", inviter.OrganizationID).Msg("staff invited")
	if s.events != nil {
		ev := queue.StaffInvitedEvent{
			Type:           queue.TypeStaffInvited,
			IdentityID:     invitee.ID,
			OrganizationID: inviter.OrganizationID,
			Email:          utils.NormalizeEmail(in.Email),
			Role:           role,
			InvitedBy:      inviter.ID,
			RedirectTo:     in.RedirectTo,
			OccurredAt:     time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.events.Publish(ctx, queue.EventsQueue, ev); err != nil {
			metrics.ObserveEventPublished(ev.Type, "error")
			s.log.Warn().Err(err).Msg("publish event failed")
		} else {
			metrics.ObserveEventPublished(ev.Type, "ok")
		}
	}
	return invitee, nil
}
