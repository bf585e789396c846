package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/salon-booking/internal/model"
	"github.com/iliyamo/salon-booking/internal/observability/metrics"
	"github.com/iliyamo/salon-booking/internal/privilege"
	"github.com/iliyamo/salon-booking/internal/queue"
	"github.com/iliyamo/salon-booking/internal/repository"
	"github.com/iliyamo/salon-booking/internal/saga"
	"github.com/iliyamo/salon-booking/internal/utils"
)

// Registration states, in order.
const (
	StateIdentityResolved    = "IdentityResolved"
	StateOrganizationCreated = "OrganizationCreated"
	StateIndustriesLinked    = "IndustriesLinked"
	StateIdentityLinked      = "IdentityLinked"
	StatePermissionsGranted  = "PermissionsGranted"
)

type RegisterOwnerInput struct {
	Email            string
	Password         string
	Name             string
	OrganizationName string
	Phone            string
	IndustryNames    []string
	// IdentityID selects the upgrade path for an already verified identity.
	IdentityID string
}

type RegisterOwnerResult struct {
	IdentityID     string
	OrganizationID string
}

// OwnerRegistration provisions an owner identity together with its
// organization.
type OwnerRegistration struct {
	auth       IdentityProvider
	identities IdentityStore
	orgs       OrganizationStore
	industries IndustryStore
	perms      PermissionStore
	events     EventPublisher
	log        zerolog.Logger
}

func NewOwnerRegistration(auth IdentityProvider, identities IdentityStore, orgs OrganizationStore, industries IndustryStore, perms PermissionStore, events EventPublisher, log zerolog.Logger) *OwnerRegistration {
	return &OwnerRegistration{
		auth:       auth,
		identities: identities,
		orgs:       orgs,
		industries: industries,
		perms:      perms,
		events:     events,
		log:        log.With().Str("component", "owner_registration").Logger(),
	}
}

func (s *OwnerRegistration) Register(ctx context.Context, in RegisterOwnerInput) (*RegisterOwnerResult, error) {
	start := time.Now()
	res, err := s.register(ctx, in)
	result := "ok"
	if err != nil {
		result = "failed"
	}
	metrics.ObserveOwnerRegistration(result, time.Since(start))
	return res, err
}

func (s *OwnerRegistration) register(ctx context.Context, in RegisterOwnerInput) (*RegisterOwnerResult, error) {
	requested := normalizeIndustryNames(in.IndustryNames)
	if blank(in.Email) || blank(in.Password) || blank(in.Name) || blank(in.OrganizationName) || blank(in.Phone) || len(requested) == 0 {
		return nil, ErrRequiredFields
	}
	if !utils.ValidOrganizationName(in.OrganizationName) {
		return nil, ErrInvalidOrganizationName
	}
	email := utils.NormalizeEmail(in.Email)
	phone := utils.NormalizePhone(in.Phone)
	if phone == "" {
		return nil, ErrInvalidPhone
	}
	if err := s.precheck(ctx, in.OrganizationName, email, phone, in.IdentityID); err != nil {
		return nil, err
	}

	var (
		identityID string
		created    bool
		orgID      = uuid.NewString()
		industries []string
	)
	owner := map[string]any{model.MetaAdminMarker: true, model.MetaRole: model.RoleOwner}
	elevated := func(ctx context.Context) context.Context {
		return privilege.WithServiceRole(ctx, "owner registration")
	}

	steps := []saga.Step{
		{
			Name: StateIdentityResolved,
			Do: func(ctx context.Context) error {
				if in.IdentityID != "" {
					i, err := s.auth.UpdateUserByID(ctx, in.IdentityID, UpdateUserParams{
						Email: email, Password: in.Password, Name: in.Name,
						Role: model.RoleOwner, EmailConfirm: true, Metadata: owner,
					})
					if err != nil {
						var ae *AuthError
						if errors.As(err, &ae) && ae.Code == CodeUserNotFound {
							return ErrInvalidIdentity
						}
						return err
					}
					identityID = i.ID
					return nil
				}
				i, err := s.auth.CreateUser(ctx, CreateUserParams{
					Email: email, Password: in.Password, Name: in.Name, Phone: phone,
					Role: model.RoleOwner, EmailConfirm: true, Metadata: owner,
				})
				if err != nil {
					return err
				}
				identityID, created = i.ID, true
				return nil
			},
			Undo: func() *saga.Compensation {
				if !created {
					return nil
				}
				id := identityID
				return &saga.Compensation{Action: queue.ActionDeleteIdentity, Target: id, Run: func(ctx context.Context) error {
					return s.auth.DeleteUser(elevated(ctx), id)
				}}
			},
		},
		{
			Name: StateOrganizationCreated,
			Do: func(ctx context.Context) error {
				err := s.orgs.Create(ctx, &model.Organization{ID: orgID, Name: in.OrganizationName, Email: email, Phone: phone})
				if errors.Is(err, repository.ErrDuplicate) {
					return s.duplicateOrganization(ctx, in.OrganizationName)
				}
				return err
			},
			Undo: func() *saga.Compensation {
				return &saga.Compensation{Action: queue.ActionDeleteOrganization, Target: orgID, Run: func(ctx context.Context) error {
					return s.orgs.Delete(elevated(ctx), orgID)
				}}
			},
		},
		{
			Name: StateIndustriesLinked,
			Do: func(ctx context.Context) error {
				found, err := s.industries.FindByNames(ctx, requested)
				if err != nil {
					return fmt.Errorf("resolve industries: %w", err)
				}
				if len(found) == 0 || len(found) != len(requested) {
					return fmt.Errorf("%w: %s", ErrUnknownIndustry, strings.Join(missingIndustries(requested, found), ", "))
				}
				ids := make([]int64, 0, len(found))
				for _, f := range found {
					ids = append(ids, f.ID)
					industries = append(industries, f.Name)
				}
				return s.orgs.LinkIndustries(ctx, orgID, ids)
			},
		},
		{
			Name: StateIdentityLinked,
			Do: func(ctx context.Context) error {
				return s.identities.AttachOrganization(elevated(ctx), identityID, orgID, phone, false, model.NoAccess())
			},
			Undo: func() *saga.Compensation {
				id := identityID
				return &saga.Compensation{Action: queue.ActionDetachIdentity, Target: id, Run: func(ctx context.Context) error {
					return s.identities.DetachOrganization(elevated(ctx), id)
				}}
			},
		},
		{
			Name: StatePermissionsGranted,
			Do: func(ctx context.Context) error {
				return s.perms.Update(elevated(ctx), identityID, model.FullAccess())
			},
		},
	}

	sg := saga.New("owner_registration", steps, saga.WithLogger(s.log), saga.WithEscalation(s.escalate))
	if err := sg.Run(ctx); err != nil {
		if se, ok := saga.AsError(err); ok {
			return nil, se.Err
		}
		return nil, err
	}

	s.log.Info().Str("identity_id", identityID).Str("organization_id", orgID).Bool("new_identity", created).Msg("owner registered")
	s.publish(ctx, queue.OwnerRegisteredEvent{
		Type:             queue.TypeOwnerRegistered,
		IdentityID:       identityID,
		OrganizationID:   orgID,
		OrganizationName: in.OrganizationName,
		Email:            email,
		Industries:       industries,
		OccurredAt:       time.Now().UTC().Format(time.RFC3339),
	})
	return &RegisterOwnerResult{IdentityID: identityID, OrganizationID: orgID}, nil
}

// precheck runs the uniqueness checks in order; the first hit wins.
func (s *OwnerRegistration) precheck(ctx context.Context, orgName, email, phone, identityID string) error {
	type check struct {
		fn  func() (bool, error)
		err error
	}
	checks := []check{
		{func() (bool, error) { return s.orgs.ExistsByName(ctx, orgName) }, ErrOrganizationNameTaken},
		{func() (bool, error) { return s.orgs.ExistsByPhone(ctx, phone) }, ErrOrganizationPhoneTaken},
	}
	if identityID == "" {
		checks = append(checks,
			check{func() (bool, error) { return s.identities.ExistsByPhone(ctx, phone) }, ErrIdentityPhoneTaken},
			check{func() (bool, error) { return s.identities.ExistsByEmail(ctx, email, "") }, ErrEmailTaken},
		)
	} else {
		checks = append(checks,
			check{func() (bool, error) { return s.identities.ExistsByEmail(ctx, email, identityID) }, ErrEmailTaken},
		)
	}
	for _, c := range checks {
		taken, err := c.fn()
		if err != nil {
			return fmt.Errorf("precheck: %w", err)
		}
		if taken {
			return c.err
		}
	}
	return nil
}

// duplicateOrganization tells a lost name race from a lost phone race.
func (s *OwnerRegistration) duplicateOrganization(ctx context.Context, name string) error {
	if taken, err := s.orgs.ExistsByName(ctx, name); err == nil && !taken {
		return ErrOrganizationPhoneTaken
	}
	return ErrOrganizationNameTaken
}

// escalate enqueues a compensation that failed inline for retry.
func (s *OwnerRegistration) escalate(ctx context.Context, sagaID, step string, c saga.Compensation, err error) {
	cmd := queue.CompensationCommand{
		SagaID:      sagaID,
		Step:        step,
		Action:      c.Action,
		TargetID:    c.Target,
		Attempt:     1,
		LastError:   err.Error(),
		FirstFailed: time.Now().UTC().Format(time.RFC3339),
	}
	if s.events == nil {
		s.log.Error().Bool("alert", true).Str("action", c.Action).Str("target", c.Target).Msg("no queue configured; compensation dropped")
		return
	}
	if perr := s.events.Publish(ctx, queue.CompensationsQueue, cmd); perr != nil {
		s.log.Error().Bool("alert", true).Err(perr).Str("action", c.Action).Str("target", c.Target).Msg("could not enqueue compensation")
		return
	}
	metrics.ObserveCompensationCommand(c.Action, "enqueued")
}

func (s *OwnerRegistration) publish(ctx context.Context, ev queue.OwnerRegisteredEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, queue.EventsQueue, ev); err != nil {
		metrics.ObserveEventPublished(ev.Type, "error")
		s.log.Warn().Err(err).Str("type", ev.Type).Msg("publish event failed")
		return
	}
	metrics.ObserveEventPublished(ev.Type, "ok")
}

// missingIndustries lists the requested names absent from found.
func missingIndustries(requested []string, found []model.Industry) []string {
	have := make(map[string]bool, len(found))
	for _, f := range found {
		have[f.Name] = true
	}
	var out []string
	for _, n := range requested {
		if !have[n] {
			out = append(out, n)
		}
	}
	return out
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func normalizeIndustryNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.ToUpper(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
