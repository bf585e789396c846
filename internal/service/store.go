package service

import (
	"context"
	"time"

	"github.com/iliyamo/salon-booking/internal/model"
)

// The interfaces below are satisfied by the repository package. Services
// accept them so tests can run against in-memory fakes.

type IdentityStore interface {
	Create(ctx context.Context, i *model.Identity) error
	GetByID(ctx context.Context, id string) (*model.Identity, error)
	GetByEmail(ctx context.Context, email string) (*model.Identity, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	Update(ctx context.Context, i *model.Identity) error
	Delete(ctx context.Context, id string) error
	AttachOrganization(ctx context.Context, id, orgID, phone string, approved bool, defaults model.Permissions) error
	DetachOrganization(ctx context.Context, id string) error
	ListByOrganization(ctx context.Context, orgID string) ([]*model.Identity, error)
}

type OrganizationStore interface {
	Create(ctx context.Context, o *model.Organization) error
	GetByID(ctx context.Context, id string) (*model.Organization, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	LinkIndustries(ctx context.Context, orgID string, industryIDs []int64) error
	Delete(ctx context.Context, id string) error
}

type IndustryStore interface {
	List(ctx context.Context) ([]model.Industry, error)
	FindByNames(ctx context.Context, names []string) ([]model.Industry, error)
}

type PermissionStore interface {
	Get(ctx context.Context, identityID string) (*model.PermissionProfile, error)
	Update(ctx context.Context, identityID string, perms model.Permissions) error
}

type InvitationStore interface {
	Create(ctx context.Context, inv *model.Invitation) error
	GetByTokenHash(ctx context.Context, hash string) (*model.Invitation, error)
	MarkAccepted(ctx context.Context, id string, at time.Time) error
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, identityID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForIdentity(ctx context.Context, identityID string) error
}

// EventPublisher hands a message to the broker. *queue.Publisher satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, queue string, v any) error
}
